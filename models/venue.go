package models

import "time"

// VenueRecord is a place populated from the Places API, keyed by PlaceID.
type VenueRecord struct {
	ID           int64
	PlaceID      string
	Slug         string
	Name         string
	Kind         string
	Neighborhood string
	Address      string
	Phone        *string
	Website      *string
	OpeningHours []string
	Rating       *float64
	ReviewCount  *int
	PriceLevel   *int
	PhotoRefs    []string
	Latitude     float64
	Longitude    float64
	LastSyncedAt time.Time
}

// PublicVenue is the read-side view of a venue.
type PublicVenue struct {
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Neighborhood string   `json:"neighborhood"`
	Address      string   `json:"address"`
	Phone        *string  `json:"phone,omitempty"`
	Website      *string  `json:"website,omitempty"`
	OpeningHours []string `json:"opening_hours,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  *int     `json:"review_count,omitempty"`
	PriceLevel   *int     `json:"price_level,omitempty"`
	PhotoRefs    []string `json:"photo_refs,omitempty"`
	Latitude     float64  `json:"lat"`
	Longitude    float64  `json:"lng"`
}

// Public returns the rendering view of v.
func (v *VenueRecord) Public() *PublicVenue {
	return &PublicVenue{
		Slug:         v.Slug,
		Name:         v.Name,
		Kind:         v.Kind,
		Neighborhood: v.Neighborhood,
		Address:      v.Address,
		Phone:        v.Phone,
		Website:      v.Website,
		OpeningHours: v.OpeningHours,
		Rating:       v.Rating,
		ReviewCount:  v.ReviewCount,
		PriceLevel:   v.PriceLevel,
		PhotoRefs:    v.PhotoRefs,
		Latitude:     v.Latitude,
		Longitude:    v.Longitude,
	}
}
