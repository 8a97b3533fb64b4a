package models

import "time"

// CanonicalEvent is the normalized, persisted representation of a listing.
type CanonicalEvent struct {
	ID            int64
	Title         string
	Slug          string
	Category      Category
	VenueName     *string
	City          string
	Price         *string
	PriceMin      *int
	PriceCurrency string
	ImageURL      *string
	// BookingURL is the raw third-party link, kept for debugging only.
	BookingURL string
	// AffiliateURL is the only link that may be rendered as a call to action.
	AffiliateURL  string
	StartDate     time.Time
	EndDate       *time.Time
	SourceName    Source
	SourceEventID string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicEvent is the read-side view handed to the rendering layer. It has no
// raw booking link: BookingURL is always the affiliate-wrapped URL.
type PublicEvent struct {
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	Category   Category   `json:"category"`
	VenueName  *string    `json:"venue_name,omitempty"`
	City       string     `json:"city"`
	Price      *string    `json:"price,omitempty"`
	PriceMin   *int       `json:"price_min,omitempty"`
	Currency   string     `json:"price_currency"`
	ImageURL   *string    `json:"image_url,omitempty"`
	BookingURL string     `json:"booking_url"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Source     Source     `json:"source"`
}

// Public returns the rendering view of e.
func (e *CanonicalEvent) Public() *PublicEvent {
	return &PublicEvent{
		Title:      e.Title,
		Slug:       e.Slug,
		Category:   e.Category,
		VenueName:  e.VenueName,
		City:       e.City,
		Price:      e.Price,
		PriceMin:   e.PriceMin,
		Currency:   e.PriceCurrency,
		ImageURL:   e.ImageURL,
		BookingURL: e.AffiliateURL,
		StartDate:  e.StartDate,
		EndDate:    e.EndDate,
		Source:     e.SourceName,
	}
}

// CleanupPolicy decides what happens to a source's expired rows.
type CleanupPolicy string

const (
	CleanupDeactivate CleanupPolicy = "deactivate"
	CleanupDelete     CleanupPolicy = "delete"
)
