// Package places populates the venues table from a places API.
package places

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// SearchHit is one text-search result.
type SearchHit struct {
	PlaceID string
	Name    string
	Address string
}

// Details are the place-details fields a venue is built from. Optional
// values the API did not return are nil.
type Details struct {
	PlaceID      string
	Name         string
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
}

// Client is the subset of the places API the populator needs.
type Client interface {
	Search(ctx context.Context, query string) ([]SearchHit, error)
	Details(ctx context.Context, placeID string) (*Details, error)
}

var detailFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskPlaceID,
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
	maps.PlaceDetailsFieldMaskWebsite,
	maps.PlaceDetailsFieldMaskOpeningHours,
	maps.PlaceDetailsFieldMaskRatings,
	maps.PlaceDetailsFieldMaskUserRatingsTotal,
	maps.PlaceDetailsFieldMaskPriceLevel,
	maps.PlaceDetailsFieldMaskPhotos,
	maps.PlaceDetailsFieldMaskGeometryLocation,
}

// MapsClient implements Client on top of the Google Maps Places API.
type MapsClient struct {
	c *maps.Client
}

// NewMapsClient creates a client for apiKey. Extra options (base URL, HTTP
// client) are passed through to the maps package.
func NewMapsClient(apiKey string, opts ...maps.ClientOption) (*MapsClient, error) {
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("places: new client: %w", err)
	}
	return &MapsClient{c: c}, nil
}

// Search runs a text search and returns the first result page.
func (m *MapsClient) Search(ctx context.Context, query string) ([]SearchHit, error) {
	resp, err := m.c.TextSearch(ctx, &maps.TextSearchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("places: text search %q: %w", query, err)
	}
	hits := make([]SearchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, SearchHit{PlaceID: r.PlaceID, Name: r.Name, Address: r.FormattedAddress})
	}
	return hits, nil
}

// Details fetches the place-details record for placeID.
func (m *MapsClient) Details(ctx context.Context, placeID string) (*Details, error) {
	r, err := m.c.PlaceDetails(ctx, &maps.PlaceDetailsRequest{PlaceID: placeID, Fields: detailFields})
	if err != nil {
		return nil, fmt.Errorf("places: details %s: %w", placeID, err)
	}

	d := &Details{
		PlaceID:   r.PlaceID,
		Name:      r.Name,
		Address:   r.FormattedAddress,
		Latitude:  r.Geometry.Location.Lat,
		Longitude: r.Geometry.Location.Lng,
	}
	if d.PlaceID == "" {
		d.PlaceID = placeID
	}
	if r.FormattedPhoneNumber != "" {
		d.Phone = &r.FormattedPhoneNumber
	}
	if r.Website != "" {
		d.Website = &r.Website
	}
	if r.OpeningHours != nil {
		d.OpeningHours = r.OpeningHours.WeekdayText
	}
	// The API omits rating fields for unrated places; zero means absent.
	if r.UserRatingsTotal > 0 {
		rating := float64(r.Rating)
		total := r.UserRatingsTotal
		d.Rating = &rating
		d.ReviewCount = &total
	}
	// price_level decodes into a plain int, so an omitted level and a
	// "free" level of 0 are indistinguishable. Only levels above 0 are kept.
	if r.PriceLevel > 0 {
		level := r.PriceLevel
		d.PriceLevel = &level
	}
	for _, p := range r.Photos {
		d.PhotoRefs = append(d.PhotoRefs, p.PhotoReference)
	}
	return d, nil
}
