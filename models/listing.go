package models

import "time"

// Source identifies a third-party site feeding the pipeline.
type Source string

const (
	SourceBookMyShow Source = "bookmyshow"
	SourceInsider    Source = "insider"
	SourcePlaces     Source = "google-places-derived"
)

// Abbreviation returns the short discriminator used in slugs and tracking tags.
func (s Source) Abbreviation() string {
	switch s {
	case SourceBookMyShow:
		return "bms"
	case SourceInsider:
		return "ins"
	case SourcePlaces:
		return "gpl"
	default:
		return string(s)
	}
}

// Category is the fixed event taxonomy.
type Category string

const (
	CategoryComedy      Category = "comedy"
	CategoryConcerts    Category = "concerts"
	CategoryTheatre     Category = "theatre"
	CategoryWorkshops   Category = "workshops"
	CategorySports      Category = "sports"
	CategoryKids        Category = "kids"
	CategoryExperiences Category = "experiences"
	CategoryScreening   Category = "screening"
	CategoryEvents      Category = "events"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryComedy, CategoryConcerts, CategoryTheatre, CategoryWorkshops, CategorySports,
	CategoryKids, CategoryExperiences, CategoryScreening, CategoryEvents,
}

// Valid reports whether c belongs to the fixed enumeration.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// ScrapedListing is one candidate event extracted from a source page.
// Optional fields are nil when the page did not yield a plausible value.
type ScrapedListing struct {
	Source         Source
	SourceRecordID string
	Title          string
	Category       Category
	DestinationURL string

	VenueName      *string
	RawPriceText   *string
	ParsedMinPrice *int
	ImageURL       *string

	StartDate time.Time
	// StartDateEstimated is set when no date text was found and StartDate
	// holds the one-week default.
	StartDateEstimated bool

	ScrapedAt time.Time
}

// Key is the intra-run identity of a listing.
func (l *ScrapedListing) Key() string {
	return string(l.Source) + "|" + l.SourceRecordID
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
