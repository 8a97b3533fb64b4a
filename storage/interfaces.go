package storage

import (
	"context"
	"errors"
	"time"

	"bangalorelife-scraper/models"
)

// ErrNotFound is returned by the read API when no row matches.
var ErrNotFound = errors.New("storage: not found")

// EventWriter is the write side of the events table. Upserts are keyed on slug.
type EventWriter interface {
	UpsertEvents(ctx context.Context, events []*models.CanonicalEvent) error
	UpsertEvent(ctx context.Context, event *models.CanonicalEvent) error
	// CleanupSource removes or deactivates rows of source whose start date is
	// before cutoff and reports how many rows it touched.
	CleanupSource(ctx context.Context, source models.Source, cutoff time.Time, policy models.CleanupPolicy) (int64, error)
}

// EventReader is the read API consumed by the rendering layer.
type EventReader interface {
	ListEventsByCategory(ctx context.Context, category models.Category, today time.Time) ([]*models.PublicEvent, error)
	ListUpcomingEvents(ctx context.Context, today time.Time) ([]*models.PublicEvent, error)
	GetEventBySlug(ctx context.Context, slug string) (*models.PublicEvent, error)
}

// VenueWriter is the write side of the venues table. Upserts are keyed on place id.
type VenueWriter interface {
	UpsertVenues(ctx context.Context, venues []*models.VenueRecord) error
	UpsertVenue(ctx context.Context, venue *models.VenueRecord) error
}

// VenueReader looks venues up by their human-readable slug.
type VenueReader interface {
	GetVenueBySlug(ctx context.Context, slug string) (*models.PublicVenue, error)
}

// Store is a complete backend.
type Store interface {
	EventWriter
	EventReader
	VenueWriter
	VenueReader
	Close() error
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(listings []*models.ScrapedListing) error
	Close() error
}

// OpenOptions selects and configures a backend.
type OpenOptions struct {
	DSN          string
	DryRun       bool
	PingAttempts int
	PingDelay    time.Duration
}

// Open returns the in-memory store for dry runs and a migrated Postgres
// store otherwise.
func Open(ctx context.Context, opts OpenOptions) (Store, error) {
	if opts.DryRun {
		return NewMemoryStore(), nil
	}
	return NewPostgresStore(ctx, opts.DSN, opts.PingAttempts, opts.PingDelay)
}

// today truncates t to the start of its calendar day in its own location.
func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
