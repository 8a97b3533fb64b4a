package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"bangalorelife-scraper/models"
	"bangalorelife-scraper/utils"
)

const eventColumns = 14

// PostgresStore persists events and venues to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore. The initial ping is retried since
// the database container may still be starting.
func NewPostgresStore(ctx context.Context, dsn string, pingAttempts int, pingDelay time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if pingAttempts < 1 {
		pingAttempts = 10
	}
	if pingDelay <= 0 {
		pingDelay = 2 * time.Second
	}
	retry := utils.RetryConfig{MaxAttempts: pingAttempts, BaseDelay: pingDelay}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := newPostgresStore(db)
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func newPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id              BIGSERIAL PRIMARY KEY,
			title           TEXT         NOT NULL,
			slug            TEXT         UNIQUE NOT NULL,
			category        VARCHAR(32)  NOT NULL,
			venue_name      TEXT,
			city            VARCHAR(64)  NOT NULL,
			price           TEXT,
			price_min       INTEGER,
			price_currency  VARCHAR(8)   NOT NULL,
			image_url       TEXT,
			booking_url     TEXT         NOT NULL,
			affiliate_url   TEXT         NOT NULL,
			start_date      TIMESTAMPTZ  NOT NULL,
			end_date        TIMESTAMPTZ,
			source_name     VARCHAR(32)  NOT NULL,
			source_event_id TEXT         NOT NULL,
			is_active       BOOLEAN      NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_events_category   ON events(category);
		CREATE INDEX IF NOT EXISTS idx_events_start_date ON events(start_date);
		CREATE INDEX IF NOT EXISTS idx_events_source     ON events(source_name, start_date);

		CREATE TABLE IF NOT EXISTS venues (
			id             BIGSERIAL PRIMARY KEY,
			place_id       TEXT         UNIQUE NOT NULL,
			slug           TEXT         NOT NULL,
			name           TEXT         NOT NULL,
			kind           VARCHAR(64)  NOT NULL,
			neighborhood   VARCHAR(64)  NOT NULL,
			address        TEXT         NOT NULL DEFAULT '',
			phone          TEXT,
			website        TEXT,
			opening_hours  TEXT[]       NOT NULL DEFAULT '{}',
			rating         NUMERIC(3,1),
			review_count   INTEGER,
			price_level    SMALLINT,
			photo_refs     TEXT[]       NOT NULL DEFAULT '{}',
			latitude       DOUBLE PRECISION NOT NULL DEFAULT 0,
			longitude      DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_synced_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_venues_slug         ON venues(slug);
		CREATE INDEX IF NOT EXISTS idx_venues_neighborhood ON venues(neighborhood);
	`)
	return err
}

const eventUpsertTail = `
	ON CONFLICT (slug) DO UPDATE SET
		title           = EXCLUDED.title,
		category        = EXCLUDED.category,
		venue_name      = EXCLUDED.venue_name,
		price           = EXCLUDED.price,
		price_min       = EXCLUDED.price_min,
		image_url       = EXCLUDED.image_url,
		booking_url     = EXCLUDED.booking_url,
		affiliate_url   = EXCLUDED.affiliate_url,
		start_date      = EXCLUDED.start_date,
		end_date        = EXCLUDED.end_date,
		source_name     = EXCLUDED.source_name,
		source_event_id = EXCLUDED.source_event_id,
		is_active       = TRUE,
		updated_at      = NOW()`

const eventInsertHead = `
	INSERT INTO events (title, slug, category, venue_name, city, price, price_min,
		price_currency, image_url, booking_url, affiliate_url, start_date, source_name, source_event_id)
	VALUES `

// UpsertEvents writes all events in a single statement. Postgres rejects a
// statement that touches the same slug twice, so callers drop duplicate
// slugs first.
func (ps *PostgresStore) UpsertEvents(ctx context.Context, events []*models.CanonicalEvent) error {
	if len(events) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(events))
	valueArgs := make([]any, 0, len(events)*eventColumns)
	for idx, e := range events {
		valueStrings = append(valueStrings, placeholders(idx*eventColumns, eventColumns))
		valueArgs = append(valueArgs, eventArgs(e)...)
	}

	query := eventInsertHead + strings.Join(valueStrings, ",") + eventUpsertTail
	if _, err := ps.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert %d events: %w", len(events), err)
	}
	return nil
}

// UpsertEvent writes a single event.
func (ps *PostgresStore) UpsertEvent(ctx context.Context, e *models.CanonicalEvent) error {
	query := eventInsertHead + placeholders(0, eventColumns) + eventUpsertTail
	if _, err := ps.db.ExecContext(ctx, query, eventArgs(e)...); err != nil {
		return fmt.Errorf("postgres: upsert event %s: %w", e.Slug, err)
	}
	return nil
}

func eventArgs(e *models.CanonicalEvent) []any {
	return []any{
		e.Title, e.Slug, string(e.Category), e.VenueName, e.City, e.Price, e.PriceMin,
		e.PriceCurrency, e.ImageURL, e.BookingURL, e.AffiliateURL, e.StartDate,
		string(e.SourceName), e.SourceEventID,
	}
}

func placeholders(offset, n int) string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "$%d", offset+i)
	}
	b.WriteByte(')')
	return b.String()
}

// CleanupSource deactivates or deletes expired rows of one source only.
func (ps *PostgresStore) CleanupSource(ctx context.Context, source models.Source, cutoff time.Time, policy models.CleanupPolicy) (int64, error) {
	var query string
	switch policy {
	case models.CleanupDelete:
		query = `DELETE FROM events WHERE source_name = $1 AND start_date < $2`
	case models.CleanupDeactivate:
		query = `UPDATE events SET is_active = FALSE, updated_at = NOW()
			WHERE source_name = $1 AND start_date < $2 AND is_active`
	default:
		return 0, fmt.Errorf("postgres: cleanup: unknown policy %q", policy)
	}

	res, err := ps.db.ExecContext(ctx, query, string(source), cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: cleanup %s: %w", source, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: cleanup %s: rows affected: %w", source, err)
	}
	return n, nil
}

const eventSelect = `
	SELECT title, slug, category, venue_name, city, price, price_min, price_currency,
		image_url, affiliate_url, start_date, end_date, source_name
	FROM events`

// ListEventsByCategory returns active events of category starting today or later.
func (ps *PostgresStore) ListEventsByCategory(ctx context.Context, category models.Category, now time.Time) ([]*models.PublicEvent, error) {
	return ps.queryEvents(ctx, eventSelect+`
		WHERE is_active AND category = $1 AND start_date >= $2
		ORDER BY start_date, slug`, string(category), today(now))
}

// ListUpcomingEvents returns every active event starting today or later.
func (ps *PostgresStore) ListUpcomingEvents(ctx context.Context, now time.Time) ([]*models.PublicEvent, error) {
	return ps.queryEvents(ctx, eventSelect+`
		WHERE is_active AND start_date >= $1
		ORDER BY start_date, slug`, today(now))
}

// GetEventBySlug returns one event or ErrNotFound.
func (ps *PostgresStore) GetEventBySlug(ctx context.Context, slug string) (*models.PublicEvent, error) {
	events, err := ps.queryEvents(ctx, eventSelect+` WHERE slug = $1`, slug)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return events[0], nil
}

func (ps *PostgresStore) queryEvents(ctx context.Context, query string, args ...any) ([]*models.PublicEvent, error) {
	rows, err := ps.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query events: %w", err)
	}
	defer rows.Close()

	var events []*models.PublicEvent
	for rows.Next() {
		var (
			e                   models.PublicEvent
			category, source    string
			venue, price, image sql.NullString
			priceMin            sql.NullInt64
			endDate             sql.NullTime
		)
		if err := rows.Scan(
			&e.Title, &e.Slug, &category, &venue, &e.City, &price, &priceMin, &e.Currency,
			&image, &e.BookingURL, &e.StartDate, &endDate, &source,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		e.Category = models.Category(category)
		e.Source = models.Source(source)
		e.VenueName = nullString(venue)
		e.Price = nullString(price)
		e.ImageURL = nullString(image)
		if priceMin.Valid {
			e.PriceMin = models.IntPtr(int(priceMin.Int64))
		}
		if endDate.Valid {
			t := endDate.Time
			e.EndDate = &t
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

const venueUpsert = `
	INSERT INTO venues (place_id, slug, name, kind, neighborhood, address, phone, website,
		opening_hours, rating, review_count, price_level, photo_refs, latitude, longitude, last_synced_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	ON CONFLICT (place_id) DO UPDATE SET
		slug           = EXCLUDED.slug,
		name           = EXCLUDED.name,
		kind           = EXCLUDED.kind,
		neighborhood   = EXCLUDED.neighborhood,
		address        = EXCLUDED.address,
		phone          = EXCLUDED.phone,
		website        = EXCLUDED.website,
		opening_hours  = EXCLUDED.opening_hours,
		rating         = EXCLUDED.rating,
		review_count   = EXCLUDED.review_count,
		price_level    = EXCLUDED.price_level,
		photo_refs     = EXCLUDED.photo_refs,
		latitude       = EXCLUDED.latitude,
		longitude      = EXCLUDED.longitude,
		last_synced_at = EXCLUDED.last_synced_at`

// UpsertVenues writes all venues inside one transaction; any failure rolls
// the whole batch back so the caller can retry individually.
func (ps *PostgresStore) UpsertVenues(ctx context.Context, venues []*models.VenueRecord) (err error) {
	if len(venues) == 0 {
		return nil
	}
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, venueUpsert)
	if err != nil {
		return fmt.Errorf("postgres: prepare venue upsert: %w", err)
	}
	defer stmt.Close()

	for _, v := range venues {
		if _, err = stmt.ExecContext(ctx, venueArgs(v)...); err != nil {
			return fmt.Errorf("postgres: upsert venue %s: %w", v.PlaceID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit venues: %w", err)
	}
	return nil
}

// UpsertVenue writes a single venue.
func (ps *PostgresStore) UpsertVenue(ctx context.Context, v *models.VenueRecord) error {
	if _, err := ps.db.ExecContext(ctx, venueUpsert, venueArgs(v)...); err != nil {
		return fmt.Errorf("postgres: upsert venue %s: %w", v.PlaceID, err)
	}
	return nil
}

func venueArgs(v *models.VenueRecord) []any {
	return []any{
		v.PlaceID, v.Slug, v.Name, v.Kind, v.Neighborhood, v.Address, v.Phone, v.Website,
		pq.Array(nonNil(v.OpeningHours)), v.Rating, v.ReviewCount, v.PriceLevel,
		pq.Array(nonNil(v.PhotoRefs)), v.Latitude, v.Longitude, v.LastSyncedAt,
	}
}

// GetVenueBySlug returns the most recently synced venue with slug.
func (ps *PostgresStore) GetVenueBySlug(ctx context.Context, slug string) (*models.PublicVenue, error) {
	row := ps.db.QueryRowContext(ctx, `
		SELECT slug, name, kind, neighborhood, address, phone, website, opening_hours,
			rating, review_count, price_level, photo_refs, latitude, longitude
		FROM venues
		WHERE slug = $1
		ORDER BY last_synced_at DESC
		LIMIT 1`, slug)

	var (
		v                 models.PublicVenue
		phone, website    sql.NullString
		rating            sql.NullFloat64
		reviews, priceLvl sql.NullInt64
	)
	err := row.Scan(
		&v.Slug, &v.Name, &v.Kind, &v.Neighborhood, &v.Address, &phone, &website,
		pq.Array(&v.OpeningHours), &rating, &reviews, &priceLvl, pq.Array(&v.PhotoRefs),
		&v.Latitude, &v.Longitude,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get venue %s: %w", slug, err)
	}

	v.Phone = nullString(phone)
	v.Website = nullString(website)
	if rating.Valid {
		r := rating.Float64
		v.Rating = &r
	}
	if reviews.Valid {
		v.ReviewCount = models.IntPtr(int(reviews.Int64))
	}
	if priceLvl.Valid {
		v.PriceLevel = models.IntPtr(int(priceLvl.Int64))
	}
	return &v, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return models.StringPtr(ns.String)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
