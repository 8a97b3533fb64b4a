package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"bangalorelife-scraper/models"
	"bangalorelife-scraper/services"
)

func newMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return newPostgresStore(db), mock
}

func TestPostgresMigrate(t *testing.T) {
	ps, mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS events .* slug TEXT UNIQUE NOT NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := ps.migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresUpsertEventsIsOneStatement(t *testing.T) {
	ps, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO events .* VALUES \(\$1,.*\$14\),\(\$15,.*\$28\) ON CONFLICT \(slug\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := ps.UpsertEvents(context.Background(), []*models.CanonicalEvent{
		event("a", models.SourceBookMyShow, models.CategoryComedy, refNow),
		event("b", models.SourceBookMyShow, models.CategoryComedy, refNow),
	})
	if err != nil {
		t.Fatalf("UpsertEvents: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresUpsertUpdatesOwningSource(t *testing.T) {
	ps, mock := newMock(t)
	mock.ExpectExec(`ON CONFLICT \(slug\) DO UPDATE SET .*source_name\s*=\s*EXCLUDED\.source_name,\s*source_event_id\s*=\s*EXCLUDED\.source_event_id`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := ps.UpsertEvent(context.Background(), event("a", models.SourceInsider, models.CategoryConcerts, refNow)); err != nil {
		t.Fatalf("UpsertEvent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresBulkFailureFallsBackToSingleRows(t *testing.T) {
	ps, mock := newMock(t)
	rowErr := errors.New(`pq: value too long for type character varying(32)`)

	mock.ExpectExec(`INSERT INTO events .*\(\$15,`).WillReturnError(rowErr)
	mock.ExpectExec(`INSERT INTO events .*\(\$1,.*\$14\) ON CONFLICT`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO events .*\(\$1,.*\$14\) ON CONFLICT`).WillReturnError(rowErr)
	mock.ExpectExec(`INSERT INTO events .*\(\$1,.*\$14\) ON CONFLICT`).WillReturnResult(sqlmock.NewResult(0, 1))

	events := []*models.CanonicalEvent{
		event("a", models.SourceInsider, models.CategoryKids, refNow),
		event("b", models.SourceInsider, models.CategoryKids, refNow),
		event("c", models.SourceInsider, models.CategoryKids, refNow),
	}
	res := services.WriteBatch(context.Background(), events, ps.UpsertEvents, ps.UpsertEvent,
		func(e *models.CanonicalEvent) string { return e.Slug }, nil)

	if !res.UsedFallback || res.Written != 2 || res.Failed != 1 {
		t.Errorf("WriteBatch = %+v; want fallback with 2 written and 1 failed", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresCleanupIsScopedToSource(t *testing.T) {
	cutoff := refNow.AddDate(0, 0, -30)
	tests := []struct {
		name   string
		source models.Source
		policy models.CleanupPolicy
		query  string
	}{
		{"deactivate", models.SourceBookMyShow, models.CleanupDeactivate,
			`UPDATE events SET is_active = FALSE, updated_at = NOW\(\) WHERE source_name = \$1 AND start_date < \$2`},
		{"delete", models.SourceInsider, models.CleanupDelete,
			`DELETE FROM events WHERE source_name = \$1 AND start_date < \$2`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, mock := newMock(t)
			mock.ExpectExec(tt.query).
				WithArgs(string(tt.source), cutoff).
				WillReturnResult(sqlmock.NewResult(0, 4))

			n, err := ps.CleanupSource(context.Background(), tt.source, cutoff, tt.policy)
			if err != nil {
				t.Fatalf("CleanupSource: %v", err)
			}
			if n != 4 {
				t.Errorf("CleanupSource = %d; want 4", n)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestPostgresCleanupRejectsUnknownPolicy(t *testing.T) {
	ps, _ := newMock(t)
	if _, err := ps.CleanupSource(context.Background(), models.SourceInsider, refNow, "archive"); err == nil {
		t.Error("expected an error for an unknown policy")
	}
}

var eventCols = []string{
	"title", "slug", "category", "venue_name", "city", "price", "price_min", "price_currency",
	"image_url", "affiliate_url", "start_date", "end_date", "source_name",
}

func TestPostgresListUpcomingScansNullableColumns(t *testing.T) {
	ps, mock := newMock(t)
	start := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM events WHERE is_active AND start_date >= \$1`).
		WithArgs(time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("Zakir Khan Live", "zakir-khan-live-00123456", "comedy", "Phoenix Marketcity", "Bangalore",
				"₹999 onwards", 999, "INR", nil, "https://linksredirect.com/?url=x", start, nil, "bookmyshow").
			AddRow("Open Mic", "open-mic-open-mic", "comedy", nil, "Bangalore",
				nil, nil, "INR", nil, "https://linksredirect.com/?url=y", start, nil, "insider"))

	events, err := ps.ListUpcomingEvents(context.Background(), refNow)
	if err != nil {
		t.Fatalf("ListUpcomingEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events; want 2", len(events))
	}
	if events[0].PriceMin == nil || *events[0].PriceMin != 999 || *events[0].VenueName != "Phoenix Marketcity" {
		t.Errorf("first event scanned wrong: %+v", events[0])
	}
	if events[1].VenueName != nil || events[1].PriceMin != nil || events[1].ImageURL != nil {
		t.Errorf("NULL columns should stay nil: %+v", events[1])
	}
	if events[0].BookingURL != "https://linksredirect.com/?url=x" {
		t.Errorf("BookingURL = %q; want the affiliate URL", events[0].BookingURL)
	}
}

func TestPostgresGetEventBySlugNotFound(t *testing.T) {
	ps, mock := newMock(t)
	mock.ExpectQuery(`FROM events WHERE slug = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(eventCols))

	if _, err := ps.GetEventBySlug(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEventBySlug error = %v; want ErrNotFound", err)
	}
}

func TestPostgresUpsertVenuesCommits(t *testing.T) {
	ps, mock := newMock(t)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO venues .* ON CONFLICT \(place_id\) DO UPDATE`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ps.UpsertVenues(context.Background(), []*models.VenueRecord{
		{PlaceID: "p1", Slug: "toit-indiranagar", Name: "Toit", PhotoRefs: []string{"r1"}},
		{PlaceID: "p2", Slug: "arbor-brewing-company-mg-road", Name: "Arbor Brewing Company"},
	})
	if err != nil {
		t.Fatalf("UpsertVenues: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresUpsertVenuesRollsBack(t *testing.T) {
	ps, mock := newMock(t)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO venues`)
	prep.ExpectExec().WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := ps.UpsertVenues(context.Background(), []*models.VenueRecord{{PlaceID: "p1", Name: "Toit"}})
	if err == nil {
		t.Fatal("expected an error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresGetVenueBySlugNotFound(t *testing.T) {
	ps, mock := newMock(t)
	mock.ExpectQuery(`FROM venues WHERE slug = \$1`).WithArgs("nowhere").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}))

	if _, err := ps.GetVenueBySlug(context.Background(), "nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetVenueBySlug error = %v; want ErrNotFound", err)
	}
}
