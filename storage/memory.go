package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bangalorelife-scraper/models"
)

// MemoryStore keeps events and venues in process memory with the same keys
// and conflict rules as the Postgres tables. Used for dry runs and tests.
type MemoryStore struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64
	events map[string]*models.CanonicalEvent
	venues map[string]*models.VenueRecord

	// Reject, when set, is consulted for every event write and can simulate
	// rows the database would refuse.
	Reject func(e *models.CanonicalEvent) error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:    time.Now,
		events: make(map[string]*models.CanonicalEvent),
		venues: make(map[string]*models.VenueRecord),
	}
}

func (m *MemoryStore) checkEvent(e *models.CanonicalEvent) error {
	if e.Slug == "" || e.Title == "" {
		return fmt.Errorf("memory: event %q: slug and title are required", e.Slug)
	}
	if m.Reject != nil {
		if err := m.Reject(e); err != nil {
			return err
		}
	}
	return nil
}

// UpsertEvents is all-or-nothing, like a single multi-row statement.
func (m *MemoryStore) UpsertEvents(_ context.Context, events []*models.CanonicalEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(events))
	for _, e := range events {
		if seen[e.Slug] {
			return fmt.Errorf("memory: slug %s appears twice in one batch", e.Slug)
		}
		seen[e.Slug] = true
		if err := m.checkEvent(e); err != nil {
			return err
		}
	}
	for _, e := range events {
		m.putEvent(e)
	}
	return nil
}

func (m *MemoryStore) UpsertEvent(_ context.Context, e *models.CanonicalEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkEvent(e); err != nil {
		return err
	}
	m.putEvent(e)
	return nil
}

// putEvent overwrites mutable fields, including the owning source, and
// preserves id, created_at, city and currency.
func (m *MemoryStore) putEvent(e *models.CanonicalEvent) {
	now := m.now()
	row := *e
	row.IsActive = true
	row.UpdatedAt = now
	if old, ok := m.events[e.Slug]; ok {
		row.ID = old.ID
		row.CreatedAt = old.CreatedAt
		row.City = old.City
		row.PriceCurrency = old.PriceCurrency
	} else {
		m.nextID++
		row.ID = m.nextID
		row.CreatedAt = now
	}
	m.events[e.Slug] = &row
}

func (m *MemoryStore) CleanupSource(_ context.Context, source models.Source, cutoff time.Time, policy models.CleanupPolicy) (int64, error) {
	if policy != models.CleanupDelete && policy != models.CleanupDeactivate {
		return 0, fmt.Errorf("memory: cleanup: unknown policy %q", policy)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for slug, e := range m.events {
		if e.SourceName != source || !e.StartDate.Before(cutoff) {
			continue
		}
		switch policy {
		case models.CleanupDelete:
			delete(m.events, slug)
			n++
		case models.CleanupDeactivate:
			if e.IsActive {
				e.IsActive = false
				e.UpdatedAt = m.now()
				n++
			}
		}
	}
	return n, nil
}

func (m *MemoryStore) ListEventsByCategory(_ context.Context, category models.Category, now time.Time) ([]*models.PublicEvent, error) {
	return m.upcoming(now, func(e *models.CanonicalEvent) bool { return e.Category == category }), nil
}

func (m *MemoryStore) ListUpcomingEvents(_ context.Context, now time.Time) ([]*models.PublicEvent, error) {
	return m.upcoming(now, func(*models.CanonicalEvent) bool { return true }), nil
}

func (m *MemoryStore) upcoming(now time.Time, keep func(*models.CanonicalEvent) bool) []*models.PublicEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := today(now)
	var rows []*models.CanonicalEvent
	for _, e := range m.events {
		if e.IsActive && !e.StartDate.Before(from) && keep(e) {
			rows = append(rows, e)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].StartDate.Equal(rows[j].StartDate) {
			return rows[i].StartDate.Before(rows[j].StartDate)
		}
		return rows[i].Slug < rows[j].Slug
	})

	out := make([]*models.PublicEvent, 0, len(rows))
	for _, e := range rows {
		out = append(out, e.Public())
	}
	return out
}

func (m *MemoryStore) GetEventBySlug(_ context.Context, slug string) (*models.PublicEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return e.Public(), nil
}

// Event returns the stored row for slug, including the raw booking URL.
func (m *MemoryStore) Event(slug string) (*models.CanonicalEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[slug]
	if !ok {
		return nil, false
	}
	row := *e
	return &row, true
}

// EventCount returns the number of stored event rows, active or not.
func (m *MemoryStore) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func checkVenue(v *models.VenueRecord) error {
	if strings.TrimSpace(v.PlaceID) == "" {
		return fmt.Errorf("memory: venue %q has no place id", v.Name)
	}
	return nil
}

func (m *MemoryStore) UpsertVenues(_ context.Context, venues []*models.VenueRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range venues {
		if err := checkVenue(v); err != nil {
			return err
		}
	}
	for _, v := range venues {
		m.putVenue(v)
	}
	return nil
}

func (m *MemoryStore) UpsertVenue(_ context.Context, v *models.VenueRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkVenue(v); err != nil {
		return err
	}
	m.putVenue(v)
	return nil
}

func (m *MemoryStore) putVenue(v *models.VenueRecord) {
	row := *v
	if old, ok := m.venues[v.PlaceID]; ok {
		row.ID = old.ID
	} else {
		m.nextID++
		row.ID = m.nextID
	}
	m.venues[v.PlaceID] = &row
}

func (m *MemoryStore) GetVenueBySlug(_ context.Context, slug string) (*models.PublicVenue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *models.VenueRecord
	for _, v := range m.venues {
		if v.Slug == slug && (best == nil || v.LastSyncedAt.After(best.LastSyncedAt)) {
			best = v
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best.Public(), nil
}

// VenueCount returns the number of stored venues.
func (m *MemoryStore) VenueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.venues)
}

func (m *MemoryStore) Close() error { return nil }
