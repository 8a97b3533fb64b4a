package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a fixed delay between consecutive requests, measured from
// the moment the previous request finished. The first Wait returns
// immediately. Callers pair every Wait with a Done once the request ends.
type Pacer struct {
	interval time.Duration

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewPacer creates a Pacer with the given interval. A zero interval never waits.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Interval returns the configured spacing.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until the next request may be issued or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	l := p.limiter
	p.mu.Unlock()
	return l.Wait(ctx)
}

// Done marks the end of a request. The next Wait blocks for a full interval
// from now, however long the request itself took.
func (p *Pacer) Done() {
	l := rate.NewLimiter(rate.Every(p.interval), 1)
	l.Allow()

	p.mu.Lock()
	p.limiter = l
	p.mu.Unlock()
}

// KeySet is a set of seen keys.
type KeySet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewKeySet creates an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[string]struct{})}
}

// Add returns true if the key was newly added, false if already present.
func (s *KeySet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains returns true if the key has already been seen.
func (s *KeySet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[key]
	return exists
}

// Size returns the number of unique keys tracked.
func (s *KeySet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
