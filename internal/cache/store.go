// Package cache provides the TTL cache shared by the data providers.
//
// Entries carry their own TTL in seconds. An entry is valid while
// now-StoredAt <= TTL; expired entries are never returned and are removed
// lazily on Get or in bulk by SweepExpired.
package cache

import (
	"sync"
	"time"

	"github.com/bruno-farias/raspi-info-ticker/internal/metrics"
)

// Entry is a single cached value.
type Entry struct {
	Key      string
	Value    any
	StoredAt time.Time
	TTL      int
}

// ValidAt reports whether the entry is still valid at the given instant.
func (e Entry) ValidAt(now time.Time) bool {
	return now.Sub(e.StoredAt) <= time.Duration(e.TTL)*time.Second
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	TotalEntries      int            `json:"total_entries"`
	ValidEntries      int            `json:"valid_entries"`
	ExpiredEntries    int            `json:"expired_entries"`
	DefaultTTL        int            `json:"default_ttl"`
	CategoryOverrides map[string]int `json:"category_overrides"`
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is a thread-safe map of keys to expiring entries.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	policy  Policy
	now     func() time.Time
}

// NewStore creates an empty store using the given policy.
func NewStore(policy Policy, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]Entry),
		policy:  policy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value for key if present and valid. An expired entry is
// removed as a side effect.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		metrics.RecordCacheOperation("get", "miss")
		return nil, false
	}

	if !entry.ValidAt(s.now()) {
		s.mu.Lock()
		// Double-check after acquiring lock: a concurrent Set may have replaced it.
		if current, stillExists := s.entries[key]; stillExists && !current.ValidAt(s.now()) {
			delete(s.entries, key)
		}
		size := len(s.entries)
		s.mu.Unlock()

		metrics.UpdateCacheEntries(size)
		metrics.RecordCacheOperation("get", "expired")
		return nil, false
	}

	metrics.RecordCacheOperation("get", "hit")
	return entry.Value, true
}

// Set stores value under key with the default TTL.
func (s *Store) Set(key string, value any) {
	s.SetWithTTL(key, value, s.policy.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL in seconds,
// replacing any existing entry.
func (s *Store) SetWithTTL(key string, value any, ttl int) {
	if ttl < 0 {
		ttl = 0
	}

	s.mu.Lock()
	s.entries[key] = Entry{
		Key:      key,
		Value:    value,
		StoredAt: s.now(),
		TTL:      ttl,
	}
	size := len(s.entries)
	s.mu.Unlock()

	metrics.UpdateCacheEntries(size)
	metrics.RecordCacheOperation("set", "success")
}

// Invalidate removes key. It is a no-op when the key is absent.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	size := len(s.entries)
	s.mu.Unlock()

	if ok {
		metrics.UpdateCacheEntries(size)
		metrics.RecordCacheOperation("invalidate", "success")
	}
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	removed := len(s.entries)
	s.entries = make(map[string]Entry)
	s.mu.Unlock()

	metrics.UpdateCacheEntries(0)
	metrics.RecordCacheOperation("clear", "success")
	return removed
}

// SweepExpired removes every entry that is invalid at a single instant and
// returns how many were removed.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	current := s.now()
	removed := 0
	for key, entry := range s.entries {
		if !entry.ValidAt(current) {
			delete(s.entries, key)
			removed++
		}
	}
	size := len(s.entries)
	s.mu.Unlock()

	metrics.UpdateCacheEntries(size)
	metrics.RecordCacheOperation("sweep", "success")
	return removed
}

// Stats returns entry counts without removing anything.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.now()
	valid := 0
	for _, entry := range s.entries {
		if entry.ValidAt(current) {
			valid++
		}
	}

	overrides := make(map[string]int, len(s.policy.Overrides))
	for k, v := range s.policy.Overrides {
		overrides[k] = v
	}

	return Stats{
		TotalEntries:      len(s.entries),
		ValidEntries:      valid,
		ExpiredEntries:    len(s.entries) - valid,
		DefaultTTL:        s.policy.DefaultTTL,
		CategoryOverrides: overrides,
	}
}

// Policy returns the store's TTL policy.
func (s *Store) Policy() Policy {
	return s.policy
}

// TTLFor resolves the TTL for a category.
func (s *Store) TTLFor(category string) int {
	return s.policy.Resolve(category)
}

// FallbackTTLFor resolves the TTL for fallback-sourced data of a category.
func (s *Store) FallbackTTLFor(category string) int {
	return s.policy.FallbackTTL(category)
}
