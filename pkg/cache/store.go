// Package cache provides injectable TTL caches with an explicit lifecycle:
// an in-memory generic Store, byte-oriented Cache backends (memory, Redis,
// null) and a Janitor that schedules expiry sweeps for as long as the
// application runs.
package cache

import (
	"sync"
	"time"
)

type storeConfig struct {
	now func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.now = now
	}
}

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiry
}

// Store is an in-memory key/value store whose entries expire after a TTL.
// Construction starts no goroutines; expired entries are dropped lazily on
// read and in bulk by Cleanup.
type Store[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	items   map[string]entry[V]
	onEvict func(key string, value V)
}

// NewStore creates a store whose entries live for ttl. A ttl <= 0 disables expiry.
func NewStore[V any](ttl time.Duration, opts ...StoreOption) *Store[V] {
	cfg := storeConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Store[V]{
		ttl:   ttl,
		now:   cfg.now,
		items: make(map[string]entry[V]),
	}
}

// OnEvict registers fn to run for every entry removed because it expired.
// fn runs outside the store lock.
func (s *Store[V]) OnEvict(fn func(key string, value V)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onEvict = fn
}

// TTL returns the default entry lifetime.
func (s *Store[V]) TTL() time.Duration {
	return s.ttl
}

// Get returns the value for key if present and not expired.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()

	item, ok := s.items[key]
	if !ok {
		s.mu.Unlock()

		var zero V

		return zero, false
	}

	if s.expired(item) {
		delete(s.items, key)
		evict := s.onEvict
		s.mu.Unlock()

		if evict != nil {
			evict(key, item.value)
		}

		var zero V

		return zero, false
	}

	s.mu.Unlock()

	return item.value, true
}

// Set stores value with the default TTL.
func (s *Store[V]) Set(key string, value V) {
	s.SetWithTTL(key, value, s.ttl)
}

// SetWithTTL stores value with an explicit TTL. ttl <= 0 never expires.
func (s *Store[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := entry[V]{value: value}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}

	s.items[key] = item
}

// Touch restarts the default TTL of a live entry.
func (s *Store[V]) Touch(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok || s.expired(item) {
		return false
	}

	if s.ttl > 0 {
		item.expiresAt = s.now().Add(s.ttl)
		s.items[key] = item
	}

	return true
}

// Delete removes key without running the eviction hook.
func (s *Store[V]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.items[key]
	delete(s.items, key)

	return ok
}

// Len counts stored entries, expired ones included until swept.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

// Cleanup removes every expired entry and returns how many were dropped.
func (s *Store[V]) Cleanup() int {
	s.mu.Lock()

	type evicted struct {
		key   string
		value V
	}

	var dropped []evicted

	for key, item := range s.items {
		if s.expired(item) {
			delete(s.items, key)
			dropped = append(dropped, evicted{key: key, value: item.value})
		}
	}

	evict := s.onEvict
	s.mu.Unlock()

	if evict != nil {
		for _, d := range dropped {
			evict(d.key, d.value)
		}
	}

	return len(dropped)
}

func (s *Store[V]) expired(item entry[V]) bool {
	return !item.expiresAt.IsZero() && !s.now().Before(item.expiresAt)
}
