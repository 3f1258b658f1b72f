package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by a Memory cache used after Close.
var ErrClosed = errors.New("cache closed")

// Cache stores opaque byte values with a per-entry TTL.
type Cache interface {
	// Get returns the value and whether it was a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data; ttl <= 0 keeps it until deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Memory is a process-local Cache backed by a Store.
type Memory struct {
	store  *Store[[]byte]
	closed atomic.Bool
}

// NewMemory creates a memory cache whose entries default to ttl.
func NewMemory(ttl time.Duration, opts ...StoreOption) *Memory {
	return &Memory{store: NewStore[[]byte](ttl, opts...)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.closed.Load() {
		return nil, false, ErrClosed
	}

	data, ok := m.store.Get(key)

	return data, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if m.closed.Load() {
		return ErrClosed
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	m.store.SetWithTTL(key, buf, ttl)

	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if m.closed.Load() {
		return ErrClosed
	}

	m.store.Delete(key)

	return nil
}

// Cleanup sweeps expired entries; Memory can be registered with a Janitor.
func (m *Memory) Cleanup() int {
	return m.store.Cleanup()
}

// Close makes later calls fail with ErrClosed.
func (m *Memory) Close() error {
	m.closed.Store(true)

	return nil
}

// Null never stores anything; every Get is a miss.
type Null struct{}

// NewNull returns a cache that disables caching.
func NewNull() Null {
	return Null{}
}

func (Null) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Null) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Null) Delete(context.Context, string) error { return nil }

func (Null) Close() error { return nil }
