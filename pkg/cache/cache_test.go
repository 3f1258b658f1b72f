package cache

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestStore_GetSetExpire(t *testing.T) {
	t.Parallel()

	clock := newClock()
	store := NewStore[string](time.Minute, WithClock(clock.Now))

	store.Set("a", "1")

	v, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	clock.Advance(59 * time.Second)
	_, ok = store.Get("a")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = store.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStore_NoExpiry(t *testing.T) {
	t.Parallel()

	clock := newClock()
	store := NewStore[int](0, WithClock(clock.Now))

	store.Set("k", 7)
	clock.Advance(24 * time.Hour)

	v, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestStore_CleanupRunsEvictionHook(t *testing.T) {
	t.Parallel()

	clock := newClock()
	store := NewStore[string](time.Minute, WithClock(clock.Now))

	var evicted []string

	store.OnEvict(func(key string, _ string) {
		evicted = append(evicted, key)
	})

	store.Set("short", "x")
	store.SetWithTTL("long", "y", time.Hour)

	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, []string{"short"}, evicted)
	assert.Equal(t, 1, store.Len())

	assert.True(t, store.Delete("long"))
	assert.Equal(t, []string{"short"}, evicted, "explicit delete does not evict")
}

func TestStore_Touch(t *testing.T) {
	t.Parallel()

	clock := newClock()
	store := NewStore[string](time.Minute, WithClock(clock.Now))

	store.Set("k", "v")
	clock.Advance(50 * time.Second)
	require.True(t, store.Touch("k"))

	clock.Advance(50 * time.Second)
	_, ok := store.Get("k")
	assert.True(t, ok)

	assert.False(t, store.Touch("missing"))
}

func TestMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newClock()
	c := NewMemory(time.Minute, WithClock(clock.Now))

	defer func() {
		require.NoError(t, c.Close())
	}()

	data, hit, err := c.Get(ctx, "roles")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)

	payload := []byte("payload")
	require.NoError(t, c.Set(ctx, "roles", payload, time.Second))
	payload[0] = 'X'

	data, hit, err = c.Get(ctx, "roles")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "payload", string(data))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, c.Cleanup())

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))

	_, hit, _ = c.Get(ctx, "k")
	assert.False(t, hit)
}

func TestMemory_Closed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory(time.Minute)

	require.NoError(t, c.Set(ctx, "roles", []byte("v"), 0))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, hit, err := c.Get(ctx, "roles")
	require.ErrorIs(t, err, ErrClosed)
	assert.False(t, hit)
	assert.ErrorIs(t, c.Set(ctx, "roles", []byte("v"), 0), ErrClosed)
	assert.ErrorIs(t, c.Delete(ctx, "roles"), ErrClosed)
}

func TestNull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewNull()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Hour))

	data, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)
	assert.NoError(t, c.Delete(ctx, "key"))
}

type countingCleaner struct {
	calls atomic.Int32
}

func (c *countingCleaner) Cleanup() int {
	c.calls.Add(1)

	return 0
}

func TestJanitor(t *testing.T) {
	t.Parallel()

	target := &countingCleaner{}

	janitor, err := NewJanitor(slog.Default(), time.Second, target)
	require.NoError(t, err)

	janitor.Sweep()
	assert.Equal(t, int32(1), target.calls.Load())

	janitor.Start()

	assert.Eventually(t, func() bool {
		return target.calls.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, janitor.Stop(ctx))
}

func TestJanitor_InvalidInterval(t *testing.T) {
	t.Parallel()

	_, err := NewJanitor(slog.Default(), 0)
	assert.Error(t, err)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()

	c, err := NewRedis(ctx, url, "flowdraft-test:")
	require.NoError(t, err)

	defer func() {
		require.NoError(t, c.Close())
	}()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	data, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("v"), data)

	require.NoError(t, c.Delete(ctx, "k"))

	_, hit, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}
