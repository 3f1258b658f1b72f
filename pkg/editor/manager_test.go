package editor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukex/flowdraft/pkg/cache"
	"github.com/dukex/flowdraft/pkg/editor"
	"github.com/dukex/flowdraft/pkg/mocks"
	"github.com/dukex/flowdraft/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func TestManager_ReusesSessions(t *testing.T) {
	backend := &mocks.MockGraphBackend{}
	backend.On("LoadGraph", mock.Anything, workflowID).Return(baseGraph(), nil)

	manager := editor.NewManager(backend, cache.NewStore[*editor.Session](time.Minute), editor.Config{})

	first, err := manager.Open(context.Background(), workflowID)
	require.NoError(t, err)

	second, err := manager.Open(context.Background(), workflowID)
	require.NoError(t, err)

	assert.Same(t, first, second)
	backend.AssertNumberOfCalls(t, "LoadGraph", 1)

	got, ok := manager.Get(workflowID)
	assert.True(t, ok)
	assert.Same(t, first, got)

	assert.True(t, manager.Discard(workflowID))
	assert.False(t, manager.Discard(workflowID))

	_, ok = manager.Get(workflowID)
	assert.False(t, ok)
	assert.ErrorIs(t, first.Undo(), editor.ErrSessionClosed)
}

func TestManager_EvictsIdleSessions(t *testing.T) {
	clock := &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	backend := &mocks.MockGraphBackend{}
	backend.On("LoadGraph", mock.Anything, workflowID).Return(baseGraph(), nil)

	store := cache.NewStore[*editor.Session](10*time.Minute, cache.WithClock(clock.Now))
	manager := editor.NewManager(backend, store, editor.Config{})

	session, err := manager.Open(context.Background(), workflowID)
	require.NoError(t, err)

	_, err = session.AddNode(models.GraphNode{Name: "Archive"})
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	_, ok := manager.Get(workflowID)
	require.True(t, ok, "access restarts the idle timer")

	clock.Advance(9 * time.Minute)
	assert.Equal(t, 0, manager.Cleanup())
	assert.Equal(t, 1, manager.Len())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, manager.Cleanup())
	assert.Equal(t, 0, manager.Len())

	assert.ErrorIs(t, session.Undo(), editor.ErrSessionClosed)
}
