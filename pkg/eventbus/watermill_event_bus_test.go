package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowdraft/pkg/channels/gochannel"
	"github.com/dukex/flowdraft/pkg/eventbus"
	"github.com/dukex/flowdraft/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	defer func() {
		assert.NoError(t, bus.Close())
	}()

	received := make(chan *events.GraphSaved, 1)

	require.NoError(t, bus.Handle(events.GraphSavedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.GraphSaved)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	event := events.GraphSaved{
		BaseEvent:  events.NewBaseEvent(events.GraphSavedEvent),
		WorkflowID: "wf-1",
		Version:    3,
		NodeCount:  2,
		EdgeCount:  1,
	}

	require.NoError(t, bus.Publish(ctx, "wf-1", event))

	select {
	case got := <-received:
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, 3, got.Version)
		assert.Equal(t, events.GraphSavedEvent, got.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
	assert.NoError(t, bus.Close())
}
