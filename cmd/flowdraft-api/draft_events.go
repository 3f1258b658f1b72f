package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukex/flowdraft/pkg/eventbus"
	"github.com/dukex/flowdraft/pkg/events"
)

const draftEventQueueSize = 256

// draftEvents publishes draft state changes from a single worker so they
// reach the bus in the order the sessions reported them.
type draftEvents struct {
	logger    *slog.Logger
	publisher eventbus.EventPublisher
	queue     chan events.DraftStateChanged
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

func newDraftEvents(logger *slog.Logger, publisher eventbus.EventPublisher) *draftEvents {
	d := &draftEvents{
		logger:    logger,
		publisher: publisher,
		queue:     make(chan events.DraftStateChanged, draftEventQueueSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	go d.run()

	return d
}

// enqueue blocks only while the queue is full. Events offered after Close are dropped.
func (d *draftEvents) enqueue(event events.DraftStateChanged) {
	select {
	case <-d.stop:
		d.logger.Warn("Draft state change dropped after shutdown", "workflow_id", event.WorkflowID)
	default:
		select {
		case d.queue <- event:
		case <-d.stop:
			d.logger.Warn("Draft state change dropped after shutdown", "workflow_id", event.WorkflowID)
		}
	}
}

func (d *draftEvents) run() {
	defer close(d.done)

	for {
		select {
		case event := <-d.queue:
			d.publish(event)
		case <-d.stop:
			for {
				select {
				case event := <-d.queue:
					d.publish(event)
				default:
					return
				}
			}
		}
	}
}

func (d *draftEvents) publish(event events.DraftStateChanged) {
	if err := d.publisher.Publish(context.Background(), event.WorkflowID, event); err != nil {
		d.logger.Error("Failed to publish draft state change",
			"workflow_id", event.WorkflowID,
			"error", err)
	}
}

// Close flushes queued events and stops the worker.
func (d *draftEvents) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
	<-d.done
}
