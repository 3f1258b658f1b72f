// Package events defines event types published when workflow graphs, drafts and documents change.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "flowdraft.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow graph events.
	GraphSavedEvent EventType = "workflow.graph_saved"

	// Draft editing session events.
	DraftStateChangedEvent EventType = "draft.state_changed"

	// Document history events.
	DocumentRestoredEvent EventType = "document.restored"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a fresh id and the current time.
func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

type GraphSaved struct {
	BaseEvent

	WorkflowID string            `json:"workflow_id"`
	Version    int               `json:"version"`
	NodeCount  int               `json:"node_count"`
	EdgeCount  int               `json:"edge_count"`
	AssignedID map[string]string `json:"assigned_ids,omitempty"` // temporary id -> persisted id
}

func (e GraphSaved) GetType() EventType {
	return GraphSavedEvent
}

type DraftStateChanged struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Dirty      bool   `json:"dirty"`
}

func (e DraftStateChanged) GetType() EventType {
	return DraftStateChangedEvent
}

type DocumentRestored struct {
	BaseEvent

	DocumentID  string `json:"document_id"`
	FromVersion int    `json:"from_version"`
	NewVersion  int    `json:"new_version"`
	RestoredBy  string `json:"restored_by"`
}

func (e DocumentRestored) GetType() EventType {
	return DocumentRestoredEvent
}
