package models

import "time"

// Document is an article whose history is kept as snapshots.
type Document struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"   validate:"required,max=255"`
	Content        string    `json:"content"`
	CurrentVersion int       `json:"current_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// VersionSnapshot is one read-only revision of a document. A nil Content marks
// a legacy revision stored before bodies were snapshotted.
type VersionSnapshot struct {
	ID           int64     `json:"id"`
	DocumentID   string    `json:"document_id"`
	Version      int       `json:"version"`
	Content      *string   `json:"content"`
	Author       string    `json:"author"`
	RestoredFrom *int      `json:"restored_from,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasContent reports whether the snapshot carries a body.
func (s *VersionSnapshot) HasContent() bool {
	return s != nil && s.Content != nil
}
