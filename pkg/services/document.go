package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/flowdraft/pkg/diff"
	"github.com/dukex/flowdraft/pkg/events"
	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/otelhelper"
	"github.com/dukex/flowdraft/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// ContentUnavailableMessage is shown in place of a diff when a legacy
// snapshot has no stored body.
const ContentUnavailableMessage = "Content for this version is not available. It was saved before version history kept full text."

type Document struct {
	persistence persistence.Persistence
	differ      *diff.Differ
	options
}

// NewDocument creates a document service. A nil differ uses the default ceiling.
func NewDocument(persistence persistence.Persistence, differ *diff.Differ, opts ...Option) *Document {
	if differ == nil {
		differ = diff.NewDiffer(diff.DefaultMaxCells)
	}

	return &Document{
		persistence: persistence,
		differ:      differ,
		options:     newOptions("document_service", opts),
	}
}

// Comparison is the diff between two versions of one document. When either
// side has no content, ContentUnavailable is set and Runs is empty.
type Comparison struct {
	DocumentID         string           `json:"document_id"`
	From               int              `json:"from"`
	To                 int              `json:"to"`
	ContentUnavailable bool             `json:"content_unavailable"`
	Message            string           `json:"message,omitempty"`
	Granularity        diff.Granularity `json:"granularity,omitempty"`
	Runs               []diff.Run       `json:"runs"`
	Stats              diff.Stats       `json:"stats"`
}

func (d *Document) List(ctx context.Context) ([]*models.Document, error) {
	documents, err := d.persistence.DocumentRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return documents, nil
}

func (d *Document) FetchByID(ctx context.Context, id string) (*models.Document, error) {
	document, err := d.persistence.DocumentRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if document == nil {
		return nil, ErrDocumentNotFound
	}

	return document, nil
}

// Create stores a document with its first snapshot.
func (d *Document) Create(ctx context.Context, title, content, author string) (*models.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrDocumentTitleMissing
	}

	document := &models.Document{Title: title, Content: content}

	if _, err := d.persistence.DocumentRepository().Create(ctx, document, author); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return document, nil
}

// Update records content as the next version.
func (d *Document) Update(ctx context.Context, id, content, author string) (*models.Document, *models.VersionSnapshot, error) {
	document, snapshot, err := d.persistence.DocumentRepository().AppendSnapshot(ctx, id, &content, author, nil)
	if err != nil {
		if persistence.IsDocumentNotFound(err) {
			return nil, nil, ErrDocumentNotFound
		}

		return nil, nil, fmt.Errorf("failed to update document: %w", err)
	}

	return document, snapshot, nil
}

// Versions lists the document history, oldest first.
func (d *Document) Versions(ctx context.Context, id string) ([]*models.VersionSnapshot, error) {
	snapshots, err := d.persistence.DocumentRepository().ListSnapshots(ctx, id)
	if err != nil {
		if persistence.IsDocumentNotFound(err) {
			return nil, ErrDocumentNotFound
		}

		return nil, fmt.Errorf("failed to list document versions: %w", err)
	}

	return snapshots, nil
}

// Compare diffs version from against version to.
func (d *Document) Compare(ctx context.Context, id string, from, to int) (*Comparison, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "document.compare",
		attribute.String(otelhelper.DocumentIDKey, id),
		attribute.Int(otelhelper.DocumentVersionKey, to),
	)
	defer span.End()

	if from < 1 || to < 1 {
		err := NewValidationError("Compare", "INVALID_VERSION",
			fmt.Sprintf("versions must be positive, got %d and %d", from, to), ErrInvalidVersion)
		otelhelper.SetError(span, err)

		return nil, err
	}

	left, err := d.snapshot(ctx, id, from)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	right, err := d.snapshot(ctx, id, to)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	comparison := &Comparison{DocumentID: id, From: from, To: to, Runs: []diff.Run{}}

	if !left.HasContent() || !right.HasContent() {
		comparison.ContentUnavailable = true
		comparison.Message = ContentUnavailableMessage
		span.SetAttributes(attribute.Bool(otelhelper.ContentUnavailableKey, true))

		return comparison, nil
	}

	result := d.differ.Compare(*left.Content, *right.Content)
	span.SetAttributes(attribute.String(otelhelper.DiffGranularityKey, string(result.Granularity)))

	comparison.Granularity = result.Granularity
	comparison.Runs = result.Runs
	comparison.Stats = diff.Summarize(result.Runs)

	if result.Granularity == diff.GranularityLine {
		d.logger.InfoContext(ctx, "document diff fell back to line granularity",
			"document_id", id,
			"from", from,
			"to", to)
	}

	return comparison, nil
}

// Restore records the content of version as a new version. History is never rewritten.
func (d *Document) Restore(ctx context.Context, id string, version int, author string) (*models.Document, *models.VersionSnapshot, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "document.restore",
		attribute.String(otelhelper.DocumentIDKey, id),
		attribute.Int(otelhelper.DocumentVersionKey, version),
	)
	defer span.End()

	if version < 1 {
		err := NewValidationError("Restore", "INVALID_VERSION",
			fmt.Sprintf("version must be positive, got %d", version), ErrInvalidVersion)
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	source, err := d.snapshot(ctx, id, version)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	if !source.HasContent() {
		err := &ServiceError{
			Op:      "Restore",
			Code:    "CONTENT_UNAVAILABLE",
			Message: fmt.Sprintf("version %d has no stored content", version),
			Err:     ErrContentUnavailable,
		}
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	restoredFrom := version

	document, snapshot, err := d.persistence.DocumentRepository().AppendSnapshot(ctx, id, source.Content, author, &restoredFrom)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, nil, fmt.Errorf("failed to restore document: %w", err)
	}

	d.logger.InfoContext(ctx, "document restored",
		"document_id", id,
		"from_version", version,
		"new_version", snapshot.Version)

	d.publishRestored(ctx, id, version, snapshot)

	return document, snapshot, nil
}

func (d *Document) snapshot(ctx context.Context, id string, version int) (*models.VersionSnapshot, error) {
	snapshot, err := d.persistence.DocumentRepository().GetSnapshot(ctx, id, version)

	switch {
	case persistence.IsDocumentNotFound(err):
		return nil, ErrDocumentNotFound
	case persistence.IsSnapshotNotFound(err):
		return nil, ErrSnapshotNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to fetch document version: %w", err)
	case snapshot == nil:
		return nil, ErrSnapshotNotFound
	}

	return snapshot, nil
}

func (d *Document) publishRestored(ctx context.Context, id string, from int, snapshot *models.VersionSnapshot) {
	if d.publisher == nil {
		return
	}

	event := events.DocumentRestored{
		BaseEvent:   events.NewBaseEvent(events.DocumentRestoredEvent),
		DocumentID:  id,
		FromVersion: from,
		NewVersion:  snapshot.Version,
		RestoredBy:  snapshot.Author,
	}

	if err := d.publisher.Publish(ctx, id, event); err != nil {
		d.logger.ErrorContext(ctx, "failed to publish document restored event",
			"document_id", id,
			"error", err)
	}
}
