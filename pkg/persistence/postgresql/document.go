package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/persistence"
	"github.com/google/uuid"
)

type DocumentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewDocumentRepository(db *sql.DB, logger *slog.Logger) *DocumentRepository {
	return &DocumentRepository{db: db, logger: logger}
}

const selectDocument = `
	SELECT id, title, content, current_version, created_at, updated_at
	FROM documents
`

const selectSnapshot = `
	SELECT id, document_id, version, content, author, restored_from, created_at
	FROM document_snapshots
`

func (r *DocumentRepository) GetAll(ctx context.Context) ([]*models.Document, error) {
	rows, err := r.db.QueryContext(ctx, selectDocument+" ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	documents := make([]*models.Document, 0)

	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		documents = append(documents, document)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return documents, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	document, err := scanDocument(r.db.QueryRowContext(ctx, selectDocument+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	return document, nil
}

func (r *DocumentRepository) Create(ctx context.Context, document *models.Document, author string) (*models.VersionSnapshot, error) {
	if document.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate document ID: %w", err)
		}

		document.ID = id.String()
	}

	now := time.Now().UTC()
	document.CurrentVersion = 1
	document.CreatedAt = now
	document.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, current_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, document.ID, document.Title, document.Content, document.CurrentVersion, document.CreatedAt, document.UpdatedAt)
	if err != nil {
		return nil, persistence.NewDocumentError("Create", document.ID, 0, err)
	}

	content := document.Content

	snapshot, err := insertSnapshot(ctx, tx, document.ID, 1, &content, author, nil, now)
	if err != nil {
		return nil, persistence.NewDocumentError("Create", document.ID, 0, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return snapshot, nil
}

func (r *DocumentRepository) AppendSnapshot(ctx context.Context, documentID string, content *string, author string, restoredFrom *int) (*models.Document, *models.VersionSnapshot, error) {
	if _, err := uuid.Parse(documentID); err != nil {
		return nil, nil, persistence.NewDocumentError("AppendSnapshot", documentID, 0, persistence.ErrDocumentNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	document, err := scanDocument(tx.QueryRowContext(ctx, selectDocument+" WHERE id = $1 FOR UPDATE", documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, persistence.NewDocumentError("AppendSnapshot", documentID, 0, persistence.ErrDocumentNotFound)
	}

	if err != nil {
		return nil, nil, persistence.NewDocumentError("AppendSnapshot", documentID, 0, err)
	}

	now := time.Now().UTC()
	document.CurrentVersion++
	document.UpdatedAt = now

	if content != nil {
		document.Content = *content
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE documents SET content = $2, current_version = $3, updated_at = $4 WHERE id = $1",
		documentID, document.Content, document.CurrentVersion, now)
	if err != nil {
		return nil, nil, persistence.NewDocumentError("AppendSnapshot", documentID, 0, err)
	}

	snapshot, err := insertSnapshot(ctx, tx, documentID, document.CurrentVersion, content, author, restoredFrom, now)
	if err != nil {
		return nil, nil, persistence.NewDocumentError("AppendSnapshot", documentID, 0, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return document, snapshot, nil
}

func (r *DocumentRepository) ListSnapshots(ctx context.Context, documentID string) ([]*models.VersionSnapshot, error) {
	document, err := r.GetByID(ctx, documentID)
	if err != nil {
		return nil, persistence.NewDocumentError("ListSnapshots", documentID, 0, err)
	}

	if document == nil {
		return nil, persistence.NewDocumentError("ListSnapshots", documentID, 0, persistence.ErrDocumentNotFound)
	}

	rows, err := r.db.QueryContext(ctx, selectSnapshot+" WHERE document_id = $1 ORDER BY version", documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	snapshots := make([]*models.VersionSnapshot, 0)

	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

func (r *DocumentRepository) GetSnapshot(ctx context.Context, documentID string, version int) (*models.VersionSnapshot, error) {
	document, err := r.GetByID(ctx, documentID)
	if err != nil {
		return nil, persistence.NewDocumentError("GetSnapshot", documentID, version, err)
	}

	if document == nil {
		return nil, persistence.NewDocumentError("GetSnapshot", documentID, version, persistence.ErrDocumentNotFound)
	}

	snapshot, err := scanSnapshot(r.db.QueryRowContext(ctx,
		selectSnapshot+" WHERE document_id = $1 AND version = $2", documentID, version))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewDocumentError("GetSnapshot", documentID, version, persistence.ErrSnapshotNotFound)
	}

	if err != nil {
		return nil, persistence.NewDocumentError("GetSnapshot", documentID, version, err)
	}

	return snapshot, nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, documentID string, version int, content *string, author string, restoredFrom *int, at time.Time) (*models.VersionSnapshot, error) {
	snapshot := &models.VersionSnapshot{
		DocumentID:   documentID,
		Version:      version,
		Content:      content,
		Author:       author,
		RestoredFrom: restoredFrom,
		CreatedAt:    at,
	}

	var body sql.NullString
	if content != nil {
		body = sql.NullString{String: *content, Valid: true}
	}

	var from sql.NullInt32
	if restoredFrom != nil {
		from = sql.NullInt32{Int32: int32(*restoredFrom), Valid: true}
	}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO document_snapshots (document_id, version, content, author, restored_from, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, documentID, version, body, author, from, at).Scan(&snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return snapshot, nil
}

func scanDocument(row scanner) (*models.Document, error) {
	var document models.Document

	err := row.Scan(
		&document.ID,
		&document.Title,
		&document.Content,
		&document.CurrentVersion,
		&document.CreatedAt,
		&document.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &document, nil
}

func scanSnapshot(row scanner) (*models.VersionSnapshot, error) {
	var (
		snapshot models.VersionSnapshot
		content  sql.NullString
		from     sql.NullInt32
	)

	err := row.Scan(
		&snapshot.ID,
		&snapshot.DocumentID,
		&snapshot.Version,
		&content,
		&snapshot.Author,
		&from,
		&snapshot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if content.Valid {
		snapshot.Content = &content.String
	}

	if from.Valid {
		v := int(from.Int32)
		snapshot.RestoredFrom = &v
	}

	return &snapshot, nil
}
