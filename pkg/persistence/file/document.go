package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/persistence"
	"github.com/google/uuid"
)

type documentRecord struct {
	Document  *models.Document          `json:"document"`
	Snapshots []*models.VersionSnapshot `json:"snapshots"`
}

// DocumentRepository stores each document with its full history in one file.
type DocumentRepository struct {
	mu   sync.Mutex
	root string
}

func NewDocumentRepository(root string) *DocumentRepository {
	return &DocumentRepository{root: root}
}

func (dr *DocumentRepository) dir() string {
	return filepath.Join(dr.root, "documents")
}

func (dr *DocumentRepository) path(id string) string {
	return filepath.Join(dr.dir(), filepath.Base(id)+".json")
}

func (dr *DocumentRepository) GetAll(_ context.Context) ([]*models.Document, error) {
	ids, err := listIDs(dr.dir())
	if err != nil {
		return nil, fmt.Errorf("failed to list document files: %w", err)
	}

	documents := make([]*models.Document, 0, len(ids))

	for _, id := range ids {
		record, err := dr.load(id)
		if err != nil {
			return nil, err
		}

		if record != nil {
			documents = append(documents, record.Document)
		}
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].CreatedAt.Before(documents[j].CreatedAt)
	})

	return documents, nil
}

func (dr *DocumentRepository) GetByID(_ context.Context, id string) (*models.Document, error) {
	record, err := dr.load(id)
	if err != nil || record == nil {
		return nil, err
	}

	return record.Document, nil
}

func (dr *DocumentRepository) Create(_ context.Context, document *models.Document, author string) (*models.VersionSnapshot, error) {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	if document.ID == "" {
		document.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	document.CurrentVersion = 1
	document.CreatedAt = now
	document.UpdatedAt = now

	content := document.Content
	snapshot := &models.VersionSnapshot{
		ID:         1,
		DocumentID: document.ID,
		Version:    1,
		Content:    &content,
		Author:     author,
		CreatedAt:  now,
	}

	record := &documentRecord{Document: document, Snapshots: []*models.VersionSnapshot{snapshot}}
	if err := writeJSON(dr.path(document.ID), record); err != nil {
		return nil, persistence.NewDocumentError("Create", document.ID, 0, err)
	}

	return snapshot, nil
}

func (dr *DocumentRepository) AppendSnapshot(_ context.Context, documentID string, content *string, author string, restoredFrom *int) (*models.Document, *models.VersionSnapshot, error) {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	record, err := dr.load(documentID)
	if err != nil {
		return nil, nil, persistence.NewDocumentError("AppendSnapshot", documentID, 0, err)
	}

	if record == nil {
		return nil, nil, persistence.NewDocumentError("AppendSnapshot", documentID, 0, persistence.ErrDocumentNotFound)
	}

	now := time.Now().UTC()
	doc := record.Document
	doc.CurrentVersion++
	doc.UpdatedAt = now

	snapshot := &models.VersionSnapshot{
		ID:           int64(len(record.Snapshots) + 1),
		DocumentID:   documentID,
		Version:      doc.CurrentVersion,
		Author:       author,
		RestoredFrom: restoredFrom,
		CreatedAt:    now,
	}

	if content != nil {
		body := *content
		snapshot.Content = &body
		doc.Content = body
	}

	record.Snapshots = append(record.Snapshots, snapshot)

	if err := writeJSON(dr.path(documentID), record); err != nil {
		return nil, nil, persistence.NewDocumentError("AppendSnapshot", documentID, 0, err)
	}

	return doc, snapshot, nil
}

func (dr *DocumentRepository) ListSnapshots(_ context.Context, documentID string) ([]*models.VersionSnapshot, error) {
	record, err := dr.load(documentID)
	if err != nil {
		return nil, persistence.NewDocumentError("ListSnapshots", documentID, 0, err)
	}

	if record == nil {
		return nil, persistence.NewDocumentError("ListSnapshots", documentID, 0, persistence.ErrDocumentNotFound)
	}

	return record.Snapshots, nil
}

func (dr *DocumentRepository) GetSnapshot(_ context.Context, documentID string, version int) (*models.VersionSnapshot, error) {
	record, err := dr.load(documentID)
	if err != nil {
		return nil, persistence.NewDocumentError("GetSnapshot", documentID, version, err)
	}

	if record == nil {
		return nil, persistence.NewDocumentError("GetSnapshot", documentID, version, persistence.ErrDocumentNotFound)
	}

	for _, s := range record.Snapshots {
		if s.Version == version {
			return s, nil
		}
	}

	return nil, persistence.NewDocumentError("GetSnapshot", documentID, version, persistence.ErrSnapshotNotFound)
}

func (dr *DocumentRepository) load(id string) (*documentRecord, error) {
	record := &documentRecord{}

	found, err := readJSON(dr.path(id), record)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", id, err)
	}

	if !found {
		return nil, nil
	}

	return record, nil
}
