// Package persistence provides the storage abstraction for workflows, roles and versioned documents.
package persistence

import (
	"context"

	"github.com/dukex/flowdraft/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	RoleRepository() RoleRepository
	DocumentRepository() DocumentRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflows and their graphs. GetByID returns
// nil, nil when the workflow does not exist.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)

	// Save creates or updates workflow metadata. The graph is only written
	// when the workflow is created.
	Save(ctx context.Context, workflow *models.Workflow) error

	// SaveGraph replaces the stored graph: entities marked for deletion are
	// dropped, temporary ids get server ids, edge endpoints are rewritten and
	// the workflow version is bumped. It returns the temporary to persisted
	// id mapping.
	SaveGraph(ctx context.Context, workflowID string, graph *models.Graph) (map[models.ID]models.ID, error)

	Delete(ctx context.Context, id string) error
}

type RoleRepository interface {
	List(ctx context.Context) ([]models.Role, error)
	Save(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id string) error
}

// DocumentRepository stores documents and their append-only snapshot history.
// GetByID returns nil, nil when the document does not exist.
type DocumentRepository interface {
	GetAll(ctx context.Context) ([]*models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// Create stores a new document and its first snapshot.
	Create(ctx context.Context, document *models.Document, author string) (*models.VersionSnapshot, error)

	// AppendSnapshot records the next version. A nil content records a legacy
	// snapshot and leaves the document body unchanged.
	AppendSnapshot(ctx context.Context, documentID string, content *string, author string, restoredFrom *int) (*models.Document, *models.VersionSnapshot, error)

	// ListSnapshots returns the history oldest first.
	ListSnapshots(ctx context.Context, documentID string) ([]*models.VersionSnapshot, error)
	GetSnapshot(ctx context.Context, documentID string, version int) (*models.VersionSnapshot, error)
}
