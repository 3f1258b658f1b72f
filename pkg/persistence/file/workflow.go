package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/persistence"
	"github.com/google/uuid"
)

// workflowRecord is the on-disk shape. LastEntityID keeps graph ids unique
// even after the entity holding the highest id is deleted.
type workflowRecord struct {
	*models.Workflow

	LastEntityID int64 `json:"last_entity_id"`
}

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	mu   sync.Mutex
	root string
}

func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) path(id string) string {
	return filepath.Join(wr.dir(), filepath.Base(id)+".json")
}

// GetAll returns every workflow, oldest first.
func (wr *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := listIDs(wr.dir())
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := wr.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if workflow != nil {
			workflows = append(workflows, workflow)
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.Workflow, error) {
	record, err := wr.load(workflowID)
	if err != nil || record == nil {
		return nil, err
	}

	return record.Workflow, nil
}

// Save creates a workflow or updates its metadata, keeping the stored graph.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if workflow.ID == "" {
		workflow.ID = uuid.NewString()
	}

	existing, err := wr.load(workflow.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	workflow.UpdatedAt = now

	record := &workflowRecord{Workflow: workflow}

	if existing != nil {
		workflow.CreatedAt = existing.CreatedAt
		workflow.Graph = existing.Graph
		workflow.Version = existing.Version
		record.LastEntityID = existing.LastEntityID
	} else {
		if workflow.CreatedAt.IsZero() {
			workflow.CreatedAt = now
		}

		workflow.Version = max(workflow.Version, 1)

		graph := workflow.Graph.Clone().Compact()
		record.LastEntityID = graph.MaxPersistedID()

		if _, err := graph.AssignIDs(record.nextID); err != nil {
			return persistence.NewWorkflowError("Save", workflow.ID, err)
		}

		workflow.Graph = graph
	}

	return writeJSON(wr.path(workflow.ID), record)
}

func (wr *WorkflowRepository) SaveGraph(_ context.Context, workflowID string, graph *models.Graph) (map[models.ID]models.ID, error) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	record, err := wr.load(workflowID)
	if err != nil {
		return nil, persistence.NewWorkflowError("SaveGraph", workflowID, err)
	}

	if record == nil {
		return nil, persistence.NewWorkflowError("SaveGraph", workflowID, persistence.ErrWorkflowNotFound)
	}

	compacted := graph.Compact()
	record.LastEntityID = max(record.LastEntityID, compacted.MaxPersistedID())

	mapping, err := compacted.AssignIDs(record.nextID)
	if err != nil {
		return nil, persistence.NewWorkflowError("SaveGraph", workflowID, err)
	}

	record.Graph = compacted
	record.Version++
	record.UpdatedAt = time.Now().UTC()

	if err := writeJSON(wr.path(workflowID), record); err != nil {
		return nil, persistence.NewWorkflowError("SaveGraph", workflowID, err)
	}

	return mapping, nil
}

// Delete removes a workflow by its ID.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(wr.path(id))

	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

func (wr *WorkflowRepository) load(workflowID string) (*workflowRecord, error) {
	record := &workflowRecord{Workflow: &models.Workflow{}}

	found, err := readJSON(wr.path(workflowID), record)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	if !found {
		return nil, nil
	}

	if record.Graph == nil {
		record.Graph = &models.Graph{Nodes: []*models.GraphNode{}, Edges: []*models.GraphEdge{}}
	}

	return record, nil
}

func (r *workflowRecord) nextID() (int64, error) {
	r.LastEntityID++

	return r.LastEntityID, nil
}
