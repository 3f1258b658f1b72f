package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/persistence"
	"github.com/google/uuid"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const selectWorkflow = `
	SELECT
		id
	  , name
	  , description
	  , owner
	  , version
	  , metadata
	  , created_at
	  , updated_at
	FROM workflows
`

// GetAll returns all workflows from the database.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, selectWorkflow+" ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			closeRows(ctx, r.logger, rows)

			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	closeRows(ctx, r.logger, rows)

	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	for _, workflow := range workflows {
		workflow.Graph, err = r.loadGraph(ctx, r.db, workflow.ID)
		if err != nil {
			return nil, err
		}
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, selectWorkflow+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	workflow.Graph, err = r.loadGraph(ctx, r.db, workflow.ID)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Save creates a workflow or updates its metadata. The graph is written only on creation.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	workflow.UpdatedAt = now

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	metadataJSON, err := json.Marshal(workflow.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO workflows (id, name, description, owner, metadata, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, GREATEST($6, 1), $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			owner = EXCLUDED.owner,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
		RETURNING version, created_at, (xmax = 0) AS inserted
	`

	var inserted bool

	err = tx.QueryRowContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		workflow.Owner,
		metadataJSON,
		workflow.Version,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	).Scan(&workflow.Version, &workflow.CreatedAt, &inserted)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	if inserted {
		graph := workflow.Graph.Clone().Compact()

		if _, err := r.assignIDs(ctx, tx, graph); err != nil {
			return persistence.NewWorkflowError("Save", workflow.ID, err)
		}

		if err := r.writeGraph(ctx, tx, workflow.ID, graph); err != nil {
			return persistence.NewWorkflowError("Save", workflow.ID, err)
		}

		workflow.Graph = graph
	} else {
		workflow.Graph, err = r.loadGraph(ctx, tx, workflow.ID)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *WorkflowRepository) SaveGraph(ctx context.Context, workflowID string, graph *models.Graph) (map[models.ID]models.ID, error) {
	if _, err := uuid.Parse(workflowID); err != nil {
		return nil, persistence.NewWorkflowError("SaveGraph", workflowID, persistence.ErrWorkflowNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	var locked string

	err = tx.QueryRowContext(ctx, "SELECT id FROM workflows WHERE id = $1 FOR UPDATE", workflowID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewWorkflowError("SaveGraph", workflowID, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("SaveGraph", workflowID, err)
	}

	compacted := graph.Compact()

	mapping, err := r.assignIDs(ctx, tx, compacted)
	if err != nil {
		return nil, persistence.NewWorkflowError("SaveGraph", workflowID, err)
	}

	if err := r.writeGraph(ctx, tx, workflowID, compacted); err != nil {
		return nil, persistence.NewWorkflowError("SaveGraph", workflowID, err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE workflows SET version = version + 1, updated_at = $2 WHERE id = $1",
		workflowID, time.Now().UTC())
	if err != nil {
		return nil, persistence.NewWorkflowError("SaveGraph", workflowID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return mapping, nil
}

// Delete removes a workflow; nodes and edges cascade.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	_, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

// assignIDs draws server ids from the graph_entity_ids sequence, first moving
// the sequence past any persisted id already in the graph.
func (r *WorkflowRepository) assignIDs(ctx context.Context, tx *sql.Tx, graph *models.Graph) (map[models.ID]models.ID, error) {
	if highest := graph.MaxPersistedID(); highest > 0 {
		_, err := tx.ExecContext(ctx,
			"SELECT setval('graph_entity_ids', GREATEST((SELECT last_value FROM graph_entity_ids), $1))", highest)
		if err != nil {
			return nil, fmt.Errorf("failed to advance id sequence: %w", err)
		}
	}

	return graph.AssignIDs(func() (int64, error) {
		var id int64

		err := tx.QueryRowContext(ctx, "SELECT nextval('graph_entity_ids')").Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to allocate graph id: %w", err)
		}

		return id, nil
	})
}

func (r *WorkflowRepository) writeGraph(ctx context.Context, tx *sql.Tx, workflowID string, graph *models.Graph) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM workflow_edges WHERE workflow_id = $1", workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete existing edges: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_nodes WHERE workflow_id = $1", workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete existing nodes: %w", err)
	}

	nodeQuery := `
		INSERT INTO workflow_nodes (workflow_id, id, position, name, role, description, is_start, is_end, position_x, position_y)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for i, node := range graph.Nodes {
		id, ok := node.ID.Int64()
		if !ok {
			return fmt.Errorf("%w: node %q", models.ErrInvalidID, node.ID)
		}

		_, err = tx.ExecContext(ctx, nodeQuery,
			workflowID, id, i, node.Name, node.Role, node.Description,
			node.IsStart, node.IsEnd, node.PositionX, node.PositionY)
		if err != nil {
			return fmt.Errorf("failed to insert node %s: %w", node.ID, err)
		}
	}

	edgeQuery := `
		INSERT INTO workflow_edges (workflow_id, id, position, source_id, target_id, name)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for i, edge := range graph.Edges {
		id, ok := edge.ID.Int64()
		if !ok {
			return fmt.Errorf("%w: edge %q", models.ErrInvalidID, edge.ID)
		}

		_, err = tx.ExecContext(ctx, edgeQuery,
			workflowID, id, i, endpoint(edge.Source), endpoint(edge.Target), edge.Name)
		if err != nil {
			return fmt.Errorf("failed to insert edge %s: %w", edge.ID, err)
		}
	}

	return nil
}

func (r *WorkflowRepository) loadGraph(ctx context.Context, q querier, workflowID string) (*models.Graph, error) {
	graph := &models.Graph{Nodes: []*models.GraphNode{}, Edges: []*models.GraphEdge{}}

	nodeRows, err := q.QueryContext(ctx, `
		SELECT id, name, role, description, is_start, is_end, position_x, position_y
		FROM workflow_nodes
		WHERE workflow_id = $1
		ORDER BY position
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow nodes: %w", err)
	}

	for nodeRows.Next() {
		var (
			id   int64
			node models.GraphNode
		)

		err := nodeRows.Scan(&id, &node.Name, &node.Role, &node.Description,
			&node.IsStart, &node.IsEnd, &node.PositionX, &node.PositionY)
		if err != nil {
			closeRows(ctx, r.logger, nodeRows)

			return nil, fmt.Errorf("failed to scan workflow node: %w", err)
		}

		node.ID = models.PersistedID(id)
		graph.Nodes = append(graph.Nodes, &node)
	}

	err = nodeRows.Err()
	closeRows(ctx, r.logger, nodeRows)

	if err != nil {
		return nil, fmt.Errorf("error iterating workflow nodes: %w", err)
	}

	edgeRows, err := q.QueryContext(ctx, `
		SELECT id, source_id, target_id, name
		FROM workflow_edges
		WHERE workflow_id = $1
		ORDER BY position
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow edges: %w", err)
	}

	defer closeRows(ctx, r.logger, edgeRows)

	for edgeRows.Next() {
		var (
			id             int64
			source, target sql.NullInt64
			edge           models.GraphEdge
		)

		if err := edgeRows.Scan(&id, &source, &target, &edge.Name); err != nil {
			return nil, fmt.Errorf("failed to scan workflow edge: %w", err)
		}

		edge.ID = models.PersistedID(id)

		if source.Valid {
			edge.Source = models.IDRef(models.PersistedID(source.Int64))
		}

		if target.Valid {
			edge.Target = models.IDRef(models.PersistedID(target.Int64))
		}

		graph.Edges = append(graph.Edges, &edge)
	}

	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflow edges: %w", err)
	}

	return graph, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row scanner) (*models.Workflow, error) {
	var (
		workflow     models.Workflow
		owner        sql.NullString
		metadataJSON []byte
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&owner,
		&workflow.Version,
		&metadataJSON,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Owner = owner.String

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &workflow.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &workflow, nil
}

func endpoint(id *models.ID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}

	v, ok := id.Int64()

	return sql.NullInt64{Int64: v, Valid: ok}
}
