package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/flowdraft/pkg/events"
	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/otelhelper"
	"github.com/dukex/flowdraft/pkg/persistence"
	"github.com/dukex/flowdraft/pkg/roles"
	"github.com/dukex/flowdraft/pkg/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type Workflow struct {
	persistence persistence.Persistence
	options
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, opts ...Option) *Workflow {
	return &Workflow{
		persistence: persistence,
		options:     newOptions("workflow_service", opts),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every workflow.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// Create adds a new workflow. A graph sent along is validated like a save.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	workflow.Name = strings.TrimSpace(workflow.Name)
	if workflow.Name == "" {
		return nil, ErrWorkflowNameRequired
	}

	workflow.Graph = workflow.Graph.Clone()

	if err := checkGraphIDs("create_workflow", workflow.Graph); err != nil {
		return nil, err
	}

	if len(workflow.Graph.Nodes) > 0 {
		result := w.ValidateGraph(ctx, workflow.Graph)
		if !result.IsValid {
			return nil, &GraphValidationError{Result: result}
		}
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.Version = 1
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	err := w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update modifies workflow metadata. The graph only changes through SaveGraph.
func (w *Workflow) Update(ctx context.Context, workflowID string, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.Name = strings.TrimSpace(workflow.Name)
	if workflow.Name == "" {
		return nil, ErrWorkflowNameRequired
	}

	workflow.ID = workflowID
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	err = w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	if _, err := w.FetchByID(ctx, workflowID); err != nil {
		return err
	}

	err := w.persistence.WorkflowRepository().Delete(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// LoadGraph returns the stored graph of a workflow.
func (w *Workflow) LoadGraph(ctx context.Context, workflowID string) (*models.Graph, error) {
	workflow, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return workflow.Graph.Clone(), nil
}

// ValidateGraph runs the aggregate validator against the current role roster.
func (w *Workflow) ValidateGraph(ctx context.Context, graph *models.Graph) models.ValidationResult {
	return validation.ValidateGraph(graph, roles.Resolve(ctx, w.logger, w.roles))
}

// SaveGraph validates graph again and replaces the stored one. It returns the
// ids assigned to entities that only had temporary ids.
func (w *Workflow) SaveGraph(ctx context.Context, workflowID string, graph *models.Graph) (map[models.ID]models.ID, error) {
	graph = graph.Clone()

	if err := checkGraphIDs("save_graph", graph); err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.save_graph",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.Int(otelhelper.NodeCountKey, len(graph.ActiveNodes())),
		attribute.Int(otelhelper.EdgeCountKey, len(graph.ActiveEdges())),
	)
	defer span.End()

	result := w.ValidateGraph(ctx, graph)
	if !result.IsValid {
		err := &GraphValidationError{Result: result}
		otelhelper.SetError(span, err)

		return nil, err
	}

	mapping, err := w.persistence.WorkflowRepository().SaveGraph(ctx, workflowID, graph)
	if err != nil {
		otelhelper.SetError(span, err)

		if persistence.IsWorkflowNotFound(err) {
			return nil, ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to save workflow graph: %w", err)
	}

	saved, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.Int(otelhelper.WorkflowVersionKey, saved.Version))

	w.logger.InfoContext(ctx, "workflow graph saved",
		"workflow_id", workflowID,
		"version", saved.Version,
		"assigned_ids", len(mapping))

	w.publishGraphSaved(ctx, saved, mapping)

	return mapping, nil
}

// checkGraphIDs rejects ids that are neither persisted integers nor temporary ids.
func checkGraphIDs(op string, graph *models.Graph) error {
	invalid := func(kind string, id models.ID) error {
		return &ServiceError{
			Op:      op,
			Code:    "INVALID_ID",
			Message: fmt.Sprintf("%s id %q must be an integer or start with %q", kind, id, models.TemporaryIDPrefix),
			Err:     models.ErrInvalidID,
		}
	}

	for _, n := range graph.Nodes {
		if !validation.IsValidNodeID(n.ID) {
			return invalid("step", n.ID)
		}
	}

	for _, e := range graph.Edges {
		if !validation.IsValidNodeID(e.ID) {
			return invalid("transition", e.ID)
		}

		for _, endpoint := range []*models.ID{e.Source, e.Target} {
			if endpoint != nil && !validation.IsValidNodeID(*endpoint) {
				return invalid("step", *endpoint)
			}
		}
	}

	return nil
}

func (w *Workflow) publishGraphSaved(ctx context.Context, workflow *models.Workflow, mapping map[models.ID]models.ID) {
	if w.publisher == nil {
		return
	}

	assigned := make(map[string]string, len(mapping))
	for temp, id := range mapping {
		assigned[temp.String()] = id.String()
	}

	event := events.GraphSaved{
		BaseEvent:  events.NewBaseEvent(events.GraphSavedEvent),
		WorkflowID: workflow.ID,
		Version:    workflow.Version,
		NodeCount:  len(workflow.Graph.ActiveNodes()),
		EdgeCount:  len(workflow.Graph.ActiveEdges()),
		AssignedID: assigned,
	}

	if err := w.publisher.Publish(ctx, workflow.ID, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to publish graph saved event",
			"workflow_id", workflow.ID,
			"error", err)
	}
}
