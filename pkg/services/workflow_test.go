package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/flowdraft/pkg/editor"
	"github.com/dukex/flowdraft/pkg/events"
	"github.com/dukex/flowdraft/pkg/mocks"
	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/persistence/file"
	"github.com/dukex/flowdraft/pkg/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var _ editor.Backend = (*Workflow)(nil)

func validGraph() *models.Graph {
	return &models.Graph{
		Nodes: []*models.GraphNode{
			{ID: "1", Name: "Draft", Role: "Author", IsStart: true},
			{ID: "2", Name: "Review", Role: "Editor", IsEnd: true},
		},
		Edges: []*models.GraphEdge{
			{ID: "3", Source: models.IDRef("1"), Target: models.IDRef("2")},
		},
	}
}

func newWorkflowService(t *testing.T, opts ...Option) *Workflow {
	t.Helper()

	opts = append([]Option{WithRoles(roles.FromNames("Author", "Editor"))}, opts...)

	return NewWorkflow(file.NewPersistence(t.TempDir()), opts...)
}

func createWorkflow(t *testing.T, service *Workflow) *models.Workflow {
	t.Helper()

	created, err := service.Create(t.Context(), &models.Workflow{
		Name:  "Article review",
		Graph: validGraph(),
	})
	require.NoError(t, err)

	return created
}

func TestNewWorkflow(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewWorkflow(persistence)

	assert.NotNil(t, service)
	assert.Equal(t, persistence, service.persistence)
	assert.NotNil(t, service.logger)
	assert.NotNil(t, service.tracer)
	assert.Nil(t, service.publisher)
}

func TestWorkflow_HealthCheck(t *testing.T) {
	service := newWorkflowService(t)

	message, ok := service.HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	message, ok = NewWorkflow(nil).HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer not initialized", message)
}

func TestWorkflow_Create(t *testing.T) {
	service := newWorkflowService(t)

	created := createWorkflow(t, service)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Version)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Article review", fetched.Name)
	assert.Len(t, fetched.Graph.Nodes, 2)
}

func TestWorkflow_CreateWithoutGraph(t *testing.T) {
	service := newWorkflowService(t)

	created, err := service.Create(t.Context(), &models.Workflow{Name: "Empty"})
	require.NoError(t, err)

	graph, err := service.LoadGraph(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)
}

func TestWorkflow_CreateValidation(t *testing.T) {
	service := newWorkflowService(t)

	_, err := service.Create(t.Context(), &models.Workflow{Name: "   "})
	assert.ErrorIs(t, err, ErrWorkflowNameRequired)
	assert.True(t, IsValidationError(err))

	graph := validGraph()
	graph.Nodes[1].Role = "Publisher"

	_, err = service.Create(t.Context(), &models.Workflow{Name: "Bad roles", Graph: graph})
	require.ErrorIs(t, err, ErrInvalidGraph)
	assert.True(t, IsValidationError(err))

	var graphErr *GraphValidationError
	require.ErrorAs(t, err, &graphErr)
	assert.False(t, graphErr.Result.IsValid)
	assert.NotEmpty(t, graphErr.Result.Errors)
}

func TestWorkflow_FetchByID_NotFound(t *testing.T) {
	service := newWorkflowService(t)

	workflow, err := service.FetchByID(t.Context(), "non-existent")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.Nil(t, workflow)
	assert.True(t, IsNotFoundError(err))
}

func TestWorkflow_List(t *testing.T) {
	service := newWorkflowService(t)

	createWorkflow(t, service)
	createWorkflow(t, service)

	workflows, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
}

func TestWorkflow_UpdateKeepsGraph(t *testing.T) {
	service := newWorkflowService(t)
	created := createWorkflow(t, service)

	updated, err := service.Update(t.Context(), created.ID, &models.Workflow{
		Name:        "Renamed",
		Description: "New description",
	})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fetched.Name)
	assert.Len(t, fetched.Graph.Nodes, 2)

	_, err = service.Update(t.Context(), "missing", &models.Workflow{Name: "x"})
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflow_Delete(t *testing.T) {
	service := newWorkflowService(t)
	created := createWorkflow(t, service)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err := service.FetchByID(t.Context(), created.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)

	assert.ErrorIs(t, service.Delete(t.Context(), created.ID), ErrWorkflowNotFound)
}

func TestWorkflow_SaveGraph(t *testing.T) {
	bus := &mocks.MockEventBus{}
	service := newWorkflowService(t, WithPublisher(bus))
	created := createWorkflow(t, service)

	graph, err := service.LoadGraph(t.Context(), created.ID)
	require.NoError(t, err)

	graph.Nodes = append(graph.Nodes, &models.GraphNode{ID: "temp_a", Name: "Publish", Role: "Editor"})
	graph.Edges = append(graph.Edges, &models.GraphEdge{
		ID:     "temp_b",
		Source: models.IDRef("2"),
		Target: models.IDRef("temp_a"),
	})

	bus.On("Publish", mock.Anything, created.ID, mock.MatchedBy(func(e events.GraphSaved) bool {
		return e.Version == 2 && e.NodeCount == 3 && e.EdgeCount == 2 && len(e.AssignedID) == 2
	})).Return(nil).Once()

	mapping, err := service.SaveGraph(t.Context(), created.ID, graph)
	require.NoError(t, err)
	assert.Equal(t, map[models.ID]models.ID{"temp_a": "4", "temp_b": "5"}, mapping)

	saved, err := service.LoadGraph(t.Context(), created.ID)
	require.NoError(t, err)
	require.Len(t, saved.Edges, 2)
	assert.Equal(t, models.ID("4"), *saved.Edges[1].Target)

	bus.AssertExpectations(t)
}

func TestWorkflow_SaveGraphRejectsInvalid(t *testing.T) {
	bus := &mocks.MockEventBus{}
	service := newWorkflowService(t, WithPublisher(bus))
	created := createWorkflow(t, service)

	graph := validGraph()
	graph.Nodes[0].IsStart = false

	_, err := service.SaveGraph(t.Context(), created.ID, graph)
	require.ErrorIs(t, err, ErrInvalidGraph)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.Version)

	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkflow_CreateDropsNilEntries(t *testing.T) {
	service := newWorkflowService(t)

	graph := validGraph()
	graph.Nodes = append(graph.Nodes, nil)
	graph.Edges = append(graph.Edges, nil)

	created, err := service.Create(t.Context(), &models.Workflow{Name: "Sparse", Graph: graph})
	require.NoError(t, err)

	stored, err := service.LoadGraph(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Nodes, 2)
	assert.Len(t, stored.Edges, 1)
}

func TestWorkflow_RejectsMalformedIDs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *models.Graph)
	}{
		{name: "node id", mutate: func(g *models.Graph) { g.Nodes[0].ID = "abc" }},
		{name: "edge id", mutate: func(g *models.Graph) { g.Edges[0].ID = "" }},
		{name: "edge endpoint", mutate: func(g *models.Graph) { g.Edges[0].Target = models.IDRef("temp_") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newWorkflowService(t)
			created := createWorkflow(t, service)

			graph := validGraph()
			tt.mutate(graph)

			_, err := service.SaveGraph(t.Context(), created.ID, graph)
			require.ErrorIs(t, err, models.ErrInvalidID)
			assert.True(t, IsValidationError(err))

			_, err = service.Create(t.Context(), &models.Workflow{Name: "Bad ids", Graph: graph})
			assert.ErrorIs(t, err, models.ErrInvalidID)

			fetched, err := service.FetchByID(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, fetched.Version)
		})
	}
}

func TestWorkflow_SaveGraphMissingWorkflow(t *testing.T) {
	service := newWorkflowService(t)

	_, err := service.SaveGraph(t.Context(), "missing", validGraph())
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflow_SaveGraphPublishFailureIsLogged(t *testing.T) {
	bus := &mocks.MockEventBus{}
	service := newWorkflowService(t, WithPublisher(bus))
	created := createWorkflow(t, service)

	bus.On("Publish", mock.Anything, created.ID, mock.Anything).Return(errors.New("broker down"))

	_, err := service.SaveGraph(t.Context(), created.ID, validGraph())
	assert.NoError(t, err)
}

func TestWorkflow_SaveGraphRepositoryError(t *testing.T) {
	persistence := mocks.NewMockPersistence()
	persistence.GetMockWorkflowRepository().
		On("SaveGraph", mock.Anything, "wf-1", mock.Anything).
		Return(nil, errors.New("disk full"))

	service := NewWorkflow(persistence, WithRoles(roles.FromNames("Author", "Editor")))

	_, err := service.SaveGraph(context.Background(), "wf-1", validGraph())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, IsValidationError(err))
}

func TestWorkflow_ValidateGraphUsesRoster(t *testing.T) {
	service := newWorkflowService(t)

	graph := validGraph()
	assert.True(t, service.ValidateGraph(t.Context(), graph).IsValid)

	graph.Nodes[0].Role = "Unknown"
	result := service.ValidateGraph(t.Context(), graph)
	assert.False(t, result.IsValid)
}

func TestWorkflow_DraftSessionRoundTrip(t *testing.T) {
	service := newWorkflowService(t)
	created := createWorkflow(t, service)

	session, err := editor.Open(t.Context(), created.ID, service, editor.Config{
		Roles: roles.FromNames("Author", "Editor"),
	})
	require.NoError(t, err)
	defer session.Close()

	_, err = session.UpdateNode("2", editor.NodePatch{Description: ptr("Final check")})
	require.NoError(t, err)
	assert.True(t, session.Dirty())

	outcome, err := session.Save(t.Context(), editor.SaveOptions{})
	require.NoError(t, err)
	assert.Equal(t, editor.SaveStatusSaved, outcome.Status)
	assert.False(t, session.Dirty())

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.Version)
	assert.Equal(t, "Final check", fetched.Graph.Nodes[1].Description)
}

func ptr[T any](v T) *T {
	return &v
}
