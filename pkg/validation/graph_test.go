package validation

import (
	"testing"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGraph_SingleStartNodeIsValidWithDeadEndWarning(t *testing.T) {
	t.Parallel()

	graph := &models.Graph{
		Nodes: []*models.GraphNode{{ID: models.PersistedID(1), IsStart: true, Role: "Agent", Name: "Start"}},
		Edges: []*models.GraphEdge{},
	}

	result := ValidateGraph(graph, nil)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "dead end")
}

func TestValidateGraph_TwoStartNodes(t *testing.T) {
	t.Parallel()

	graph := &models.Graph{
		Nodes: []*models.GraphNode{
			{ID: models.PersistedID(1), IsStart: true, Name: "A", Role: "Agent"},
			{ID: models.PersistedID(2), IsStart: true, Name: "B", Role: "Agent"},
		},
	}

	result := ValidateGraph(graph, nil)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Workflow has 2 start nodes, but must have exactly one")
}

func TestValidateGraph_MissingTarget(t *testing.T) {
	t.Parallel()

	graph := &models.Graph{
		Nodes: []*models.GraphNode{{ID: models.PersistedID(1), IsStart: true, Name: "A", Role: "Agent"}},
		Edges: []*models.GraphEdge{{ID: models.PersistedID(10), Source: ref(1), Target: ref(99)}},
	}

	result := ValidateGraph(graph, nil)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, `Transition 1: target step "99" does not exist`)

	_, found := graph.Node(models.PersistedID(99))
	assert.False(t, found)
}

func TestValidateGraph_ReportsEverythingInOnePass(t *testing.T) {
	t.Parallel()

	graph := &models.Graph{
		Nodes: []*models.GraphNode{
			{ID: models.PersistedID(1), Name: "", Role: "Unassigned"},
			{ID: models.NewTemporaryID(), Name: "Review", Role: "Ghost", IsEnd: true},
		},
		Edges: []*models.GraphEdge{
			{ID: models.NewTemporaryID(), Source: ref(1), Target: ref(5), Name: "this label is far too long to be accepted by the transition rule!!"},
		},
	}

	result := ValidateGraph(graph, []models.Role{{ID: "1", Name: "Agent"}})

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{
		"Workflow must have a start node",
		`Transition 1: target step "5" does not exist`,
		"Step 1: name is required",
		`Step 1: role "Unassigned" is not allowed, assign a role`,
		`Step 2 "Review": role "Ghost" does not exist`,
		"Transition 1: name must be at most 64 characters",
	}, result.Errors)
	assert.Equal(t, []string{
		"Step 1 is unreachable: no incoming transition",
		`Step 2 "Review" is unreachable: no incoming transition`,
	}, result.Warnings)
}

func TestValidateGraph_DeletedEntitiesAreIgnored(t *testing.T) {
	t.Parallel()

	start := &models.GraphNode{ID: models.PersistedID(1), Name: "Start", Role: "Agent", IsStart: true}
	end := &models.GraphNode{ID: models.PersistedID(2), Name: "End", Role: "Agent", IsEnd: true}
	gone := &models.GraphNode{ID: models.PersistedID(3), Name: "", Role: "", IsStart: true, ToDelete: true}

	graph := &models.Graph{
		Nodes: []*models.GraphNode{start, end, gone},
		Edges: []*models.GraphEdge{
			{ID: models.PersistedID(4), Source: ref(1), Target: ref(2)},
			{ID: models.PersistedID(5), Source: ref(3), Target: ref(2), ToDelete: true},
		},
	}

	result := ValidateGraph(graph, nil)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Warnings)
}

func TestValidateGraph_SyntheticEdgesCountForConnectivity(t *testing.T) {
	t.Parallel()

	graph := &models.Graph{
		Nodes: []*models.GraphNode{
			{ID: models.PersistedID(1), Name: "Start", Role: "Agent", IsStart: true},
			{ID: models.PersistedID(2), Name: "Middle", Role: "Agent"},
		},
		Edges: []*models.GraphEdge{
			{ID: models.PersistedID(3), Source: ref(1), Target: ref(2)},
			{ID: models.PersistedID(4), Source: ref(2), Target: nil},
			{ID: models.PersistedID(5), Source: nil, Target: ref(1)},
		},
	}

	result := ValidateGraph(graph, nil)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Warnings)
}

func TestValidateGraph_NilGraph(t *testing.T) {
	t.Parallel()

	result := ValidateGraph(nil, nil)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"Workflow must have at least one step", "Workflow must have a start node"}, result.Errors)
	assert.NotNil(t, result.Warnings)
}
