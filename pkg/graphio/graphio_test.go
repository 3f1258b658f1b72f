package graphio_test

import (
	"errors"
	"testing"

	"github.com/dukex/flowdraft/pkg/graphio"
	"github.com/dukex/flowdraft/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_CanonicalShape(t *testing.T) {
	raw := []byte(`{
		"nodes": [
			{"id": 1, "name": "Draft", "role": "Author", "is_start": true, "position_x": 10, "position_y": 20},
			{"id": "temp_review", "name": "Review", "role": "Editor", "is_end": true}
		],
		"edges": [
			{"id": 7, "source": 1, "target": "temp_review", "name": "submit"},
			{"id": "temp_e", "source": null, "target": 1}
		]
	}`)

	graph, err := graphio.Normalize(raw)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)
	require.Len(t, graph.Edges, 2)

	assert.Equal(t, models.ID("1"), graph.Nodes[0].ID)
	assert.Equal(t, "Draft", graph.Nodes[0].Name)
	assert.True(t, graph.Nodes[0].IsStart)
	assert.Equal(t, 10, graph.Nodes[0].PositionX)
	assert.Equal(t, 20, graph.Nodes[0].PositionY)
	assert.True(t, graph.Nodes[1].ID.IsTemporary())

	assert.Equal(t, models.ID("7"), graph.Edges[0].ID)
	assert.Equal(t, models.ID("1"), *graph.Edges[0].Source)
	assert.Equal(t, models.ID("temp_review"), *graph.Edges[0].Target)
	assert.Equal(t, "submit", graph.Edges[0].Name)
	assert.Nil(t, graph.Edges[1].Source)
}

func TestNormalize_UIShape(t *testing.T) {
	raw := []byte(`{
		"nodes": [
			{"id": "3", "data": {"label": "Approve", "role": "Manager", "is_start": true, "description": "final"}, "position": {"x": 4.6, "y": -2.2}},
			{"label": "Publish", "data": {"role": "Editor", "is_end": true}}
		],
		"edges": [
			{"id": "temp_1", "from": "3", "to": 9, "data": {"label": "ok"}}
		]
	}`)

	graph, err := graphio.Normalize(raw)
	require.NoError(t, err)

	approve := graph.Nodes[0]
	assert.Equal(t, models.ID("3"), approve.ID)
	assert.Equal(t, "Approve", approve.Name)
	assert.Equal(t, "Manager", approve.Role)
	assert.Equal(t, "final", approve.Description)
	assert.True(t, approve.IsStart)
	assert.Equal(t, 5, approve.PositionX)
	assert.Equal(t, -2, approve.PositionY)

	publish := graph.Nodes[1]
	assert.True(t, publish.ID.IsTemporary(), "nodes without id get a temporary id")
	assert.Equal(t, "Publish", publish.Name)
	assert.Equal(t, "Editor", publish.Role)
	assert.True(t, publish.IsEnd)

	edge := graph.Edges[0]
	assert.Equal(t, models.ID("3"), *edge.Source)
	assert.Equal(t, models.ID("9"), *edge.Target)
	assert.Equal(t, "ok", edge.Name)
}

func TestNormalize_SchemaViolations(t *testing.T) {
	raw := []byte(`{"nodes": [{"id": true, "name": 5}], "edges": "nope"}`)

	_, err := graphio.Normalize(raw)

	var schemaErr *graphio.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.GreaterOrEqual(t, len(schemaErr.Violations), 3)
}

func TestNormalize_MissingNodes(t *testing.T) {
	_, err := graphio.Normalize([]byte(`{"edges": []}`))

	var schemaErr *graphio.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestNormalize_MalformedJSON(t *testing.T) {
	_, err := graphio.Normalize([]byte(`{"nodes": [`))
	assert.ErrorIs(t, err, graphio.ErrMalformedPayload)
}

func TestNormalize_InvalidStringID(t *testing.T) {
	_, err := graphio.Normalize([]byte(`{"nodes": [{"id": "abc"}]}`))

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidID))
	assert.ErrorIs(t, err, graphio.ErrMalformedPayload)
}
