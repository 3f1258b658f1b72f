// Package graphio converts graph payloads produced by the editor UI or import
// files into models.Graph. It is the only place that knows about alternate
// field names; everything downstream sees the normalised shape.
package graphio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var ErrMalformedPayload = errors.New("malformed graph payload")

// SchemaError lists every schema violation found in a payload.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "graph payload does not match schema: " + strings.Join(e.Violations, "; ")
}

var schemaLoader = gojsonschema.NewStringLoader(graphSchema)

// Validate checks a raw payload against the graph schema.
func Validate(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}

		return &SchemaError{Violations: violations}
	}

	return nil
}

// Normalize validates raw and maps it onto models.Graph. Nodes without an id
// get a fresh temporary id.
func Normalize(raw []byte) (*models.Graph, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	graph := &models.Graph{Nodes: []*models.GraphNode{}, Edges: []*models.GraphEdge{}}

	for i, item := range list(payload["nodes"]) {
		node, err := normalizeNode(item)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %w", ErrMalformedPayload, i+1, err)
		}

		graph.Nodes = append(graph.Nodes, node)
	}

	for i, item := range list(payload["edges"]) {
		edge, err := normalizeEdge(item)
		if err != nil {
			return nil, fmt.Errorf("%w: edge %d: %w", ErrMalformedPayload, i+1, err)
		}

		graph.Edges = append(graph.Edges, edge)
	}

	return graph, nil
}

func normalizeNode(raw map[string]any) (*models.GraphNode, error) {
	id, err := requiredID(raw)
	if err != nil {
		return nil, err
	}

	node := &models.GraphNode{
		ID:          id,
		Name:        text(raw, "label", "name", "data.label"),
		Role:        text(raw, "role", "data.role"),
		Description: text(raw, "description", "data.description"),
		IsStart:     flag(raw, "is_start", "data.is_start"),
		IsEnd:       flag(raw, "is_end", "data.is_end"),
		ToDelete:    flag(raw, "to_delete"),
		PositionX:   coordinate(raw, "position.x", "position_x"),
		PositionY:   coordinate(raw, "position.y", "position_y"),
	}

	return node, nil
}

func normalizeEdge(raw map[string]any) (*models.GraphEdge, error) {
	id, err := requiredID(raw)
	if err != nil {
		return nil, err
	}

	source, err := optionalID(raw, "source", "from")
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	target, err := optionalID(raw, "target", "to")
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	return &models.GraphEdge{
		ID:       id,
		Source:   source,
		Target:   target,
		Name:     text(raw, "label", "name", "data.label"),
		ToDelete: flag(raw, "to_delete"),
	}, nil
}

func requiredID(raw map[string]any) (models.ID, error) {
	v, ok := lookup(raw, "id")
	if !ok || v == nil {
		return models.NewTemporaryID(), nil
	}

	return toID(v)
}

func optionalID(raw map[string]any, keys ...string) (*models.ID, error) {
	v, ok := lookup(raw, keys...)
	if !ok || v == nil {
		return nil, nil
	}

	id, err := toID(v)
	if err != nil {
		return nil, err
	}

	return models.IDRef(id), nil
}

func toID(v any) (models.ID, error) {
	switch value := v.(type) {
	case json.Number:
		n, err := value.Int64()
		if err != nil {
			return "", fmt.Errorf("%w: %s", models.ErrInvalidID, value)
		}

		return models.PersistedID(n), nil
	case string:
		return models.ParseID(value)
	default:
		return "", fmt.Errorf("%w: %v", models.ErrInvalidID, v)
	}
}

// lookup returns the first present key. Dotted keys descend into nested objects.
func lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		current := any(raw)
		found := true

		for _, part := range strings.Split(key, ".") {
			m, ok := current.(map[string]any)
			if !ok {
				found = false

				break
			}

			current, ok = m[part]
			if !ok {
				found = false

				break
			}
		}

		if found && current != nil {
			return current, true
		}
	}

	return nil, false
}

func text(raw map[string]any, keys ...string) string {
	v, _ := lookup(raw, keys...)
	s, _ := v.(string)

	return s
}

func flag(raw map[string]any, keys ...string) bool {
	v, _ := lookup(raw, keys...)
	b, _ := v.(bool)

	return b
}

func coordinate(raw map[string]any, keys ...string) int {
	v, _ := lookup(raw, keys...)

	n, ok := v.(json.Number)
	if !ok {
		return 0
	}

	f, err := n.Float64()
	if err != nil {
		return 0
	}

	return int(math.Round(f))
}

func list(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))

	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}

	return out
}
