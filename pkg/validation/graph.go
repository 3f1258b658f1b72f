package validation

import (
	"fmt"

	"github.com/dukex/flowdraft/pkg/models"
)

// DetectOrphans returns non-blocking warnings for active steps that cannot be
// reached (no incoming transition and not the start) or cannot be left (no
// outgoing transition and not an end).
func DetectOrphans(nodes []*models.GraphNode, edges []*models.GraphEdge) []string {
	incoming := make(map[models.ID]bool)
	outgoing := make(map[models.ID]bool)

	for _, e := range models.ActiveEdges(edges) {
		if e.Target != nil {
			incoming[*e.Target] = true
		}

		if e.Source != nil {
			outgoing[*e.Source] = true
		}
	}

	var warnings []string

	for i, n := range nodes {
		if n == nil || n.ToDelete {
			continue
		}

		if !n.IsStart && !incoming[n.ID] {
			warnings = append(warnings, stepLabel(i, n)+" is unreachable: no incoming transition")
		}

		if !n.IsEnd && !outgoing[n.ID] {
			warnings = append(warnings, stepLabel(i, n)+" is a dead end: no outgoing transition")
		}
	}

	return warnings
}

// ValidateGraph runs every rule over the graph and collects all violations.
// roster may be empty, in which case role checks only reject empty and
// "Unassigned" roles.
func ValidateGraph(graph *models.Graph, roster []models.Role) models.ValidationResult {
	if graph == nil {
		graph = &models.Graph{}
	}

	var errs []string

	errs = append(errs, ValidateMinimumSteps(graph.Nodes).Errors...)
	errs = append(errs, ValidateStartNodes(graph.Nodes).Errors...)
	errs = append(errs, ValidateEdgeReferences(graph.Nodes, graph.Edges).Errors...)

	for i, n := range graph.Nodes {
		if n == nil || n.ToDelete {
			continue
		}

		label := stepLabel(i, n)

		for _, r := range []models.ValidationResult{
			ValidateStepName(n),
			ValidateStepRole(n, roster),
			ValidateStepDescription(n),
		} {
			for _, msg := range r.Errors {
				errs = append(errs, label+": "+msg)
			}
		}
	}

	for i, e := range graph.Edges {
		if e == nil || e.ToDelete {
			continue
		}

		for _, msg := range ValidateTransitionName(e).Errors {
			errs = append(errs, fmt.Sprintf("Transition %d: %s", i+1, msg))
		}
	}

	return models.NewValidationResult(errs, DetectOrphans(graph.Nodes, graph.Edges))
}

func stepLabel(i int, n *models.GraphNode) string {
	if n.Name == "" {
		return fmt.Sprintf("Step %d", i+1)
	}

	return fmt.Sprintf("Step %d %q", i+1, n.Name)
}
