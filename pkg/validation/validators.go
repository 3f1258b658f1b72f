package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/go-playground/validator/v10"
)

const (
	MaxStepNameLength        = 64
	MaxStepDescriptionLength = 256
	MaxTransitionNameLength  = 64
)

var fields = validator.New(validator.WithRequiredStructEnabled())

// ValidateMinimumSteps requires at least one active node.
func ValidateMinimumSteps(nodes []*models.GraphNode) models.ValidationResult {
	if len(models.ActiveNodes(nodes)) == 0 {
		return models.NewValidationResult([]string{"Workflow must have at least one step"}, nil)
	}

	return models.NewValidationResult(nil, nil)
}

// ValidateStartNodes requires exactly one active node flagged as start.
func ValidateStartNodes(nodes []*models.GraphNode) models.ValidationResult {
	starts := 0

	for _, n := range models.ActiveNodes(nodes) {
		if n.IsStart {
			starts++
		}
	}

	switch {
	case starts == 0:
		return models.NewValidationResult([]string{"Workflow must have a start node"}, nil)
	case starts > 1:
		return models.NewValidationResult([]string{
			fmt.Sprintf("Workflow has %d start nodes, but must have exactly one", starts),
		}, nil)
	default:
		return models.NewValidationResult(nil, nil)
	}
}

// ValidateEdgeReferences reports one error per active edge whose source or
// target names a node that is missing or marked for deletion. Edges are
// numbered by their 1-based position in the input.
func ValidateEdgeReferences(nodes []*models.GraphNode, edges []*models.GraphEdge) models.ValidationResult {
	known := activeIDs(nodes)

	var errs []string

	for i, e := range edges {
		if e == nil || e.ToDelete {
			continue
		}

		var missing []string

		if e.Source != nil && !known[*e.Source] {
			missing = append(missing, fmt.Sprintf("source step %q", e.Source.String()))
		}

		if e.Target != nil && !known[*e.Target] {
			missing = append(missing, fmt.Sprintf("target step %q", e.Target.String()))
		}

		switch len(missing) {
		case 1:
			errs = append(errs, fmt.Sprintf("Transition %d: %s does not exist", i+1, missing[0]))
		case 2:
			errs = append(errs, fmt.Sprintf("Transition %d: %s and %s do not exist", i+1, missing[0], missing[1]))
		}
	}

	return models.NewValidationResult(errs, nil)
}

// ValidateStepName requires a name of at most MaxStepNameLength characters.
func ValidateStepName(node *models.GraphNode) models.ValidationResult {
	return single(checkText(strings.TrimSpace(node.Name), "name", MaxStepNameLength, true))
}

// ValidateStepRole requires a role. "Unassigned" is never accepted. When
// roster is non-empty the role must match one of its names, ignoring case.
func ValidateStepRole(node *models.GraphNode, roster []models.Role) models.ValidationResult {
	role := strings.TrimSpace(node.Role)

	if msg := checkText(role, "required", "role", 0); msg != "" {
		return single(msg)
	}

	if strings.EqualFold(role, models.UnassignedRole) {
		return single(fmt.Sprintf("role %q is not allowed, assign a role", role))
	}

	if len(roster) == 0 {
		return models.NewValidationResult(nil, nil)
	}

	for _, r := range roster {
		if strings.EqualFold(strings.TrimSpace(r.Name), role) {
			return models.NewValidationResult(nil, nil)
		}
	}

	return single(fmt.Sprintf("role %q does not exist", role))
}

// ValidateStepDescription caps the optional description length.
func ValidateStepDescription(node *models.GraphNode) models.ValidationResult {
	return single(checkText(node.Description, "description", MaxStepDescriptionLength, false))
}

// ValidateTransitionName caps the optional transition label length.
func ValidateTransitionName(edge *models.GraphEdge) models.ValidationResult {
	return single(checkText(edge.Name, "name", MaxTransitionNameLength, false))
}

// checkText evaluates tag against value and turns the first failure into a message.
// checkText applies the validator max tag, which counts runes.
func checkText(value, field string, limit int, required bool) string {
	tag := "max=" + strconv.Itoa(limit)
	if required {
		tag = "required," + tag
	}

	err := fields.Var(value, tag)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return field + " is invalid"
	}

	switch verrs[0].Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %d characters", field, limit)
	default:
		return field + " is invalid"
	}
}

func single(msg string) models.ValidationResult {
	if msg == "" {
		return models.NewValidationResult(nil, nil)
	}

	return models.NewValidationResult([]string{msg}, nil)
}

func activeIDs(nodes []*models.GraphNode) map[models.ID]bool {
	ids := make(map[models.ID]bool, len(nodes))
	for _, n := range models.ActiveNodes(nodes) {
		ids[n.ID] = true
	}

	return ids
}
