package web

import (
	"context"
	"errors"

	"github.com/dukex/flowdraft/pkg/editor"
	"github.com/dukex/flowdraft/pkg/graphio"
	"github.com/dukex/flowdraft/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, kind, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

func invalidGraph(c fiber.Ctx, errs, warnings []string) error {
	problem := ValidationProblem{
		Problem: problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("invalid_graph").
			WithDetail("workflow graph is invalid"),
		Errors:   errs,
		Warnings: warnings,
	}

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

// handleServiceError provides typed error handling for service and editor errors.
func handleServiceError(c fiber.Ctx, err error) error {
	var (
		graphErr  *services.GraphValidationError
		schemaErr *graphio.SchemaError
	)

	switch {
	case errors.As(err, &graphErr):
		return invalidGraph(c, graphErr.Result.Errors, graphErr.Result.Warnings)

	case errors.As(err, &schemaErr):
		problem := ValidationProblem{
			Problem: problems.NewStatusProblem(400).
				WithInstance(c.Path()).
				WithType("invalid_payload").
				WithDetail("graph payload does not match the expected shape"),
			Errors: schemaErr.Violations,
		}

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case errors.Is(err, graphio.ErrMalformedPayload),
		errors.Is(err, editor.ErrDuplicateID),
		services.IsValidationError(err):
		return badRequest(c, err.Error())

	case errors.Is(err, editor.ErrEntityNotFound),
		errors.Is(err, editor.ErrNodeNotFound),
		errors.Is(err, editor.ErrEdgeNotFound):
		return notFound(c, err.Error())

	case errors.Is(err, editor.ErrSaveInProgress):
		return conflict(c, "save_in_progress", "a save is in progress, try again when it completes")

	case errors.Is(err, editor.ErrSessionClosed):
		return conflict(c, "session_closed", "the editing session was closed")

	case errors.Is(err, editor.ErrNothingToUndo), errors.Is(err, editor.ErrNothingToRedo):
		return conflict(c, "empty_history", err.Error())

	case services.IsConflictError(err):
		return conflict(c, "conflict", err.Error())

	case errors.Is(err, services.ErrWorkflowNotFound):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("workflow_not_found").
			WithDetail("workflow not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, services.ErrDocumentNotFound):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("document_not_found").
			WithDetail("document not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, services.ErrSnapshotNotFound):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("version_not_found").
			WithDetail("document version not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, services.ErrRoleNotFound):
		return notFound(c, "role not found")

	case errors.Is(err, context.DeadlineExceeded):
		problem := problems.NewStatusProblem(504).
			WithInstance(c.Path()).
			WithType("timeout").
			WithDetail("the backend did not answer in time")

		return c.Status(fiber.StatusGatewayTimeout).JSON(problem)

	default:
		return internalError(c, err)
	}
}

func newConfirmationProblem(c fiber.Ctx) *problems.Problem {
	return problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("needs_confirmation").
		WithDetail("the graph has warnings; resend with acknowledge_warnings=true to save anyway")
}
