// Package web provides the HTTP handlers of the workflow editor API.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/flowdraft/pkg/diff"
	"github.com/dukex/flowdraft/pkg/editor"
	"github.com/dukex/flowdraft/pkg/graphio"
	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	documentService *services.Document
	roleService     *services.Role
	drafts          *editor.Manager
	differ          *diff.Differ
	validator       *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	documentService *services.Document,
	roleService *services.Role,
	drafts *editor.Manager,
	differ *diff.Differ,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		documentService: documentService,
		roleService:     roleService,
		drafts:          drafts,
		differ:          differ,
		validator:       validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Flowdraft API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Flowdraft API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"open_drafts": h.drafts.Len(),
		"timestamp":   time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Owner:       req.Owner,
		Metadata:    req.Metadata,
		Graph:       req.Graph,
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Owner != nil {
		existing.Owner = *req.Owner
	}

	if req.Metadata != nil {
		existing.Metadata = req.Metadata
	}

	updated, err := h.workflowService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	h.drafts.Discard(id)

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetGraph(c fiber.Ctx) error {
	graph, err := h.workflowService.LoadGraph(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(graph)
}

// SaveGraph replaces the stored graph in one request. Warnings must be
// acknowledged with ?acknowledge_warnings=true.
func (h *APIHandlers) SaveGraph(c fiber.Ctx) error {
	id := c.Params("id")

	var graph models.Graph
	if err := c.Bind().JSON(&graph); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	acknowledged, err := queryBool(c, "acknowledge_warnings")
	if err != nil {
		return badRequest(c, "acknowledge_warnings must be a boolean")
	}

	result := h.workflowService.ValidateGraph(c.Context(), &graph)
	if !result.IsValid {
		return invalidGraph(c, result.Errors, result.Warnings)
	}

	if result.HasWarnings() && !acknowledged {
		problem := ValidationProblem{
			Problem:  newConfirmationProblem(c),
			Warnings: result.Warnings,
		}

		return c.Status(fiber.StatusConflict).JSON(problem)
	}

	mapping, err := h.workflowService.SaveGraph(c.Context(), id, &graph)
	if err != nil {
		return handleServiceError(c, err)
	}

	saved, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if mapping == nil {
		mapping = map[models.ID]models.ID{}
	}

	return c.JSON(SaveGraphResponse{
		Version:     saved.Version,
		Graph:       saved.Graph,
		AssignedIDs: mapping,
		Warnings:    result.Warnings,
	})
}

func (h *APIHandlers) ValidateGraph(c fiber.Ctx) error {
	var graph models.Graph
	if err := c.Bind().JSON(&graph); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	return c.JSON(h.workflowService.ValidateGraph(c.Context(), &graph))
}

// ImportGraph normalises a loosely shaped editor payload and loads it into
// the workflow's draft as one undoable change.
func (h *APIHandlers) ImportGraph(c fiber.Ctx) error {
	graph, err := graphio.Normalize(c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	session, err := h.drafts.Open(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := session.Replace(graph); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"draft":      draftResponse(session),
		"validation": session.Validate(c.Context()),
	})
}

func (h *APIHandlers) Diff(c fiber.Ctx) error {
	var req DiffRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result := h.differ.Compare(req.Left, req.Right)

	return c.JSON(DiffResponse{
		Granularity: result.Granularity,
		Runs:        result.Runs,
		Stats:       diff.Summarize(result.Runs),
	})
}

func queryBool(c fiber.Ctx, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}

	return strconv.ParseBool(raw)
}
