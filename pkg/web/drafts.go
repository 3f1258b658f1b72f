package web

import (
	"github.com/dukex/flowdraft/pkg/editor"
	"github.com/dukex/flowdraft/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func draftResponse(s *editor.Session) DraftResponse {
	return DraftResponse{
		Status:     s.Status(),
		LeaveGuard: s.LeaveGuard(),
		Graph:      s.Draft(),
	}
}

// session returns the open draft of the workflow in the path.
func (h *APIHandlers) session(c fiber.Ctx) (*editor.Session, bool) {
	return h.drafts.Get(c.Params("id"))
}

func noDraft(c fiber.Ctx) error {
	return notFound(c, "No draft is open for this workflow")
}

func pathID(c fiber.Ctx, param string) (models.ID, error) {
	return models.ParseID(c.Params(param))
}

func (h *APIHandlers) OpenDraft(c fiber.Ctx) error {
	session, err := h.drafts.Open(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(draftResponse(session))
}

func (h *APIHandlers) GetDraft(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	return c.JSON(draftResponse(session))
}

// DiscardDraft drops the session and any unsaved changes.
func (h *APIHandlers) DiscardDraft(c fiber.Ctx) error {
	if !h.drafts.Discard(c.Params("id")) {
		return noDraft(c)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddDraftNode(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	var req CreateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := session.AddNode(models.GraphNode{
		ID:          req.ID,
		Name:        req.Name,
		Role:        req.Role,
		Description: req.Description,
		IsStart:     req.IsStart,
		IsEnd:       req.IsEnd,
		PositionX:   req.PositionX,
		PositionY:   req.PositionY,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *APIHandlers) UpdateDraftNode(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	id, err := pathID(c, "nodeId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var patch editor.NodePatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	node, err := session.UpdateNode(id, patch)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) DeleteDraftNode(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	id, err := pathID(c, "nodeId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := session.DeleteNode(id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddDraftEdge(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	var req CreateEdgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	edge, err := session.AddEdge(models.GraphEdge{
		ID:     req.ID,
		Source: req.Source,
		Target: req.Target,
		Name:   req.Name,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edge)
}

func (h *APIHandlers) UpdateDraftEdge(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	id, err := pathID(c, "edgeId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var patch editor.EdgePatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	edge, err := session.UpdateEdge(id, patch)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(edge)
}

func (h *APIHandlers) DeleteDraftEdge(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	id, err := pathID(c, "edgeId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := session.DeleteEdge(id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) SelectDraft(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	var req SelectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := session.Select(req.IDs...); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(session.Status())
}

func (h *APIHandlers) UndoDraft(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	if err := session.Undo(); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(draftResponse(session))
}

func (h *APIHandlers) RedoDraft(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	if err := session.Redo(); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(draftResponse(session))
}

func (h *APIHandlers) ValidateDraft(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	return c.JSON(session.Validate(c.Context()))
}

// SaveDraft persists the draft. Invalid drafts and drafts with unacknowledged
// warnings answer 422 with the outcome describing why nothing was saved.
func (h *APIHandlers) SaveDraft(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	acknowledged, err := queryBool(c, "acknowledge_warnings")
	if err != nil {
		return badRequest(c, "acknowledge_warnings must be a boolean")
	}

	outcome, err := session.Save(c.Context(), editor.SaveOptions{AcknowledgeWarnings: acknowledged})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(saveStatusCode(outcome.Status)).JSON(outcome)
}

// DraftShortcut lets the editor forward key presses; ctrl/cmd+S saves.
func (h *APIHandlers) DraftShortcut(c fiber.Ctx) error {
	session, ok := h.session(c)
	if !ok {
		return noDraft(c)
	}

	var req ShortcutRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	outcome, handled, err := session.HandleShortcut(c.Context(), req.Combo)
	if err != nil {
		return handleServiceError(c, err)
	}

	if !handled {
		return c.JSON(ShortcutResponse{Handled: false})
	}

	return c.Status(saveStatusCode(outcome.Status)).JSON(ShortcutResponse{Handled: true, Outcome: &outcome})
}

func saveStatusCode(status editor.SaveStatus) int {
	switch status {
	case editor.SaveStatusInvalid, editor.SaveStatusNeedsConfirmation:
		return fiber.StatusUnprocessableEntity
	case editor.SaveStatusIgnored:
		return fiber.StatusAccepted
	default:
		return fiber.StatusOK
	}
}
