package web

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetDocuments(c fiber.Ctx) error {
	documents, err := h.documentService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(documents)
}

func (h *APIHandlers) CreateDocument(c fiber.Ctx) error {
	var req CreateDocumentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	document, err := h.documentService.Create(c.Context(), req.Title, req.Content, req.Author)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(document)
}

func (h *APIHandlers) GetDocument(c fiber.Ctx) error {
	document, err := h.documentService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(document)
}

func (h *APIHandlers) UpdateDocument(c fiber.Ctx) error {
	var req UpdateDocumentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	document, _, err := h.documentService.Update(c.Context(), c.Params("id"), req.Content, req.Author)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(document)
}

func (h *APIHandlers) GetDocumentVersions(c fiber.Ctx) error {
	versions, err := h.documentService.Versions(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(versions)
}

// CompareDocumentVersions diffs ?from= against ?to=. A legacy version without
// content answers 200 with content_unavailable set.
func (h *APIHandlers) CompareDocumentVersions(c fiber.Ctx) error {
	from, err := strconv.Atoi(c.Query("from"))
	if err != nil {
		return badRequest(c, "from must be a version number")
	}

	to, err := strconv.Atoi(c.Query("to"))
	if err != nil {
		return badRequest(c, "to must be a version number")
	}

	comparison, err := h.documentService.Compare(c.Context(), c.Params("id"), from, to)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(comparison)
}

func (h *APIHandlers) RestoreDocumentVersion(c fiber.Ctx) error {
	version, err := strconv.Atoi(c.Params("version"))
	if err != nil {
		return badRequest(c, "version must be a number")
	}

	var req RestoreRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	document, snapshot, err := h.documentService.Restore(c.Context(), c.Params("id"), version, req.Author)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(RestoreResponse{Document: document, Snapshot: snapshot})
}
