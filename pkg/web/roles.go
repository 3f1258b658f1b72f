package web

import "github.com/gofiber/fiber/v3"

func (h *APIHandlers) GetRoles(c fiber.Ctx) error {
	roster, err := h.roleService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(roster)
}

func (h *APIHandlers) CreateRole(c fiber.Ctx) error {
	var req CreateRoleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	role, err := h.roleService.Create(c.Context(), req.Name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

func (h *APIHandlers) DeleteRole(c fiber.Ctx) error {
	if err := h.roleService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
