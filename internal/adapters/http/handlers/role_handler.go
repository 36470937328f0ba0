package handlers

import (
	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RoleHandler handles role endpoints
type RoleHandler struct {
	roleService *services.RoleService
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(roleService *services.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// List returns every role
// @Summary List roles
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Role}
// @Router /api/roles [get]
func (h *RoleHandler) List(c *fiber.Ctx) error {
	roles, err := h.roleService.List(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Roles retrieved successfully", roles)
}

// Get returns a role
// @Summary Get role
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Success 200 {object} response.Response{data=models.Role}
// @Router /api/roles/{id} [get]
func (h *RoleHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	role, err := h.roleService.Get(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Role retrieved successfully", role)
}

// Update changes a role's description or capability list (Admin only)
// @Summary Update role
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Param body body services.UpdateRoleInput true "Fields to change"
// @Success 200 {object} response.Response{data=models.Role}
// @Failure 403 {object} response.Response
// @Router /api/roles/{id} [put]
func (h *RoleHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.UpdateRoleInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	role, err := h.roleService.Update(c.UserContext(), middleware.Principal(c), id, &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Role updated successfully", role)
}
