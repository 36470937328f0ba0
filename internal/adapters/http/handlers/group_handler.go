package handlers

import (
	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// GroupHandler handles SHG group endpoints
type GroupHandler struct {
	groupService *services.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// List returns groups visible to the caller
// @Summary List groups
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.GroupResponse}
// @Router /api/groups [get]
func (h *GroupHandler) List(c *fiber.Ctx) error {
	groups, err := h.groupService.List(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Groups retrieved successfully", groups)
}

// Get returns one group with its derived fund
// @Summary Get group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} response.Response{data=models.GroupResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/groups/{id} [get]
func (h *GroupHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	group, err := h.groupService.Get(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Group retrieved successfully", group)
}

// Create creates a group (Admin only)
// @Summary Create group
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.GroupInput true "Group data"
// @Success 201 {object} response.Response{data=models.GroupResponse}
// @Failure 400 {object} response.Response
// @Router /api/groups [post]
func (h *GroupHandler) Create(c *fiber.Ctx) error {
	var req services.GroupInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	group, err := h.groupService.Create(c.UserContext(), middleware.Principal(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Group created successfully", group)
}

// Update changes a group's details
// @Summary Update group
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param body body services.GroupInput true "Fields to change"
// @Success 200 {object} response.Response{data=models.GroupResponse}
// @Router /api/groups/{id} [put]
func (h *GroupHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.GroupInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	group, err := h.groupService.Update(c.UserContext(), middleware.Principal(c), id, &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Group updated successfully", group)
}

// Delete removes an empty group (Admin only)
// @Summary Delete group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/groups/{id} [delete]
func (h *GroupHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.groupService.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Group deleted successfully", nil)
}
