package handlers

import (
	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles member endpoints
type MemberHandler struct {
	memberService *services.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// List returns members visible to the caller
// @Summary List members
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param groupId query int false "Group ID"
// @Success 200 {object} response.Response{data=[]models.Member}
// @Router /api/members [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
	groupID, err := queryUint(c, "groupId")
	if err != nil {
		return response.FromError(c, err)
	}

	members, err := h.memberService.List(c.UserContext(), middleware.Principal(c), groupID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Members retrieved successfully", members)
}

// Get returns a member
// @Summary Get member
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response{data=models.Member}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/members/{id} [get]
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	member, err := h.memberService.Get(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Member retrieved successfully", member)
}

// Create enrolls a member, pending approval
// @Summary Create member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateMemberInput true "Member data"
// @Success 201 {object} response.Response{data=models.Member}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/members [post]
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	var req services.CreateMemberInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	member, err := h.memberService.Create(c.UserContext(), middleware.Principal(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Member created successfully", member)
}

// Update changes a member's details
// @Summary Update member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param body body services.UpdateMemberInput true "Fields to change"
// @Success 200 {object} response.Response{data=models.Member}
// @Router /api/members/{id} [put]
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.UpdateMemberInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	member, err := h.memberService.Update(c.UserContext(), middleware.Principal(c), id, &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Member updated successfully", member)
}

// Approve marks a member approved
// @Summary Approve member
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response{data=models.Member}
// @Failure 403 {object} response.Response
// @Router /api/members/{id}/approve [put]
func (h *MemberHandler) Approve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	member, err := h.memberService.Approve(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Member approved successfully", member)
}

// Delete removes a member without open loans
// @Summary Delete member
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/members/{id} [delete]
func (h *MemberHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.memberService.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Member deleted successfully", nil)
}
