package handlers

import (
	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetMemberDashboard returns the caller's own savings and loans
// @Summary Member Dashboard
// @Description Own savings total, loans and outstanding balance
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=services.MemberDashboard}
// @Failure 401 {object} response.Response
// @Router /api/dashboard/me [get]
func (h *DashboardHandler) GetMemberDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.Me(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Member dashboard retrieved successfully", data)
}

// GetGroupDashboard returns a group's fund position and activity
// @Summary Group Dashboard
// @Description Fund, savings, loan pipeline and recent activity of a group
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupId path int true "Group ID"
// @Success 200 {object} response.Response{data=services.GroupDashboard}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/dashboard/group/{groupId} [get]
func (h *DashboardHandler) GetGroupDashboard(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return response.FromError(c, err)
	}

	data, err := h.dashboardService.Group(c.UserContext(), middleware.Principal(c), groupID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Group dashboard retrieved successfully", data)
}
