package handlers

import (
	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MeetingHandler handles meeting endpoints
type MeetingHandler struct {
	meetingService *services.MeetingService
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(meetingService *services.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetingService: meetingService}
}

// AttendanceRequest lists members present at a meeting
type AttendanceRequest struct {
	MemberIDs []uint `json:"memberIds"`
}

// List returns meetings visible to the caller
// @Summary List meetings
// @Tags Meetings
// @Produce json
// @Security BearerAuth
// @Param groupId query int false "Group ID"
// @Success 200 {object} response.Response{data=[]models.Meeting}
// @Router /api/meetings [get]
func (h *MeetingHandler) List(c *fiber.Ctx) error {
	groupID, err := queryUint(c, "groupId")
	if err != nil {
		return response.FromError(c, err)
	}

	meetings, err := h.meetingService.List(c.UserContext(), middleware.Principal(c), groupID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Meetings retrieved successfully", meetings)
}

// Create schedules a meeting
// @Summary Create meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupId query int false "Group ID when the body omits it"
// @Param body body services.CreateMeetingInput true "Meeting"
// @Success 201 {object} response.Response{data=models.Meeting}
// @Failure 400 {object} response.Response
// @Router /api/meetings [post]
func (h *MeetingHandler) Create(c *fiber.Ctx) error {
	var req services.CreateMeetingInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.GroupID == 0 {
		groupID, err := queryUint(c, "groupId")
		if err != nil {
			return response.FromError(c, err)
		}
		if groupID != nil {
			req.GroupID = *groupID
		}
	}

	meeting, err := h.meetingService.Create(c.UserContext(), middleware.Principal(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Meeting created successfully", meeting)
}

// Get returns a meeting
// @Summary Get meeting
// @Tags Meetings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Meeting ID"
// @Success 200 {object} response.Response{data=models.Meeting}
// @Router /api/meetings/{id} [get]
func (h *MeetingHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	meeting, err := h.meetingService.Get(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Meeting retrieved successfully", meeting)
}

// RecordAttendance replaces a meeting's attendance list
// @Summary Record attendance
// @Tags Meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Meeting ID"
// @Param body body AttendanceRequest true "Present members"
// @Success 200 {object} response.Response{data=models.Meeting}
// @Router /api/meetings/{id}/attendance [put]
func (h *MeetingHandler) RecordAttendance(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req AttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	meeting, err := h.meetingService.RecordAttendance(c.UserContext(), middleware.Principal(c), id, req.MemberIDs)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Attendance recorded successfully", meeting)
}
