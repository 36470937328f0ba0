package handlers

import (
	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PollHandler handles poll endpoints
type PollHandler struct {
	pollService *services.PollService
}

// NewPollHandler creates a new poll handler
func NewPollHandler(pollService *services.PollService) *PollHandler {
	return &PollHandler{pollService: pollService}
}

// VoteRequest is a ballot
type VoteRequest struct {
	SelectedOption string `json:"selectedOption"`
}

// UpdatePollRequest only supports closing a poll
type UpdatePollRequest struct {
	IsActive *bool `json:"isActive"`
}

// List returns polls visible to the caller
// @Summary List polls
// @Tags Polls
// @Produce json
// @Security BearerAuth
// @Param groupId query int false "Group ID"
// @Success 200 {object} response.Response{data=[]models.PollResponse}
// @Router /api/polls [get]
func (h *PollHandler) List(c *fiber.Ctx) error {
	groupID, err := queryUint(c, "groupId")
	if err != nil {
		return response.FromError(c, err)
	}

	polls, err := h.pollService.List(c.UserContext(), middleware.Principal(c), groupID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Polls retrieved successfully", polls)
}

// Create opens a poll
// @Summary Create poll
// @Tags Polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreatePollInput true "Poll"
// @Success 201 {object} response.Response{data=models.PollResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/polls [post]
func (h *PollHandler) Create(c *fiber.Ctx) error {
	var req services.CreatePollInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	poll, err := h.pollService.Create(c.UserContext(), middleware.Principal(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Poll created successfully", poll)
}

// Get returns a poll with its votes and results
// @Summary Get poll
// @Tags Polls
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} response.Response{data=models.PollResponse}
// @Router /api/polls/{id} [get]
func (h *PollHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	poll, err := h.pollService.Get(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Poll retrieved successfully", poll)
}

// Update closes a poll
// @Summary Close poll
// @Tags Polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Param body body UpdatePollRequest true "Set isActive to false"
// @Success 200 {object} response.Response{data=models.PollResponse}
// @Failure 409 {object} response.Response
// @Router /api/polls/{id} [put]
func (h *PollHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req UpdatePollRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.IsActive == nil || *req.IsActive {
		return response.FromError(c, domain.NewValidationError("isActive", "polls can only be closed"))
	}

	poll, err := h.pollService.Close(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Poll closed successfully", poll)
}

// Vote casts the caller's ballot
// @Summary Vote
// @Tags Polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Param body body VoteRequest true "Ballot"
// @Success 200 {object} response.Response{data=models.PollResponse}
// @Failure 409 {object} response.Response
// @Router /api/polls/{id}/vote [post]
func (h *PollHandler) Vote(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	poll, err := h.pollService.Vote(c.UserContext(), middleware.Principal(c), id, req.SelectedOption)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Vote recorded successfully", poll)
}

// Tally returns vote counts per option
// @Summary Poll results
// @Tags Polls
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} response.Response{data=domain.PollTally}
// @Router /api/polls/{id}/tally [get]
func (h *PollHandler) Tally(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	tally, err := h.pollService.Tally(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Poll results retrieved successfully", tally)
}
