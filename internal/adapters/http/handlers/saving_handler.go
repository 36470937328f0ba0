package handlers

import (
	"fmt"

	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SavingHandler handles savings ledger endpoints
type SavingHandler struct {
	savingService *services.SavingService
	reportService *services.ReportService
}

// NewSavingHandler creates a new saving handler
func NewSavingHandler(savingService *services.SavingService, reportService *services.ReportService) *SavingHandler {
	return &SavingHandler{
		savingService: savingService,
		reportService: reportService,
	}
}

// List returns a page of deposits
// @Summary List deposits
// @Description Newest first, 10 per page. MEMBERs only see their own deposits.
// @Tags Savings
// @Produce json
// @Security BearerAuth
// @Param memberId query int false "Member ID"
// @Param groupId query int false "Group ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} response.Response{data=pagination.Response}
// @Router /api/savings [get]
func (h *SavingHandler) List(c *fiber.Ctx) error {
	q, err := savingsQuery(c)
	if err != nil {
		return response.FromError(c, err)
	}

	page, err := h.savingService.List(c.UserContext(), middleware.Principal(c), q)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Savings retrieved successfully", page)
}

// Create records a deposit
// @Summary Record deposit
// @Tags Savings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.DepositInput true "Deposit"
// @Success 201 {object} response.Response{data=models.SavingDeposit}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/savings [post]
func (h *SavingHandler) Create(c *fiber.Ctx) error {
	var req services.DepositInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	deposit, err := h.savingService.Deposit(c.UserContext(), middleware.Principal(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Deposit recorded successfully", deposit)
}

// Summary returns a group's savings total and deposit count
// @Summary Group savings summary
// @Tags Savings
// @Produce json
// @Security BearerAuth
// @Param groupId path int true "Group ID"
// @Success 200 {object} response.Response{data=services.GroupSummary}
// @Router /api/savings/summary/{groupId} [get]
func (h *SavingHandler) Summary(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return response.FromError(c, err)
	}

	summary, err := h.savingService.Summary(c.UserContext(), middleware.Principal(c), groupID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Savings summary retrieved successfully", summary)
}

// Export downloads the filtered ledger as CSV or PDF
// @Summary Export deposits
// @Tags Savings
// @Produce text/csv,application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Param memberId query int false "Member ID"
// @Param groupId query int false "Group ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} response.Response
// @Router /api/savings/export [get]
func (h *SavingHandler) Export(c *fiber.Ctx) error {
	q, err := savingsQuery(c)
	if err != nil {
		return response.FromError(c, err)
	}

	file, err := h.reportService.ExportSavings(c.UserContext(), middleware.Principal(c), q, c.Query("format"))
	if err != nil {
		return response.FromError(c, err)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.Send(file.Data)
}

func savingsQuery(c *fiber.Ctx) (*services.SavingsQuery, error) {
	memberID, err := queryUint(c, "memberId")
	if err != nil {
		return nil, err
	}
	groupID, err := queryUint(c, "groupId")
	if err != nil {
		return nil, err
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return nil, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return nil, err
	}

	return &services.SavingsQuery{
		MemberID: memberID,
		GroupID:  groupID,
		From:     from,
		To:       to,
		Page:     c.QueryInt("page", 1),
	}, nil
}
