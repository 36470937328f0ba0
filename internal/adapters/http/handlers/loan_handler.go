package handlers

import (
	"context"

	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// LoanHandler handles loan application endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// LoanStatusRequest is the body of a generic status update
type LoanStatusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

// RemarksRequest is the optional body of an approve, reject or disburse call
type RemarksRequest struct {
	Remarks string `json:"remarks"`
}

// List returns loans visible to the caller
// @Summary List loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param memberId query int false "Member ID"
// @Param groupId query int false "Group ID"
// @Param status query string false "PENDING, APPROVED, REJECTED, DISBURSED or REPAID"
// @Success 200 {object} response.Response{data=[]models.LoanResponse}
// @Router /api/loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	var filter repositories.LoanFilter
	var err error
	if filter.MemberID, err = queryUint(c, "memberId"); err != nil {
		return response.FromError(c, err)
	}
	if filter.GroupID, err = queryUint(c, "groupId"); err != nil {
		return response.FromError(c, err)
	}
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseLoanStatus(raw)
		if err != nil {
			return response.FromError(c, err)
		}
		filter.Status = &status
	}

	loans, err := h.loanService.List(c.UserContext(), middleware.Principal(c), filter)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loans retrieved successfully", loans)
}

// Create files a loan application
// @Summary Apply for a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateLoanInput true "Loan application"
// @Success 201 {object} response.Response{data=models.LoanResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/loans [post]
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var req services.CreateLoanInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Create(c.UserContext(), middleware.Principal(c), &req, c.IP())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Loan application submitted successfully", loan)
}

// QuoteEMI returns an EMI schedule without creating anything
// @Summary EMI calculator
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param amount query number true "Principal"
// @Param tenure query int true "Tenure in months"
// @Success 200 {object} response.Response{data=services.EMIQuote}
// @Failure 400 {object} response.Response
// @Router /api/loans/emi [get]
func (h *LoanHandler) QuoteEMI(c *fiber.Ctx) error {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		return response.FromError(c, domain.NewValidationError("amount", "must be a number"))
	}

	quote, err := h.loanService.QuoteEMI(amount, c.QueryInt("tenure"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "EMI calculated successfully", quote)
}

// Get returns a loan
// @Summary Get loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response{data=models.LoanResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/loans/{id} [get]
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	loan, err := h.loanService.Get(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loan retrieved successfully", loan)
}

// UpdateStatus applies the transition that leads to the requested status
// @Summary Update loan status
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body LoanStatusRequest true "Target status"
// @Success 200 {object} response.Response{data=models.LoanResponse}
// @Failure 409 {object} response.Response
// @Router /api/loans/{id} [put]
func (h *LoanHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req LoanStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.UpdateStatus(c.UserContext(), middleware.Principal(c), id, req.Status, req.Remarks, c.IP())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loan updated successfully", loan)
}

// Approve approves a pending loan
// @Summary Approve loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body RemarksRequest false "Remarks"
// @Success 200 {object} response.Response{data=models.LoanResponse}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/loans/{id}/approve [post]
func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	return h.act(c, h.loanService.Approve, "Loan approved successfully")
}

// Reject rejects a pending loan
// @Summary Reject loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body RemarksRequest false "Remarks"
// @Success 200 {object} response.Response{data=models.LoanResponse}
// @Failure 409 {object} response.Response
// @Router /api/loans/{id}/reject [post]
func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	return h.act(c, h.loanService.Reject, "Loan rejected successfully")
}

// Disburse releases an approved loan's funds
// @Summary Disburse loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body RemarksRequest false "Remarks"
// @Success 200 {object} response.Response{data=models.LoanResponse}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/loans/{id}/disburse [post]
func (h *LoanHandler) Disburse(c *fiber.Ctx) error {
	return h.act(c, h.loanService.Disburse, "Loan disbursed successfully")
}

// Repay records a repayment against a disbursed loan
// @Summary Repay loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body services.RepayInput true "Repayment"
// @Success 201 {object} response.Response{data=services.RepaymentResult}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/loans/{id}/repay [post]
func (h *LoanHandler) Repay(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.RepayInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.loanService.Repay(c.UserContext(), middleware.Principal(c), id, &req, c.IP())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Repayment recorded successfully", result)
}

// Repayments lists a loan's repayments
// @Summary Loan repayments
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response{data=[]models.LoanRepayment}
// @Router /api/loans/{id}/repayments [get]
func (h *LoanHandler) Repayments(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	repayments, err := h.loanService.Repayments(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Repayments retrieved successfully", repayments)
}

// Logs returns a loan's audit trail
// @Summary Loan audit log
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response{data=[]models.LoanLog}
// @Router /api/loans/{id}/logs [get]
func (h *LoanHandler) Logs(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	logs, err := h.loanService.Logs(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Loan logs retrieved successfully", logs)
}

// Overdue lists a group's disbursed loans that are behind schedule
// @Summary Overdue loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param groupId path int true "Group ID"
// @Success 200 {object} response.Response{data=[]services.OverdueLoan}
// @Router /api/loans/group/{groupId}/overdue [get]
func (h *LoanHandler) Overdue(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return response.FromError(c, err)
	}

	loans, err := h.loanService.Overdue(c.UserContext(), middleware.Principal(c), groupID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Overdue loans retrieved successfully", loans)
}

// GroupRepayments lists a group's repayments for one month
// @Summary Monthly group repayments
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param groupId path int true "Group ID"
// @Param year query int false "Year (defaults to current)"
// @Param month query int false "Month 1-12 (defaults to current)"
// @Success 200 {object} response.Response{data=services.GroupRepayments}
// @Router /api/loans/group/{groupId}/repayments [get]
func (h *LoanHandler) GroupRepayments(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return response.FromError(c, err)
	}

	result, err := h.loanService.GroupRepayments(c.UserContext(), middleware.Principal(c), groupID, c.QueryInt("year"), c.QueryInt("month"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Repayments retrieved successfully", result)
}

type loanAction func(ctx context.Context, p *domain.Principal, id uint, remarks, ip string) (*models.LoanResponse, error)

func (h *LoanHandler) act(c *fiber.Ctx, action loanAction, message string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req RemarksRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	loan, err := action(c.UserContext(), middleware.Principal(c), id, req.Remarks, c.IP())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, message, loan)
}
