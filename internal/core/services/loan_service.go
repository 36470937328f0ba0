package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/logger"
	"shg-finance/internal/pkg/metrics"
	"shg-finance/internal/pkg/receipt"
	"shg-finance/internal/pkg/timeutil"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LoanService runs the loan application lifecycle
type LoanService struct {
	repos     *repositories.Repositories
	sdg       *SDGService
	publisher LoanEventPublisher
	now       func() time.Time
}

// NewLoanService creates a new loan service. A nil publisher drops events.
func NewLoanService(repos *repositories.Repositories, sdg *SDGService, publisher LoanEventPublisher) *LoanService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &LoanService{repos: repos, sdg: sdg, publisher: publisher, now: timeutil.Now}
}

// CreateLoanInput represents a loan application. Any client-sent status is ignored.
type CreateLoanInput struct {
	MemberID       *uint           `json:"memberId"`
	Amount         decimal.Decimal `json:"amount"`
	Purpose        string          `json:"purpose"`
	PurposeDetails string          `json:"purposeDetails"`
	Tenure         int             `json:"tenure"`
	MonthlyIncome  decimal.Decimal `json:"monthlyIncome"`
}

// RepayInput represents a repayment
type RepayInput struct {
	Amount  decimal.Decimal `json:"amount"`
	Remarks string          `json:"remarks"`
}

// RepaymentResult is the recorded repayment and the loan after it
type RepaymentResult struct {
	Loan      *models.LoanResponse  `json:"loan"`
	Repayment *models.LoanRepayment `json:"repayment"`
}

// EMIQuote is an informational repayment schedule
type EMIQuote struct {
	Amount        decimal.Decimal `json:"amount"`
	Tenure        int             `json:"tenure"`
	AnnualRate    float64         `json:"annualRate"`
	EMI           decimal.Decimal `json:"emi"`
	TotalPayable  decimal.Decimal `json:"totalPayable"`
	TotalInterest decimal.Decimal `json:"totalInterest"`
}

// OverdueLoan is a disbursed loan behind its EMI schedule
type OverdueLoan struct {
	*models.LoanResponse
	ExpectedRepaid decimal.Decimal `json:"expectedRepaid"`
	Shortfall      decimal.Decimal `json:"shortfall"`
	MonthsElapsed  int             `json:"monthsElapsed"`
}

// GroupRepayments lists one month of repayments for a group
type GroupRepayments struct {
	GroupID    uint                    `json:"groupId"`
	Year       int                     `json:"year"`
	Month      int                     `json:"month"`
	Total      decimal.Decimal         `json:"total"`
	Repayments []*models.LoanRepayment `json:"repayments"`
}

// Create files a PENDING loan application
func (s *LoanService) Create(ctx context.Context, p *domain.Principal, input *CreateLoanInput, ip string) (*models.LoanResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}

	memberID := p.MemberID
	if input.MemberID != nil {
		memberID = *input.MemberID
	}
	if memberID == 0 {
		return nil, domain.NewValidationError("memberId", "is required")
	}
	if !domain.CanActOnLoan(p, domain.ActionCreate, 0, memberID) {
		return nil, forbidden("cannot apply for a loan on behalf of another member")
	}

	purpose := strings.ToLower(strings.TrimSpace(input.Purpose))
	if err := domain.ValidateLoanRequest(input.Amount, input.Tenure, purpose); err != nil {
		return nil, err
	}
	if input.MonthlyIncome.IsNegative() {
		return nil, domain.NewValidationError("monthlyIncome", "must not be negative")
	}

	member, err := s.repos.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, lookup(err, "member")
	}
	if !member.IsApproved {
		return nil, domain.NewValidationError("memberId", "member is not approved")
	}

	loan := &models.LoanApplication{
		MemberID:       member.ID,
		GroupID:        member.GroupID,
		Amount:         input.Amount.Round(2),
		Purpose:        purpose,
		PurposeDetails: strings.TrimSpace(input.PurposeDetails),
		Tenure:         input.Tenure,
		MonthlyIncome:  input.MonthlyIncome.Round(2),
		Status:         domain.LoanPending,
		AppliedDate:    s.now(),
	}
	log := &models.LoanLog{
		Action:      domain.ActionCreate,
		ToStatus:    domain.LoanPending,
		Description: fmt.Sprintf("applied for %s over %d months", loan.Amount.StringFixed(2), loan.Tenure),
		PerformedBy: p.UserID,
		IPAddress:   ip,
	}
	if err := s.repos.Loans.Create(ctx, loan, log); err != nil {
		return nil, err
	}

	s.after(ctx, loan, domain.ActionCreate, "", p.UserID)
	return loan.ToResponse(decimal.Zero), nil
}

// Get returns one loan with its schedule figures
func (s *LoanService) Get(ctx context.Context, p *domain.Principal, id uint) (*models.LoanResponse, error) {
	loan, err := s.visible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, loan)
}

// List returns loans visible to the caller
func (s *LoanService) List(ctx context.Context, p *domain.Principal, filter repositories.LoanFilter) ([]*models.LoanResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}

	switch {
	case p.IsAdmin():
	case p.HasPermission(domain.PermViewGroupData) && p.GroupID != 0:
		if filter.GroupID != nil && *filter.GroupID != p.GroupID {
			return nil, forbidden("cannot view another group's loans")
		}
		filter.GroupID = &p.GroupID
	default:
		if p.MemberID == 0 {
			return []*models.LoanResponse{}, nil
		}
		if filter.MemberID != nil && *filter.MemberID != p.MemberID {
			return nil, forbidden("members can only view their own loans")
		}
		filter.MemberID = &p.MemberID
	}

	loans, err := s.repos.Loans.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*models.LoanResponse, 0, len(loans))
	for _, l := range loans {
		resp, err := s.respond(ctx, l)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// Approve moves a PENDING loan to APPROVED
func (s *LoanService) Approve(ctx context.Context, p *domain.Principal, id uint, remarks, ip string) (*models.LoanResponse, error) {
	return s.transition(ctx, p, id, domain.ActionApprove, remarks, ip)
}

// Reject moves a PENDING loan to REJECTED
func (s *LoanService) Reject(ctx context.Context, p *domain.Principal, id uint, remarks, ip string) (*models.LoanResponse, error) {
	return s.transition(ctx, p, id, domain.ActionReject, remarks, ip)
}

// Disburse moves an APPROVED loan to DISBURSED
func (s *LoanService) Disburse(ctx context.Context, p *domain.Principal, id uint, remarks, ip string) (*models.LoanResponse, error) {
	return s.transition(ctx, p, id, domain.ActionDisburse, remarks, ip)
}

// UpdateStatus applies the transition that reaches target. REPAID is only reached
// through repayments and PENDING never again, so both are rejected.
func (s *LoanService) UpdateStatus(ctx context.Context, p *domain.Principal, id uint, target, remarks, ip string) (*models.LoanResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	status, err := domain.ParseLoanStatus(target)
	if err != nil {
		return nil, err
	}
	action, err := domain.ActionFor(status)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, action, remarks, ip)
}

func (s *LoanService) transition(ctx context.Context, p *domain.Principal, id uint, action domain.LoanAction, remarks, ip string) (*models.LoanResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}

	var from domain.LoanStatus
	loan, err := s.repos.Loans.Transition(ctx, id, func(l *models.LoanApplication, _ decimal.Decimal) (*repositories.LoanChange, error) {
		if !domain.CanActOnLoan(p, action, l.GroupID, l.MemberID) {
			return nil, forbidden("%s requires a different role for this loan", strings.ToLower(string(action)))
		}
		next, err := domain.NextStatus(l.Status, action)
		if err != nil {
			return nil, err
		}

		from = l.Status
		now := s.now()
		by := p.UserID
		switch action {
		case domain.ActionApprove:
			l.ApprovedDate, l.ApprovedBy = &now, &by
		case domain.ActionReject:
			l.RejectedDate, l.RejectedBy = &now, &by
		case domain.ActionDisburse:
			l.DisbursedDate, l.DisbursedBy = &now, &by
		}
		l.Status = next
		if r := strings.TrimSpace(remarks); r != "" {
			l.Remarks = r
		}

		return &repositories.LoanChange{Log: &models.LoanLog{
			Action:      action,
			FromStatus:  from,
			ToStatus:    next,
			Description: strings.TrimSpace(remarks),
			PerformedBy: by,
			IPAddress:   ip,
		}}, nil
	})
	if err != nil {
		return nil, lookup(err, "loan")
	}

	s.after(ctx, loan, action, from, p.UserID)

	if action == domain.ActionDisburse && s.sdg != nil {
		if _, err := s.sdg.RecordLoanImpact(ctx, loan); err != nil {
			logger.Warn("sdg impact not recorded", zap.Uint("loanId", loan.ID), zap.Error(err))
		}
	}

	return s.respond(ctx, loan)
}

// Repay records a repayment on a DISBURSED loan and closes it once fully repaid.
// Overpayment is rejected.
func (s *LoanService) Repay(ctx context.Context, p *domain.Principal, id uint, input *RepayInput, ip string) (*RepaymentResult, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}

	var (
		repayment *models.LoanRepayment
		repaid    decimal.Decimal
	)
	loan, err := s.repos.Loans.Transition(ctx, id, func(l *models.LoanApplication, already decimal.Decimal) (*repositories.LoanChange, error) {
		if !domain.CanActOnLoan(p, domain.ActionRepay, l.GroupID, l.MemberID) {
			return nil, forbidden("only the borrower, the group TREASURER or ADMIN can record repayments")
		}
		if _, err := domain.NextStatus(l.Status, domain.ActionRepay); err != nil {
			return nil, err
		}

		amount := input.Amount.Round(2)
		outstanding := l.Amount.Sub(already)
		if amount.Sign() <= 0 {
			return nil, domain.NewValidationError("amount", "must be greater than 0")
		}
		if amount.GreaterThan(outstanding) {
			return nil, domain.NewValidationError("amount", fmt.Sprintf("exceeds outstanding balance %s", outstanding.StringFixed(2)))
		}

		now := s.now()
		repaid = already.Add(amount)
		log := &models.LoanLog{
			Action:      domain.ActionRepay,
			FromStatus:  l.Status,
			ToStatus:    l.Status,
			Description: fmt.Sprintf("repaid %s, outstanding %s", amount.StringFixed(2), l.Amount.Sub(repaid).StringFixed(2)),
			PerformedBy: p.UserID,
			IPAddress:   ip,
		}
		if repaid.GreaterThanOrEqual(l.Amount) {
			l.Status = domain.LoanRepaid
			l.RepaidDate = &now
			log.ToStatus = domain.LoanRepaid
		}

		repayment = &models.LoanRepayment{
			Amount:        amount,
			RepaymentDate: now,
			Remarks:       strings.TrimSpace(input.Remarks),
			ReceiptNumber: receipt.Next(receipt.RepaymentPrefix, now),
			RecordedBy:    p.UserID,
		}
		return &repositories.LoanChange{Repayment: repayment, Log: log}, nil
	})
	if err != nil {
		return nil, lookup(err, "loan")
	}

	s.after(ctx, loan, domain.ActionRepay, domain.LoanDisbursed, p.UserID)

	return &RepaymentResult{Loan: loan.ToResponse(repaid), Repayment: repayment}, nil
}

// Repayments lists a loan's repayments
func (s *LoanService) Repayments(ctx context.Context, p *domain.Principal, id uint) ([]*models.LoanRepayment, error) {
	if _, err := s.visible(ctx, p, id); err != nil {
		return nil, err
	}
	return s.repos.Loans.ListRepayments(ctx, id)
}

// Logs returns a loan's audit trail
func (s *LoanService) Logs(ctx context.Context, p *domain.Principal, id uint) ([]*models.LoanLog, error) {
	if _, err := s.visible(ctx, p, id); err != nil {
		return nil, err
	}
	return s.repos.Loans.ListLogs(ctx, id)
}

// QuoteEMI computes the monthly installment for an amount and tenure
func (s *LoanService) QuoteEMI(amount decimal.Decimal, tenure int) (*EMIQuote, error) {
	if err := domain.ValidateLoanRequest(amount, tenure, "quote"); err != nil {
		return nil, err
	}
	emi := domain.CalculateEMI(amount, tenure)
	total := emi.Mul(decimal.NewFromInt(int64(tenure)))
	return &EMIQuote{
		Amount:        amount,
		Tenure:        tenure,
		AnnualRate:    domain.AnnualInterestRate,
		EMI:           emi,
		TotalPayable:  total,
		TotalInterest: total.Sub(amount),
	}, nil
}

// Overdue lists a group's disbursed loans that are behind schedule
func (s *LoanService) Overdue(ctx context.Context, p *domain.Principal, groupID uint) ([]*OverdueLoan, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !canViewGroup(p, groupID) {
		return nil, forbidden("cannot view another group's loans")
	}

	status := domain.LoanDisbursed
	loans, err := s.repos.Loans.List(ctx, repositories.LoanFilter{GroupID: &groupID, Status: &status})
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*OverdueLoan, 0)
	for _, l := range loans {
		if l.DisbursedDate == nil {
			continue
		}
		repaid, err := s.repos.Loans.TotalRepaid(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		if !domain.IsOverdue(l.Amount, l.Tenure, *l.DisbursedDate, now, repaid) {
			continue
		}
		expected := domain.ExpectedRepayment(l.Amount, l.Tenure, *l.DisbursedDate, now)
		out = append(out, &OverdueLoan{
			LoanResponse:   l.ToResponse(repaid),
			ExpectedRepaid: expected,
			Shortfall:      expected.Sub(repaid),
			MonthsElapsed:  domain.MonthsElapsed(*l.DisbursedDate, now),
		})
	}
	return out, nil
}

// GroupRepayments lists a group's repayments in one calendar month (IST).
// Zero year or month means the current one.
func (s *LoanService) GroupRepayments(ctx context.Context, p *domain.Principal, groupID uint, year, month int) (*GroupRepayments, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !canViewGroup(p, groupID) {
		return nil, forbidden("cannot view another group's repayments")
	}

	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, domain.NewValidationError("month", "must be between 1 and 12")
	}

	from, to := timeutil.MonthRange(year, time.Month(month))
	repayments, err := s.repos.Loans.ListGroupRepayments(ctx, groupID, from, to)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, r := range repayments {
		total = total.Add(r.Amount)
	}
	return &GroupRepayments{GroupID: groupID, Year: year, Month: month, Total: total, Repayments: repayments}, nil
}

// visible loads a loan the caller may read: the borrower, group viewers and ADMIN
func (s *LoanService) visible(ctx context.Context, p *domain.Principal, id uint) (*models.LoanApplication, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	loan, err := s.repos.Loans.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "loan")
	}
	if loan.MemberID != p.MemberID && !canViewGroup(p, loan.GroupID) {
		return nil, forbidden("cannot view this loan")
	}
	return loan, nil
}

func (s *LoanService) respond(ctx context.Context, loan *models.LoanApplication) (*models.LoanResponse, error) {
	repaid, err := s.repos.Loans.TotalRepaid(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	return loan.ToResponse(repaid), nil
}

// after counts, logs and publishes a committed lifecycle step
func (s *LoanService) after(ctx context.Context, loan *models.LoanApplication, action domain.LoanAction, from domain.LoanStatus, by uint) {
	metrics.LoanTransitionsTotal.WithLabelValues(string(action), string(loan.Status)).Inc()
	logger.Info("loan transition",
		zap.Uint("loanId", loan.ID),
		zap.String("action", string(action)),
		zap.String("from", string(from)),
		zap.String("to", string(loan.Status)),
		zap.Uint("by", by),
	)

	event := domain.LoanEvent{
		LoanID:      loan.ID,
		GroupID:     loan.GroupID,
		MemberID:    loan.MemberID,
		Action:      action,
		FromStatus:  from,
		ToStatus:    loan.Status,
		Amount:      loan.Amount,
		PerformedBy: by,
		OccurredAt:  s.now(),
	}
	if err := s.publisher.PublishLoanEvent(ctx, event); err != nil {
		logger.Warn("loan event not published", zap.Uint("loanId", loan.ID), zap.Error(err))
	}
}
