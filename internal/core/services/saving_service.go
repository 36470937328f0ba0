package services

import (
	"context"
	"strings"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/logger"
	"shg-finance/internal/pkg/metrics"
	"shg-finance/internal/pkg/pagination"
	"shg-finance/internal/pkg/receipt"
	"shg-finance/internal/pkg/timeutil"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SavingService handles the append-only savings ledger
type SavingService struct {
	repos *repositories.Repositories
	now   func() time.Time
}

// NewSavingService creates a new saving service
func NewSavingService(repos *repositories.Repositories) *SavingService {
	return &SavingService{repos: repos, now: timeutil.Now}
}

// DepositInput represents deposit input
type DepositInput struct {
	MemberID uint            `json:"memberId"`
	GroupID  *uint           `json:"groupId"`
	Amount   decimal.Decimal `json:"amount"`
	Remarks  string          `json:"remarks"`
}

// SavingsQuery narrows a deposit listing. Dates are inclusive calendar days in IST.
type SavingsQuery struct {
	MemberID *uint
	GroupID  *uint
	From     *time.Time
	To       *time.Time
	Page     int
}

// GroupSummary is the on-read aggregate of a group's deposits
type GroupSummary struct {
	GroupID uint `json:"groupId"`
	repositories.DepositSummary
}

// Deposit records a new saving deposit. Members deposit for themselves;
// the group TREASURER and ADMIN may record deposits for anyone.
func (s *SavingService) Deposit(ctx context.Context, p *domain.Principal, input *DepositInput) (*models.SavingDeposit, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}

	member, err := s.repos.Members.GetByID(ctx, input.MemberID)
	if err != nil {
		return nil, lookup(err, "member")
	}

	self := p.MemberID != 0 && p.MemberID == member.ID
	if !self && !p.ActsFor(member.GroupID, domain.RoleTreasurer) {
		return nil, forbidden("cannot record deposits for another member")
	}

	v := &domain.ValidationError{}
	if input.Amount.Sign() <= 0 {
		v.Add("amount", "must be greater than 0")
	}
	if !member.IsApproved {
		v.Add("memberId", "member is not approved")
	}
	if input.GroupID != nil && *input.GroupID != member.GroupID {
		v.Add("groupId", "does not match the member's group")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	at := s.now()
	deposit := &models.SavingDeposit{
		MemberID:      member.ID,
		GroupID:       member.GroupID,
		Amount:        input.Amount.Round(2),
		Remarks:       strings.TrimSpace(input.Remarks),
		DepositDate:   at,
		ReceiptNumber: receipt.Next(receipt.DepositPrefix, at),
		CreatedBy:     p.UserID,
	}
	if err := s.repos.Savings.Create(ctx, deposit); err != nil {
		return nil, err
	}

	metrics.DepositsTotal.Inc()
	logger.Info("saving deposit recorded",
		zap.Uint("memberId", deposit.MemberID),
		zap.Uint("groupId", deposit.GroupID),
		zap.String("amount", deposit.Amount.StringFixed(2)),
		zap.String("receipt", deposit.ReceiptNumber),
	)
	return deposit, nil
}

// List returns one fixed-size page of deposits visible to the caller
func (s *SavingService) List(ctx context.Context, p *domain.Principal, q *SavingsQuery) (*pagination.Response, error) {
	filter, err := s.scope(p, q)
	if err != nil {
		return nil, err
	}

	params := pagination.New(q.Page, pagination.SavingsPageSize)
	deposits, total, err := s.repos.Savings.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewResponse(deposits, params, total), nil
}

// ListAll returns every deposit matching the query, newest first
func (s *SavingService) ListAll(ctx context.Context, p *domain.Principal, q *SavingsQuery) ([]*models.SavingDeposit, error) {
	filter, err := s.scope(p, q)
	if err != nil {
		return nil, err
	}
	deposits, _, err := s.repos.Savings.List(ctx, filter, 0, 0)
	return deposits, err
}

// Summary aggregates a group's deposits. It is computed on every call.
func (s *SavingService) Summary(ctx context.Context, p *domain.Principal, groupID uint) (*GroupSummary, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !p.InGroup(groupID) {
		return nil, forbidden("cannot view another group's savings")
	}
	if _, err := s.repos.Groups.GetByID(ctx, groupID); err != nil {
		return nil, lookup(err, "group")
	}

	sum, err := s.repos.Savings.Summarize(ctx, repositories.DepositFilter{GroupID: &groupID})
	if err != nil {
		return nil, err
	}
	return &GroupSummary{GroupID: groupID, DepositSummary: *sum}, nil
}

// scope narrows a query to what the caller may see
func (s *SavingService) scope(p *domain.Principal, q *SavingsQuery) (repositories.DepositFilter, error) {
	filter := repositories.DepositFilter{MemberID: q.MemberID, GroupID: q.GroupID}
	if err := requireAuth(p); err != nil {
		return filter, err
	}

	if q.From != nil {
		from := timeutil.StartOfDay(*q.From)
		filter.From = &from
	}
	if q.To != nil {
		to := timeutil.EndOfDay(*q.To)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, domain.NewValidationError("from", "must not be after to")
	}

	switch {
	case p.IsAdmin():
	case p.HasPermission(domain.PermViewGroupData) && p.GroupID != 0:
		if q.GroupID != nil && *q.GroupID != p.GroupID {
			return filter, forbidden("cannot view another group's savings")
		}
		filter.GroupID = &p.GroupID
	default:
		if p.MemberID == 0 {
			return filter, forbidden("no member record linked to this account")
		}
		if q.MemberID != nil && *q.MemberID != p.MemberID {
			return filter, forbidden("members can only view their own deposits")
		}
		filter.MemberID = &p.MemberID
	}
	return filter, nil
}
