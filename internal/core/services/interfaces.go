package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TokenDenylist remembers access tokens revoked before their expiry
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// LoanEventPublisher ships loan lifecycle events to downstream consumers
type LoanEventPublisher interface {
	PublishLoanEvent(ctx context.Context, event domain.LoanEvent) error
}

type nopDenylist struct{}

func (nopDenylist) Revoke(context.Context, string, time.Duration) error { return nil }
func (nopDenylist) IsRevoked(context.Context, string) (bool, error)     { return false, nil }

type nopPublisher struct{}

func (nopPublisher) PublishLoanEvent(context.Context, domain.LoanEvent) error { return nil }

// lookup maps a missing row onto domain.ErrNotFound
func lookup(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return err
}

func requireAuth(p *domain.Principal) error {
	if !p.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return nil
}

func forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrForbidden, fmt.Sprintf(format, args...))
}

// groupFund is Σ deposits minus the unpaid principal of disbursed loans
func groupFund(ctx context.Context, repos *repositories.Repositories, groupID uint) (decimal.Decimal, error) {
	summary, err := repos.Savings.Summarize(ctx, repositories.DepositFilter{GroupID: &groupID})
	if err != nil {
		return decimal.Zero, err
	}
	outstanding, err := repos.Loans.Outstanding(ctx, groupID)
	if err != nil {
		return decimal.Zero, err
	}
	return summary.TotalDeposited.Sub(outstanding), nil
}

// canViewGroup is true for ADMIN and for group members holding VIEW_GROUP_DATA
func canViewGroup(p *domain.Principal, groupID uint) bool {
	if p.IsAdmin() {
		return true
	}
	return p.InGroup(groupID) && p.HasPermission(domain.PermViewGroupData)
}
