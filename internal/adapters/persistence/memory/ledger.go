package memory

import (
	"context"
	"sort"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type savingRepo struct{ s *Store }

func (r *savingRepo) Create(_ context.Context, deposit *models.SavingDeposit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.deposits {
		if d.ReceiptNumber == deposit.ReceiptNumber {
			return duplicate("receipt number")
		}
	}
	deposit.ID = r.s.nextID("saving_deposits")
	stamp(&deposit.CreatedAt)
	cp := *deposit
	r.s.deposits[deposit.ID] = &cp
	return nil
}

func matchDeposit(d *models.SavingDeposit, f repositories.DepositFilter) bool {
	if f.MemberID != nil && d.MemberID != *f.MemberID {
		return false
	}
	if f.GroupID != nil && d.GroupID != *f.GroupID {
		return false
	}
	if f.From != nil && d.DepositDate.Before(*f.From) {
		return false
	}
	if f.To != nil && d.DepositDate.After(*f.To) {
		return false
	}
	return true
}

func (r *savingRepo) filtered(f repositories.DepositFilter) []*models.SavingDeposit {
	out := make([]*models.SavingDeposit, 0)
	for _, d := range r.s.deposits {
		if matchDeposit(d, f) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DepositDate.Equal(out[j].DepositDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].DepositDate.After(out[j].DepositDate)
	})
	return out
}

func (r *savingRepo) List(_ context.Context, filter repositories.DepositFilter, offset, limit int) ([]*models.SavingDeposit, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.filtered(filter)
	total := int64(len(all))
	if limit <= 0 {
		return all, total, nil
	}
	if offset >= len(all) {
		return []*models.SavingDeposit{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *savingRepo) Summarize(_ context.Context, filter repositories.DepositFilter) (*repositories.DepositSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	summary := &repositories.DepositSummary{TotalDeposited: decimal.Zero}
	for _, d := range r.s.deposits {
		if !matchDeposit(d, filter) {
			continue
		}
		summary.TotalDeposited = summary.TotalDeposited.Add(d.Amount)
		summary.NumberOfDeposits++
		if summary.LastUpdated == nil || d.DepositDate.After(*summary.LastUpdated) {
			last := d.DepositDate
			summary.LastUpdated = &last
		}
	}
	return summary, nil
}

type loanRepo struct{ s *Store }

func (r *loanRepo) Create(_ context.Context, loan *models.LoanApplication, log *models.LoanLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	loan.ID = r.s.nextID("loan_applications")
	stamp(&loan.CreatedAt)
	loan.UpdatedAt = loan.CreatedAt
	cp := *loan
	r.s.loans[loan.ID] = &cp

	if log != nil {
		log.LoanID = loan.ID
		r.insertLog(log)
	}
	return nil
}

// insertLog must be called with the write lock held
func (r *loanRepo) insertLog(log *models.LoanLog) {
	log.ID = r.s.nextID("loan_logs")
	stamp(&log.CreatedAt)
	cp := *log
	r.s.loanLogs[log.ID] = &cp
}

func (r *loanRepo) GetByID(_ context.Context, id uint) (*models.LoanApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *loanRepo) List(_ context.Context, filter repositories.LoanFilter) ([]*models.LoanApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.LoanApplication, 0)
	for _, l := range r.s.loans {
		if filter.MemberID != nil && l.MemberID != *filter.MemberID {
			continue
		}
		if filter.GroupID != nil && l.GroupID != *filter.GroupID {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AppliedDate.Equal(out[j].AppliedDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].AppliedDate.After(out[j].AppliedDate)
	})
	return out, nil
}

// Transition holds the store lock for the whole read-check-write
func (r *loanRepo) Transition(_ context.Context, id uint, fn repositories.TransitionFunc) (*models.LoanApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	working := *stored
	change, err := fn(&working, r.repaidLocked(id))
	if err != nil {
		return nil, err
	}

	if change != nil && change.Repayment != nil {
		for _, rp := range r.s.repayments {
			if rp.ReceiptNumber == change.Repayment.ReceiptNumber {
				return nil, duplicate("receipt number")
			}
		}
	}

	working.UpdatedAt = time.Now()
	saved := working
	r.s.loans[id] = &saved

	if change != nil && change.Repayment != nil {
		change.Repayment.LoanID = id
		change.Repayment.ID = r.s.nextID("loan_repayments")
		stamp(&change.Repayment.CreatedAt)
		cp := *change.Repayment
		r.s.repayments[cp.ID] = &cp
	}
	if change != nil && change.Log != nil {
		change.Log.LoanID = id
		r.insertLog(change.Log)
	}

	out := saved
	return &out, nil
}

func (r *loanRepo) repaidLocked(loanID uint) decimal.Decimal {
	sum := decimal.Zero
	for _, rp := range r.s.repayments {
		if rp.LoanID == loanID {
			sum = sum.Add(rp.Amount)
		}
	}
	return sum
}

func (r *loanRepo) TotalRepaid(_ context.Context, loanID uint) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.repaidLocked(loanID), nil
}

func sortRepayments(out []*models.LoanRepayment) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].RepaymentDate.Equal(out[j].RepaymentDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].RepaymentDate.Before(out[j].RepaymentDate)
	})
}

func (r *loanRepo) ListRepayments(_ context.Context, loanID uint) ([]*models.LoanRepayment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.LoanRepayment, 0)
	for _, rp := range r.s.repayments {
		if rp.LoanID == loanID {
			cp := *rp
			out = append(out, &cp)
		}
	}
	sortRepayments(out)
	return out, nil
}

func (r *loanRepo) ListGroupRepayments(_ context.Context, groupID uint, from, to time.Time) ([]*models.LoanRepayment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.LoanRepayment, 0)
	for _, rp := range r.s.repayments {
		loan, ok := r.s.loans[rp.LoanID]
		if !ok || loan.GroupID != groupID {
			continue
		}
		if rp.RepaymentDate.Before(from) || rp.RepaymentDate.After(to) {
			continue
		}
		cp := *rp
		out = append(out, &cp)
	}
	sortRepayments(out)
	return out, nil
}

func (r *loanRepo) ListLogs(_ context.Context, loanID uint) ([]*models.LoanLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.LoanLog, 0)
	for _, l := range r.s.loanLogs {
		if l.LoanID == loanID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *loanRepo) Outstanding(_ context.Context, groupID uint) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sum := decimal.Zero
	for _, l := range r.s.loans {
		if l.GroupID == groupID && l.Status == domain.LoanDisbursed {
			sum = sum.Add(l.Amount).Sub(r.repaidLocked(l.ID))
		}
	}
	return sum, nil
}
