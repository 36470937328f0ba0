package repositories

import (
	"context"
	"time"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create inserts the application and its first audit entry in one transaction
func (r *loanRepository) Create(ctx context.Context, loan *models.LoanApplication, log *models.LoanLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(loan).Error; err != nil {
			return err
		}
		if log == nil {
			return nil
		}
		log.LoanID = loan.ID
		return tx.Create(log).Error
	})
}

func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.LoanApplication, error) {
	var loan models.LoanApplication
	if err := r.db.WithContext(ctx).First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context, filter LoanFilter) ([]*models.LoanApplication, error) {
	query := r.db.WithContext(ctx).Model(&models.LoanApplication{})
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var loans []*models.LoanApplication
	err := query.Order("applied_date DESC").Order("id DESC").Find(&loans).Error
	return loans, err
}

// Transition locks the row with SELECT ... FOR UPDATE so concurrent
// transitions on the same loan run one after another.
func (r *loanRepository) Transition(ctx context.Context, id uint, fn TransitionFunc) (*models.LoanApplication, error) {
	var updated *models.LoanApplication

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.LoanApplication
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, id).Error; err != nil {
			return err
		}

		repaid, err := totalRepaid(tx, id)
		if err != nil {
			return err
		}

		working := current
		change, err := fn(&working, repaid)
		if err != nil {
			return err
		}

		if err := tx.Save(&working).Error; err != nil {
			return err
		}
		if change != nil && change.Repayment != nil {
			change.Repayment.LoanID = id
			if err := tx.Create(change.Repayment).Error; err != nil {
				return err
			}
		}
		if change != nil && change.Log != nil {
			change.Log.LoanID = id
			if err := tx.Create(change.Log).Error; err != nil {
				return err
			}
		}

		updated = &working
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

func (r *loanRepository) TotalRepaid(ctx context.Context, loanID uint) (decimal.Decimal, error) {
	return totalRepaid(r.db.WithContext(ctx), loanID)
}

func totalRepaid(db *gorm.DB, loanID uint) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := db.Model(&models.LoanRepayment{}).
		Where("loan_id = ?", loanID).
		Select("SUM(amount)").
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *loanRepository) ListRepayments(ctx context.Context, loanID uint) ([]*models.LoanRepayment, error) {
	var repayments []*models.LoanRepayment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("repayment_date ASC").
		Find(&repayments).Error
	return repayments, err
}

func (r *loanRepository) ListGroupRepayments(ctx context.Context, groupID uint, from, to time.Time) ([]*models.LoanRepayment, error) {
	var repayments []*models.LoanRepayment
	err := r.db.WithContext(ctx).
		Joins("JOIN loan_applications ON loan_applications.id = loan_repayments.loan_id").
		Where("loan_applications.group_id = ?", groupID).
		Where("loan_repayments.repayment_date BETWEEN ? AND ?", from, to).
		Order("loan_repayments.repayment_date ASC").
		Find(&repayments).Error
	return repayments, err
}

func (r *loanRepository) ListLogs(ctx context.Context, loanID uint) ([]*models.LoanLog, error) {
	var logs []*models.LoanLog
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}

func (r *loanRepository) Outstanding(ctx context.Context, groupID uint) (decimal.Decimal, error) {
	db := r.db.WithContext(ctx)

	var principal decimal.NullDecimal
	err := db.Model(&models.LoanApplication{}).
		Where("group_id = ? AND status = ?", groupID, domain.LoanDisbursed).
		Select("SUM(amount)").
		Row().Scan(&principal)
	if err != nil || !principal.Valid {
		return decimal.Zero, err
	}

	var repaid decimal.NullDecimal
	err = db.Model(&models.LoanRepayment{}).
		Joins("JOIN loan_applications ON loan_applications.id = loan_repayments.loan_id").
		Where("loan_applications.group_id = ? AND loan_applications.status = ?", groupID, domain.LoanDisbursed).
		Select("SUM(loan_repayments.amount)").
		Row().Scan(&repaid)
	if err != nil {
		return decimal.Zero, err
	}

	if repaid.Valid {
		return principal.Decimal.Sub(repaid.Decimal), nil
	}
	return principal.Decimal, nil
}
