package repositories

import (
	"context"
	"time"

	"shg-finance/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type savingRepository struct {
	db *gorm.DB
}

// NewSavingRepository creates a new saving deposit repository
func NewSavingRepository(db *gorm.DB) SavingRepository {
	return &savingRepository{db: db}
}

func (r *savingRepository) Create(ctx context.Context, deposit *models.SavingDeposit) error {
	return translate(r.db.WithContext(ctx).Create(deposit).Error)
}

func (r *savingRepository) scoped(ctx context.Context, f DepositFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.SavingDeposit{})
	if f.MemberID != nil {
		query = query.Where("member_id = ?", *f.MemberID)
	}
	if f.GroupID != nil {
		query = query.Where("group_id = ?", *f.GroupID)
	}
	if f.From != nil {
		query = query.Where("deposit_date >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("deposit_date <= ?", *f.To)
	}
	return query
}

func (r *savingRepository) List(ctx context.Context, filter DepositFilter, offset, limit int) ([]*models.SavingDeposit, int64, error) {
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.scoped(ctx, filter).Order("deposit_date DESC").Order("id DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}

	var deposits []*models.SavingDeposit
	err := query.Find(&deposits).Error
	return deposits, total, err
}

func (r *savingRepository) Summarize(ctx context.Context, filter DepositFilter) (*DepositSummary, error) {
	var row struct {
		TotalAmount  decimal.NullDecimal
		DepositCount int64
		LastDeposit  *time.Time
	}
	err := r.scoped(ctx, filter).
		Select("SUM(amount) AS total_amount, COUNT(*) AS deposit_count, MAX(deposit_date) AS last_deposit").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	summary := &DepositSummary{
		TotalDeposited:   decimal.Zero,
		NumberOfDeposits: row.DepositCount,
		LastUpdated:      row.LastDeposit,
	}
	if row.TotalAmount.Valid {
		summary.TotalDeposited = row.TotalAmount.Decimal
	}
	return summary, nil
}
