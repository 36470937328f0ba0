package repositories

import (
	"context"

	"shg-finance/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type sdgRepository struct {
	db *gorm.DB
}

// NewSDGRepository creates a new SDG mapping and impact repository
func NewSDGRepository(db *gorm.DB) SDGRepository {
	return &sdgRepository{db: db}
}

func (r *sdgRepository) CreateMapping(ctx context.Context, mapping *models.SDGMapping) error {
	return r.db.WithContext(ctx).Create(mapping).Error
}

func (r *sdgRepository) ListMappings(ctx context.Context) ([]*models.SDGMapping, error) {
	var mappings []*models.SDGMapping
	err := r.db.WithContext(ctx).Order("id ASC").Find(&mappings).Error
	return mappings, err
}

func (r *sdgRepository) CreateImpact(ctx context.Context, impact *models.SDGImpact) error {
	return r.db.WithContext(ctx).Create(impact).Error
}

func (r *sdgRepository) ListImpacts(ctx context.Context, groupID uint) ([]*models.SDGImpact, error) {
	var impacts []*models.SDGImpact
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("year DESC").Order("month DESC").Order("id DESC").
		Find(&impacts).Error
	return impacts, err
}

func (r *sdgRepository) SummarizeImpacts(ctx context.Context, groupID uint) ([]*models.GoalSummary, error) {
	var rows []struct {
		SDGGoal     int
		TotalValue  decimal.Decimal
		RecordCount int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.SDGImpact{}).
		Select("sdg_goal, SUM(value) AS total_value, COUNT(*) AS record_count").
		Where("group_id = ?", groupID).
		Group("sdg_goal").
		Order("sdg_goal ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.GoalSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, &models.GoalSummary{
			SDGGoal:     row.SDGGoal,
			TotalValue:  row.TotalValue,
			RecordCount: row.RecordCount,
		})
	}
	return summaries, nil
}
