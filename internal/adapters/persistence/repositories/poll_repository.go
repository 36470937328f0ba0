package repositories

import (
	"context"
	"time"

	"shg-finance/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type pollRepository struct {
	db *gorm.DB
}

// NewPollRepository creates a new poll repository
func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

func (r *pollRepository) Create(ctx context.Context, poll *models.Poll) error {
	return r.db.WithContext(ctx).Create(poll).Error
}

func (r *pollRepository) GetByID(ctx context.Context, id uint) (*models.Poll, error) {
	var poll models.Poll
	if err := r.db.WithContext(ctx).First(&poll, id).Error; err != nil {
		return nil, err
	}
	return &poll, nil
}

func (r *pollRepository) List(ctx context.Context, groupID *uint) ([]*models.Poll, error) {
	query := r.db.WithContext(ctx).Model(&models.Poll{})
	if groupID != nil {
		query = query.Where("group_id = ?", *groupID)
	}
	var polls []*models.Poll
	err := query.Order("created_at DESC").Find(&polls).Error
	return polls, err
}

func (r *pollRepository) Update(ctx context.Context, poll *models.Poll) error {
	return r.db.WithContext(ctx).Save(poll).Error
}

// AddVote holds the poll row FOR UPDATE so a concurrent close either lands
// before the check or waits for the ballot. idx_poll_member rejects a second ballot.
func (r *pollRepository) AddVote(ctx context.Context, vote *models.PollVote, check VoteCheck) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var poll models.Poll
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&poll, vote.PollID).Error; err != nil {
			return err
		}
		if check != nil {
			if err := check(&poll); err != nil {
				return err
			}
		}
		return tx.Create(vote).Error
	})
	return translate(err)
}

func (r *pollRepository) ListVotes(ctx context.Context, pollID uint) ([]*models.PollVote, error) {
	var votes []*models.PollVote
	err := r.db.WithContext(ctx).Where("poll_id = ?", pollID).Order("id ASC").Find(&votes).Error
	return votes, err
}

// CloseExpired deactivates active polls whose deadline has passed
func (r *pollRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Poll{}).
		Where("is_active = ?", true).
		Where("deadline IS NOT NULL AND deadline < ?", now).
		Updates(map[string]interface{}{"is_active": false, "closed_at": now})
	return result.RowsAffected, result.Error
}
