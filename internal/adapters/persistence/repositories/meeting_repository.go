package repositories

import (
	"context"

	"shg-finance/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) MeetingRepository {
	return &meetingRepository{db: db}
}

func (r *meetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

func (r *meetingRepository) GetByID(ctx context.Context, id uint) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := r.db.WithContext(ctx).First(&meeting, id).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepository) List(ctx context.Context, groupID *uint) ([]*models.Meeting, error) {
	query := r.db.WithContext(ctx).Model(&models.Meeting{})
	if groupID != nil {
		query = query.Where("group_id = ?", *groupID)
	}
	var meetings []*models.Meeting
	err := query.Order("meeting_date DESC").Find(&meetings).Error
	return meetings, err
}

func (r *meetingRepository) Update(ctx context.Context, meeting *models.Meeting) error {
	return r.db.WithContext(ctx).Save(meeting).Error
}
