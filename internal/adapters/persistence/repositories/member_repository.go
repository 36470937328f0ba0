package repositories

import (
	"context"

	"shg-finance/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return translate(r.db.WithContext(ctx).Create(member).Error)
}

func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetByUserID(ctx context.Context, userID uint) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetByAadhaar(ctx context.Context, aadhaar string) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).Where("aadhaar = ?", aadhaar).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) List(ctx context.Context, filter MemberFilter) ([]*models.Member, error) {
	query := r.db.WithContext(ctx).Model(&models.Member{})
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.Approved != nil {
		query = query.Where("is_approved = ?", *filter.Approved)
	}

	var members []*models.Member
	err := query.Order("name ASC").Find(&members).Error
	return members, err
}

func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	return translate(r.db.WithContext(ctx).Save(member).Error)
}

func (r *memberRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Member{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *memberRepository) CountByGroup(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Member{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}
