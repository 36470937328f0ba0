package repositories

import (
	"context"
	"time"

	"shg-finance/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// firstWhere loads the first row of T matching query
func firstWhere[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where(query, args...).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func existsWhere[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(new(T)).Where(query, args...).Count(&count).Error
	return count > 0, err
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns the login account store
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return firstWhere[models.User](ctx, r.db, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return firstWhere[models.User](ctx, r.db, "username = ?", username)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return existsWhere[models.User](ctx, r.db, "username = ?", username)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return existsWhere[models.User](ctx, r.db, "email = ?", email)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository stores hashed refresh tokens; raw tokens never reach the database
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetByTokenHash returns the token whether or not it has been revoked
func (r *refreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	return firstWhere[models.RefreshToken](ctx, r.db, "token_hash = ?", tokenHash)
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, id uint) error {
	return r.revokeWhere(ctx, "id = ?", id)
}

func (r *refreshTokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	return r.revokeWhere(ctx, "token_hash = ?", tokenHash)
}

func (r *refreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return r.revokeWhere(ctx, "user_id = ? AND revoked_at IS NULL", userID)
}

func (r *refreshTokenRepository) revokeWhere(ctx context.Context, query string, args ...any) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where(query, args...).
		Update("revoked_at", &now).Error
}

// DeleteExpired purges expired and revoked tokens. Called from the nightly job.
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", time.Now()).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
