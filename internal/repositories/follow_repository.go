package repositories

import (
	"context"

	"github.com/takopi/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(ctx context.Context, follow *models.Follow) error
	DeleteFollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowers(ctx context.Context, userID uint, page, limit int) ([]models.User, int64, error)
	GetFollowing(ctx context.Context, userID uint, page, limit int) ([]models.User, int64, error)
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// CreateFollow inserts the follow and moves both users' counters in one transaction.
func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(follow).Error; err != nil {
			return translateGormError(err)
		}
		return adjustFollowCounts(tx, follow.FollowerID, follow.FollowingID, 1)
	})
}

// DeleteFollow removes the follow and moves both users' counters in one transaction.
func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return adjustFollowCounts(tx, followerID, followingID, -1)
	})
}

func adjustFollowCounts(tx *gorm.DB, followerID, followingID uint, delta int) error {
	if err := adjustUserCounter(tx, followerID, "following_count", delta); err != nil {
		return err
	}
	return adjustUserCounter(tx, followingID, "followers_count", delta)
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ? AND following_id = ?", followerID, followingID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFollowers lists users following userID, most recent follow first.
func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID uint, page, limit int) ([]models.User, int64, error) {
	return r.listUsers(ctx, "follows.follower_id", "follows.following_id", userID, page, limit)
}

// GetFollowing lists users that userID follows, most recent follow first.
func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID uint, page, limit int) ([]models.User, int64, error) {
	return r.listUsers(ctx, "follows.following_id", "follows.follower_id", userID, page, limit)
}

func (r *PostgresFollowRepository) listUsers(ctx context.Context, joinCol, filterCol string, userID uint, page, limit int) ([]models.User, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Follow{}).Where(filterCol+" = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := db.Model(&models.User{}).
		Joins("JOIN follows ON users.id = "+joinCol).
		Where(filterCol+" = ?", userID).
		Order("follows.created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *PostgresFollowRepository) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error
	return ids, err
}
