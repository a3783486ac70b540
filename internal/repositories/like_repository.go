package repositories

import (
	"context"

	"github.com/takopi/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, userID uint, contentID string) error
	HasUserLiked(ctx context.Context, userID uint, contentID string) (bool, error)
	GetLikedContentIDs(ctx context.Context, userID uint, contentIDs []string) (map[string]bool, error)
	GetLikesByUser(ctx context.Context, userID uint, page, limit int) ([]models.Like, int64, error)
	DeleteLikesForContent(ctx context.Context, contentID string) error
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike inserts the like; a second like on the same content yields ErrDuplicate.
func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	return translateGormError(r.db.WithContext(ctx).Create(like).Error)
}

// DeleteLike removes the like, or returns ErrNotFound when there was none.
func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, userID uint, contentID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND content_id = ?", userID, contentID).Delete(&models.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasUserLiked checks if a user has liked a specific item
func (r *PostgresLikeRepository) HasUserLiked(ctx context.Context, userID uint, contentID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("user_id = ? AND content_id = ?", userID, contentID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikedContentIDs returns the subset of contentIDs the user liked.
func (r *PostgresLikeRepository) GetLikedContentIDs(ctx context.Context, userID uint, contentIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if len(contentIDs) == 0 {
		return liked, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND content_id IN ?", userID, contentIDs).
		Pluck("content_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (r *PostgresLikeRepository) GetLikesByUser(ctx context.Context, userID uint, page, limit int) ([]models.Like, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Like{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var likes []models.Like
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&likes).Error
	return likes, total, err
}

// DeleteLikesForContent drops every like of a removed item.
func (r *PostgresLikeRepository) DeleteLikesForContent(ctx context.Context, contentID string) error {
	return r.db.WithContext(ctx).Where("content_id = ?", contentID).Delete(&models.Like{}).Error
}
