package repositories

import (
	"context"

	"github.com/takopi/backend/internal/models"
	"gorm.io/gorm"
)

// PurchaseRepository defines the interface for purchase records
type PurchaseRepository interface {
	CreatePurchase(ctx context.Context, purchase *models.Purchase) error
	HasPurchased(ctx context.Context, buyerID uint, contentID string) (bool, error)
	GetPurchasedContentIDs(ctx context.Context, buyerID uint, contentIDs []string) (map[string]bool, error)
	GetPurchasesByBuyer(ctx context.Context, buyerID uint, page, limit int) ([]models.Purchase, int64, error)
}

// PostgresPurchaseRepository implements PurchaseRepository for PostgreSQL
type PostgresPurchaseRepository struct {
	db *gorm.DB
}

func NewPostgresPurchaseRepository(db *gorm.DB) *PostgresPurchaseRepository {
	return &PostgresPurchaseRepository{db: db}
}

// CreatePurchase inserts the record; buying the same item twice yields ErrDuplicate.
func (r *PostgresPurchaseRepository) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	return translateGormError(r.db.WithContext(ctx).Create(purchase).Error)
}

func (r *PostgresPurchaseRepository) HasPurchased(ctx context.Context, buyerID uint, contentID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Purchase{}).Where("buyer_id = ? AND content_id = ?", buyerID, contentID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresPurchaseRepository) GetPurchasedContentIDs(ctx context.Context, buyerID uint, contentIDs []string) (map[string]bool, error) {
	bought := make(map[string]bool)
	if len(contentIDs) == 0 {
		return bought, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("buyer_id = ? AND content_id IN ?", buyerID, contentIDs).
		Pluck("content_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		bought[id] = true
	}
	return bought, nil
}

func (r *PostgresPurchaseRepository) GetPurchasesByBuyer(ctx context.Context, buyerID uint, page, limit int) ([]models.Purchase, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Purchase{}).Where("buyer_id = ?", buyerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var purchases []models.Purchase
	err := db.Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&purchases).Error
	return purchases, total, err
}
