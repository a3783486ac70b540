package models

import "time"

// Purchase records that a buyer acquired a model. Prices are in minor currency units.
type Purchase struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Reference string    `json:"reference" gorm:"size:36;uniqueIndex;not null"`
	BuyerID   uint      `json:"buyer_id" gorm:"not null;index;uniqueIndex:idx_buyer_content"`
	SellerID  uint      `json:"seller_id" gorm:"not null;index"`
	ContentID string    `json:"content_id" gorm:"size:24;not null;index;uniqueIndex:idx_buyer_content"`
	Price     int64     `json:"price" gorm:"not null"`
	Currency  string    `json:"currency" gorm:"size:3;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
