package models

import "time"

// Like represents a like on a piece of content
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_content_like"`
	ContentID string    `json:"content_id" gorm:"size:24;not null;index;uniqueIndex:idx_user_content_like"` // MongoDB ObjectID hex
	CreatedAt time.Time `json:"created_at"`
}
