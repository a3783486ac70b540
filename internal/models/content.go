package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
)

const DefaultCurrency = "USD"

// Content is a 3D model listing stored in MongoDB
type Content struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID        uint               `json:"owner_id" bson:"owner_id"`
	Title          string             `json:"title" bson:"title"`
	Description    string             `json:"description" bson:"description"`
	Category       string             `json:"category" bson:"category"`
	Tags           []string           `json:"tags" bson:"tags"`
	ModelURL       string             `json:"model_url,omitempty" bson:"model_url"`
	ThumbnailURL   string             `json:"thumbnail_url" bson:"thumbnail_url"`
	Price          int64              `json:"price" bson:"price"` // minor units
	Currency       string             `json:"currency" bson:"currency"`
	Status         string             `json:"status" bson:"status"`
	GenerationID   string             `json:"generation_id,omitempty" bson:"generation_id,omitempty"`
	LikesCount     int                `json:"likes_count" bson:"likes_count"`
	PurchasesCount int                `json:"purchases_count" bson:"purchases_count"`
	ViewsCount     int                `json:"views_count" bson:"views_count"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
	PublishedAt    *time.Time         `json:"published_at,omitempty" bson:"published_at,omitempty"`
}

func (c Content) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

func (c Content) IsFree() bool {
	return c.Price == 0
}

// ContentFilter narrows listing queries. Zero values mean "any".
type ContentFilter struct {
	OwnerID  uint
	OwnerIDs []uint
	Status   string
	Category string
	Query    string
	Sort     string // latest, popular, price_asc, price_desc
}

// CreateContentRequest defines the request body for creating a new draft
type CreateContentRequest struct {
	Title        string   `json:"title" validate:"required,min=1,max=120"`
	Description  string   `json:"description" validate:"max=5000"`
	Category     string   `json:"category" validate:"omitempty,max=40"`
	Tags         []string `json:"tags" validate:"omitempty,max=10,dive,max=30"`
	Price        int64    `json:"price" validate:"min=0,max=100000000"`
	Currency     string   `json:"currency" validate:"omitempty,len=3"`
	ModelURL     string   `json:"model_url" validate:"required_without=GenerationID,omitempty,url"`
	GenerationID string   `json:"generation_id" validate:"omitempty,len=24,hexadecimal"`
	ThumbnailURL string   `json:"thumbnail_url" validate:"omitempty,url"`
}

// UpdateContentRequest defines the request body for updating an existing item
type UpdateContentRequest struct {
	Title        *string  `json:"title,omitempty" validate:"omitempty,min=1,max=120"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category     *string  `json:"category,omitempty" validate:"omitempty,max=40"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,max=30"`
	Price        *int64   `json:"price,omitempty" validate:"omitempty,min=0,max=100000000"`
	ModelURL     *string  `json:"model_url,omitempty" validate:"omitempty,url"`
	ThumbnailURL *string  `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
}
