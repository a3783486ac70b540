package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Username       string         `json:"username" gorm:"size:30;uniqueIndex;not null"`
	Email          string         `json:"email" gorm:"size:255;uniqueIndex;not null"`
	DisplayName    string         `json:"display_name" gorm:"size:60"`
	Bio            string         `json:"bio" gorm:"size:500"`
	AvatarURL      string         `json:"avatar_url"`
	Password       string         `json:"-"`                    // bcrypt hash
	FirebaseUID    *string        `json:"-" gorm:"uniqueIndex"` // nil for local accounts
	FollowersCount int            `json:"followers_count" gorm:"not null;default:0"`
	FollowingCount int            `json:"following_count" gorm:"not null;default:0"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserCompact is the public, embeddable view of a user.
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// PublicProfile is what other users see; email stays private.
type PublicProfile struct {
	UserCompact
	Bio            string    `json:"bio"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) ToPublic() PublicProfile {
	return PublicProfile{
		UserCompact:    u.ToCompact(),
		Bio:            u.Bio,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		CreatedAt:      u.CreatedAt,
	}
}

// Name returns the best human-facing name for e-mails and notifications.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=60"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"` // email or username
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=60"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}
