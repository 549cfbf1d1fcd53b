package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuthUser is the identity record backing a profile. With the hosted backend it
// lives in the provider's own schema; in direct postgres mode it is the
// auth_users table.
type AuthUser struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email              string            `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	PasswordHash       string            `gorm:"column:encrypted_password;size:255;not null" json:"-"`
	UserMetadata       datatypes.JSONMap `gorm:"column:raw_user_meta_data" json:"user_metadata,omitempty"`
	EmailConfirmedAt   *time.Time        `gorm:"column:email_confirmed_at" json:"email_confirmed_at,omitempty"`
	ConfirmationSentAt *time.Time        `gorm:"column:confirmation_sent_at" json:"confirmation_sent_at,omitempty"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Identities []Identity `gorm:"-" json:"identities"`
}

func (AuthUser) TableName() string {
	return "auth_users"
}

type Identity struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// SignUpRequest carries the account credentials plus the profile fields that the
// backend copies into the profiles table.
type SignUpRequest struct {
	Email      string         `json:"email"`
	Password   string         `json:"password"`
	Metadata   map[string]any `json:"data,omitempty"`
	RedirectTo string         `json:"-"`
}

// SignUpResult.User is nil when the provider answered without a user record.
type SignUpResult struct {
	User *AuthUser
}
