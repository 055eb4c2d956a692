package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. RefreshTokens is the persisted
// registry of currently valid refresh tokens, in issuance order. It is
// stored as a JSON column on the user row so registry mutations ride on
// the same write as any other user update.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Email         string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password      string         `gorm:"size:255" json:"-"` // bcrypt hash, empty for LDAP accounts
	FullName      string         `gorm:"size:100;not null" json:"full_name"`
	HomeCity      string         `gorm:"size:100;not null" json:"home_city"`
	ProfileImage  string         `gorm:"size:500" json:"profile_image,omitempty"`
	AuthType      string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	RefreshTokens []string       `gorm:"serializer:json" json:"-"`
	LastLogin     *time.Time     `json:"last_login,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
