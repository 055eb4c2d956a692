package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a food post about a restaurant, owned by a user.
type Post struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Restaurant  string         `gorm:"size:255;not null" json:"restaurant"`
	Description string         `gorm:"type:text" json:"description"`
	Image       string         `gorm:"size:500" json:"image,omitempty"`
	City        string         `gorm:"size:100;index;not null" json:"city"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Comments    []Comment      `gorm:"foreignKey:PostID" json:"comments"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Post) TableName() string { return "posts" }
