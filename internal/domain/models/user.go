package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a platform identity bound to one source-control context
type User struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username   string    `json:"username" gorm:"not null;size:255;uniqueIndex:idx_users_username_scm_context"`
	SCMContext string    `json:"scm_context" gorm:"column:scm_context;not null;size:255;uniqueIndex:idx_users_username_scm_context"`
	Token      string    `json:"-" gorm:"not null;type:text"` // Sealed scm token
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the id so every dialect behaves the same
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
