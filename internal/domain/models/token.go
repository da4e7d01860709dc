package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FunctionalTestTokenName labels tokens issued for end-to-end test runs
const FunctionalTestTokenName = "Functional test token"

// Token is a bearer credential owned by a user
type Token struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string     `json:"name" gorm:"not null;size:255"`
	Description string     `json:"description,omitempty" gorm:"size:1024"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	User        *User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Hash        string     `json:"-" gorm:"not null;uniqueIndex;size:64"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	// Value is the plaintext bearer secret; only set on the instance returned from creation
	Value string `json:"value,omitempty" gorm:"-"`
}

// TableName returns the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}

// BeforeCreate assigns the id so every dialect behaves the same
func (t *Token) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
