package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken stores the SHA-256 hash of an opaque refresh secret. The raw
// secret is returned to the client once and never persisted.
type RefreshToken struct {
	ID           uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	UserID       uuid.UUID  `json:"user_id" gorm:"type:char(36);not null;index"`
	TokenHash    string     `json:"-" gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"not null;index"`
	Revoked      bool       `json:"revoked" gorm:"default:false;index"`
	ReplacedByID *uuid.UUID `json:"-" gorm:"type:char(36)"`
	ClientIP     string     `json:"-" gorm:"size:45"`
	UserAgent    string     `json:"-" gorm:"size:255"`
	CreatedAt    time.Time  `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Usable reports whether the token can still be exchanged.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
