package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApiKey stores the SHA-256 hash of an API key secret. Prefix keeps the first
// characters of the raw key for identification in listings.
type ApiKey struct {
	ID         uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:char(36);not null;index"`
	Name       string     `json:"name" gorm:"size:100;not null"`
	KeyHash    string     `json:"-" gorm:"uniqueIndex;size:64;not null"`
	Prefix     string     `json:"prefix" gorm:"size:12;not null"`
	RateLimit  int        `json:"rate_limit" gorm:"default:0"` // requests per minute, 0 = service default
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Revoked    bool       `json:"revoked" gorm:"default:false;index"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (k *ApiKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

// Usable reports whether the key authenticates requests.
func (k *ApiKey) Usable(now time.Time) bool {
	if k.Revoked {
		return false
	}
	if k.ExpiresAt != nil && now.After(*k.ExpiresAt) {
		return false
	}
	return true
}
