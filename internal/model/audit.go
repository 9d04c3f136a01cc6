package model

import (
	"time"

	"github.com/google/uuid"
)

// Security event names recorded in the audit trail.
const (
	EventLoginSuccess       = "login_success"
	EventLoginFailure       = "login_failure"
	EventAccountLocked      = "account_locked"
	EventTokenReuse         = "refresh_token_reuse"
	EventPasswordChanged    = "password_changed"
	EventPasswordReset      = "password_reset"
	EventTwoFactorEnabled   = "two_factor_enabled"
	EventTwoFactorDisabled  = "two_factor_disabled"
	EventAPIKeyCreated      = "api_key_created"
	EventAPIKeyRevoked      = "api_key_revoked"
	EventIPBanned           = "ip_banned"
	EventAccountDeactivated = "account_deactivated"
)

// SecurityLog is an append-only audit record of security-relevant events.
type SecurityLog struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    *uuid.UUID `json:"user_id,omitempty" gorm:"type:char(36);index"`
	Event     string     `json:"event" gorm:"size:50;not null;index"`
	ClientIP  string     `json:"client_ip" gorm:"size:45"`
	UserAgent string     `json:"user_agent" gorm:"size:255"`
	Detail    string     `json:"detail,omitempty" gorm:"size:500"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
}

// LoginHistory is an append-only record of login attempts.
type LoginHistory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	ClientIP  string    `json:"client_ip" gorm:"size:45"`
	UserAgent string    `json:"user_agent" gorm:"size:255"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
