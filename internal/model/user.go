package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role levels for role-based authorization.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

var roleRank = map[string]int{
	RoleUser:      0,
	RoleModerator: 1,
	RoleAdmin:     2,
}

// RoleAtLeast reports whether role meets or exceeds the required role.
func RoleAtLeast(role, required string) bool {
	return roleRank[role] >= roleRank[required]
}

// User represents an authenticated user in the system.
type User struct {
	ID               uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Username         string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email            string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash     string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	FirstName        string         `json:"first_name,omitempty" gorm:"size:100"`
	LastName         string         `json:"last_name,omitempty" gorm:"size:100"`
	Bio              string         `json:"bio,omitempty" gorm:"size:1000"`
	Role             string         `json:"role" gorm:"size:20;not null;default:'user';index"`
	Active           bool           `json:"active" gorm:"default:true;index"`
	EmailVerified    bool           `json:"email_verified" gorm:"default:false"`
	TwoFactorSecret  string         `json:"-" gorm:"size:64"`
	TwoFactorEnabled bool           `json:"two_factor_enabled" gorm:"default:false"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
