package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment represents a comment on a post, threaded via ParentID.
type Comment struct {
	ID        uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	PostID    uuid.UUID      `json:"post_id" gorm:"type:char(36);not null;index"`
	AuthorID  uuid.UUID      `json:"author_id" gorm:"type:char(36);not null;index"`
	ParentID  *uuid.UUID     `json:"parent_id,omitempty" gorm:"type:char(36);index"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	Edited    bool           `json:"edited" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Author  User      `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Replies []Comment `json:"replies,omitempty" gorm:"foreignKey:ParentID"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
