package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category organizes posts and products into a tree via ParentID.
type Category struct {
	ID          uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" gorm:"type:char(36);index"`
	Name        string     `json:"name" gorm:"size:100;not null"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;size:120;not null"`
	Description string     `json:"description,omitempty" gorm:"size:500"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Children []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
