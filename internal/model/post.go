package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostStatus represents the lifecycle status of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// Post represents a blog post.
type Post struct {
	ID          uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	AuthorID    uuid.UUID      `json:"author_id" gorm:"type:char(36);not null;index"`
	CategoryID  *uuid.UUID     `json:"category_id,omitempty" gorm:"type:char(36);index"`
	Title       string         `json:"title" gorm:"size:255;not null"`
	Slug        string         `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Content     string         `json:"content" gorm:"type:text;not null"`
	Status      PostStatus     `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	ViewCount   int64          `json:"view_count" gorm:"default:0"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Author   User      `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
