package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stellar/internal/errors"
	"stellar/internal/model"
	"stellar/internal/repository"
)

// PostInput carries the writable post fields.
type PostInput struct {
	Title      string
	Content    string
	Status     model.PostStatus
	CategoryID *uuid.UUID
}

// Viewer identifies the requesting user for visibility decisions. A zero
// Viewer is an anonymous reader.
type Viewer struct {
	ID   uuid.UUID
	Role string
}

func (v Viewer) anonymous() bool {
	return v.ID == uuid.Nil
}

// canModerate reports whether the viewer can act on another author's content.
func (v Viewer) canModerate() bool {
	return model.RoleAtLeast(v.Role, model.RoleModerator)
}

// PostService exposes post operations.
type PostService interface {
	Create(ctx context.Context, authorID uuid.UUID, input PostInput) (*model.Post, error)
	Update(ctx context.Context, viewer Viewer, id uuid.UUID, input PostInput) (*model.Post, error)
	Delete(ctx context.Context, viewer Viewer, id uuid.UUID) error
	Get(ctx context.Context, viewer Viewer, id uuid.UUID) (*model.Post, error)
	List(ctx context.Context, viewer Viewer, filter repository.PostFilter) ([]model.Post, int64, error)
}

type postService struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
}

// NewPostService creates a new post service.
func NewPostService(postRepo repository.PostRepository, categoryRepo repository.CategoryRepository) PostService {
	return &postService{postRepo: postRepo, categoryRepo: categoryRepo}
}

func (s *postService) Create(ctx context.Context, authorID uuid.UUID, input PostInput) (*model.Post, error) {
	if input.Status == "" {
		input.Status = model.PostStatusDraft
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	slug := slugify(input.Title)
	if _, err := s.postRepo.FindBySlug(ctx, slug); err == nil {
		return nil, errors.ErrConflict
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check slug: %w", err)
	}

	post := &model.Post{
		AuthorID:   authorID,
		CategoryID: input.CategoryID,
		Title:      input.Title,
		Slug:       slug,
		Content:    input.Content,
		Status:     input.Status,
	}
	if post.Status == model.PostStatusPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, viewer Viewer, id uuid.UUID, input PostInput) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if post.AuthorID != viewer.ID && !viewer.canModerate() {
		return nil, errors.ErrForbidden
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	if input.Title != "" && input.Title != post.Title {
		slug := slugify(input.Title)
		if existing, err := s.postRepo.FindBySlug(ctx, slug); err == nil && existing.ID != post.ID {
			return nil, errors.ErrConflict
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		post.Title = input.Title
		post.Slug = slug
	}
	if input.Content != "" {
		post.Content = input.Content
	}
	if input.CategoryID != nil {
		post.CategoryID = input.CategoryID
	}
	if input.Status != "" && input.Status != post.Status {
		if input.Status == model.PostStatusPublished && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}
		post.Status = input.Status
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, viewer Viewer, id uuid.UUID) error {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if post.AuthorID != viewer.ID && !viewer.canModerate() {
		return errors.ErrForbidden
	}
	return s.postRepo.Delete(ctx, id)
}

// Get returns a post, hiding drafts and archived posts from readers other
// than the author and moderators. Published reads bump the view counter.
func (s *postService) Get(ctx context.Context, viewer Viewer, id uuid.UUID) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if post.Status != model.PostStatusPublished {
		if viewer.anonymous() || (post.AuthorID != viewer.ID && !viewer.canModerate()) {
			return nil, errors.ErrNotFound
		}
		return post, nil
	}

	_ = s.postRepo.IncrementViewCount(ctx, id)
	post.ViewCount++
	return post, nil
}

// List restricts anonymous readers and regular users to published posts,
// except when a user filters by their own authorship.
func (s *postService) List(ctx context.Context, viewer Viewer, filter repository.PostFilter) ([]model.Post, int64, error) {
	ownPosts := filter.AuthorID != nil && !viewer.anonymous() && *filter.AuthorID == viewer.ID
	if !viewer.canModerate() && !ownPosts {
		filter.Status = model.PostStatusPublished
	}
	return s.postRepo.List(ctx, filter)
}

func (s *postService) validateInput(ctx context.Context, input PostInput) error {
	switch input.Status {
	case "", model.PostStatusDraft, model.PostStatusPublished, model.PostStatusArchived:
	default:
		return errors.ErrValidation
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			return mapNotFound(err)
		}
	}
	return nil
}
