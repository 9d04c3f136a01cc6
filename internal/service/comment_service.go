package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"stellar/internal/errors"
	"stellar/internal/model"
	"stellar/internal/repository"
)

// CommentService exposes comment operations.
type CommentService interface {
	Create(ctx context.Context, authorID, postID uuid.UUID, parentID *uuid.UUID, content string) (*model.Comment, error)
	Update(ctx context.Context, viewer Viewer, id uuid.UUID, content string) (*model.Comment, error)
	Delete(ctx context.Context, viewer Viewer, id uuid.UUID) error
	ListByPost(ctx context.Context, postID uuid.UUID) ([]model.Comment, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

// NewCommentService creates a new comment service.
func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) CommentService {
	return &commentService{commentRepo: commentRepo, postRepo: postRepo}
}

// Create adds a comment to a published post. A parent comment must belong to
// the same post.
func (s *commentService) Create(ctx context.Context, authorID, postID uuid.UUID, parentID *uuid.UUID, content string) (*model.Comment, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if post.Status != model.PostStatusPublished {
		return nil, errors.ErrNotFound
	}

	if parentID != nil {
		parent, err := s.commentRepo.FindByID(ctx, *parentID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		if parent.PostID != postID {
			return nil, errors.ErrValidation
		}
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: authorID,
		ParentID: parentID,
		Content:  content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (s *commentService) Update(ctx context.Context, viewer Viewer, id uuid.UUID, content string) (*model.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if comment.AuthorID != viewer.ID && !viewer.canModerate() {
		return nil, errors.ErrForbidden
	}

	comment.Content = content
	comment.Edited = true
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, viewer Viewer, id uuid.UUID) error {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if comment.AuthorID != viewer.ID && !viewer.canModerate() {
		return errors.ErrForbidden
	}
	return s.commentRepo.Delete(ctx, id)
}

func (s *commentService) ListByPost(ctx context.Context, postID uuid.UUID) ([]model.Comment, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return nil, mapNotFound(err)
	}
	return s.commentRepo.ListByPost(ctx, postID)
}
