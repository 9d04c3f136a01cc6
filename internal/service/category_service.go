package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stellar/internal/errors"
	"stellar/internal/model"
	"stellar/internal/repository"
)

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string
	Description string
	ParentID    *uuid.UUID
}

// CategoryService exposes category operations.
type CategoryService interface {
	Create(ctx context.Context, input CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Category, error)
	ListTree(ctx context.Context) ([]model.Category, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	postRepo     repository.PostRepository
	productRepo  repository.ProductRepository
}

// NewCategoryService creates a new category service.
func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	postRepo repository.PostRepository,
	productRepo repository.ProductRepository,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		postRepo:     postRepo,
		productRepo:  productRepo,
	}
}

func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*model.Category, error) {
	slug := slugify(input.Name)
	if _, err := s.categoryRepo.FindBySlug(ctx, slug); err == nil {
		return nil, errors.ErrConflict
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check slug: %w", err)
	}

	if input.ParentID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.ParentID); err != nil {
			return nil, mapNotFound(err)
		}
	}

	category := &model.Category{
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		ParentID:    input.ParentID,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if input.Name != "" && input.Name != category.Name {
		slug := slugify(input.Name)
		if existing, err := s.categoryRepo.FindBySlug(ctx, slug); err == nil && existing.ID != category.ID {
			return nil, errors.ErrConflict
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		category.Name = input.Name
		category.Slug = slug
	}
	if input.Description != "" {
		category.Description = input.Description
	}
	if input.ParentID != nil {
		if *input.ParentID == category.ID {
			return nil, errors.ErrValidation
		}
		if _, err := s.categoryRepo.FindByID(ctx, *input.ParentID); err != nil {
			return nil, mapNotFound(err)
		}
		category.ParentID = input.ParentID
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Delete refuses to remove a category that still has children or referenced
// posts/products.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return mapNotFound(err)
	}

	hasChildren, err := s.categoryRepo.HasChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("check children: %w", err)
	}
	if hasChildren {
		return errors.ErrCategoryInUse
	}

	posts, err := s.postRepo.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count posts: %w", err)
	}
	products, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if posts > 0 || products > 0 {
		return errors.ErrCategoryInUse
	}

	return s.categoryRepo.Delete(ctx, id)
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return category, nil
}

func (s *categoryService) ListTree(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.ListRoots(ctx)
}
