package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stellar/internal/errors"
	"stellar/internal/model"
	"stellar/internal/repository"
)

// ProductInput carries the writable product fields.
type ProductInput struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Active      *bool
	CategoryID  *uuid.UUID
}

// ProductService exposes product catalog operations.
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{productRepo: productRepo, categoryRepo: categoryRepo}
}

func (s *productService) Create(ctx context.Context, input ProductInput) (*model.Product, error) {
	if input.Price.IsNegative() || input.Stock < 0 {
		return nil, errors.ErrValidation
	}

	if _, err := s.productRepo.FindBySKU(ctx, input.SKU); err == nil {
		return nil, errors.ErrConflict
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check sku: %w", err)
	}

	slug := slugify(input.Name)
	if _, err := s.productRepo.FindBySlug(ctx, slug); err == nil {
		return nil, errors.ErrConflict
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check slug: %w", err)
	}

	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			return nil, mapNotFound(err)
		}
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}
	product := &model.Product{
		SKU:         input.SKU,
		Slug:        slug,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Active:      active,
		CategoryID:  input.CategoryID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if input.SKU != "" && input.SKU != product.SKU {
		if existing, err := s.productRepo.FindBySKU(ctx, input.SKU); err == nil && existing.ID != product.ID {
			return nil, errors.ErrConflict
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check sku: %w", err)
		}
		product.SKU = input.SKU
	}
	if input.Name != "" && input.Name != product.Name {
		slug := slugify(input.Name)
		if existing, err := s.productRepo.FindBySlug(ctx, slug); err == nil && existing.ID != product.ID {
			return nil, errors.ErrConflict
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		product.Name = input.Name
		product.Slug = slug
	}
	if input.Description != "" {
		product.Description = input.Description
	}
	if !input.Price.IsZero() {
		if input.Price.IsNegative() {
			return nil, errors.ErrValidation
		}
		product.Price = input.Price
	}
	if input.Stock >= 0 {
		product.Stock = input.Stock
	}
	if input.Active != nil {
		product.Active = *input.Active
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			return nil, mapNotFound(err)
		}
		product.CategoryID = input.CategoryID
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return mapNotFound(err)
	}
	return s.productRepo.Delete(ctx, id)
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, filter)
}
