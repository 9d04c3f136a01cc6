package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"stellar/internal/errors"
	"stellar/internal/model"
)

func newProductService() (*MockProductRepository, *MockCategoryRepository, ProductService) {
	products := new(MockProductRepository)
	categories := new(MockCategoryRepository)
	return products, categories, NewProductService(products, categories)
}

func TestProductService_Create(t *testing.T) {
	input := func() ProductInput {
		return ProductInput{
			SKU:   "KB-0042",
			Name:  "Ortholinear Keyboard",
			Price: decimal.NewFromInt(129),
			Stock: 10,
		}
	}

	t.Run("creates an active product", func(t *testing.T) {
		products, _, svc := newProductService()
		products.On("FindBySKU", mock.Anything, "KB-0042").Return(nil, gorm.ErrRecordNotFound)
		products.On("FindBySlug", mock.Anything, "ortholinear-keyboard").Return(nil, gorm.ErrRecordNotFound)
		products.On("Create", mock.Anything, mock.AnythingOfType("*model.Product")).Return(nil)

		product, err := svc.Create(context.Background(), input())

		assert.NoError(t, err)
		assert.Equal(t, "ortholinear-keyboard", product.Slug)
		assert.True(t, product.Active)
	})

	t.Run("duplicate sku", func(t *testing.T) {
		products, _, svc := newProductService()
		products.On("FindBySKU", mock.Anything, "KB-0042").Return(&model.Product{ID: uuid.New()}, nil)

		_, err := svc.Create(context.Background(), input())

		assert.ErrorIs(t, err, errors.ErrConflict)
		products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		products, _, svc := newProductService()
		products.On("FindBySKU", mock.Anything, "KB-0042").Return(nil, gorm.ErrRecordNotFound)
		products.On("FindBySlug", mock.Anything, "ortholinear-keyboard").Return(&model.Product{ID: uuid.New()}, nil)

		_, err := svc.Create(context.Background(), input())

		assert.ErrorIs(t, err, errors.ErrConflict)
	})

	t.Run("negative price", func(t *testing.T) {
		_, _, svc := newProductService()
		bad := input()
		bad.Price = decimal.NewFromInt(-1)

		_, err := svc.Create(context.Background(), bad)

		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("unknown category", func(t *testing.T) {
		products, categories, svc := newProductService()
		categoryID := uuid.New()
		withCategory := input()
		withCategory.CategoryID = &categoryID
		products.On("FindBySKU", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
		products.On("FindBySlug", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
		categories.On("FindByID", mock.Anything, categoryID).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Create(context.Background(), withCategory)

		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestProductService_Update(t *testing.T) {
	existing := func() *model.Product {
		return &model.Product{
			ID:    uuid.New(),
			SKU:   "KB-0042",
			Name:  "Ortholinear Keyboard",
			Slug:  "ortholinear-keyboard",
			Price: decimal.NewFromInt(129),
			Stock: 10,
		}
	}

	t.Run("rename reslugs", func(t *testing.T) {
		products, _, svc := newProductService()
		product := existing()
		products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		products.On("FindBySlug", mock.Anything, "split-keyboard").Return(nil, gorm.ErrRecordNotFound)
		products.On("Update", mock.Anything, product).Return(nil)

		updated, err := svc.Update(context.Background(), product.ID, ProductInput{Name: "Split Keyboard"})

		assert.NoError(t, err)
		assert.Equal(t, "split-keyboard", updated.Slug)
	})

	t.Run("sku collision with another product", func(t *testing.T) {
		products, _, svc := newProductService()
		product := existing()
		products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		products.On("FindBySKU", mock.Anything, "KB-0043").Return(&model.Product{ID: uuid.New()}, nil)

		_, err := svc.Update(context.Background(), product.ID, ProductInput{SKU: "KB-0043"})

		assert.ErrorIs(t, err, errors.ErrConflict)
	})

	t.Run("deactivation", func(t *testing.T) {
		products, _, svc := newProductService()
		product := existing()
		product.Active = true
		inactive := false
		products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		products.On("Update", mock.Anything, product).Return(nil)

		updated, err := svc.Update(context.Background(), product.ID, ProductInput{Active: &inactive})

		assert.NoError(t, err)
		assert.False(t, updated.Active)
	})

	t.Run("missing product", func(t *testing.T) {
		products, _, svc := newProductService()
		id := uuid.New()
		products.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Update(context.Background(), id, ProductInput{Name: "Ghost"})

		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
}
