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
	"stellar/internal/repository"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) UpdateStock(ctx context.Context, id uuid.UUID, newStock int) error {
	args := m.Called(ctx, id, newStock)
	return args.Error(0)
}

func (m *MockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository. Its
// WithTransaction runs the callback against the mock itself plus the attached
// product mock, so transactional flows exercise the same expectations.
type MockOrderRepository struct {
	mock.Mock
	products *MockProductRepository
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, orders repository.OrderRepository, products repository.ProductRepository) error) error {
	return fn(ctx, m, m.products)
}

func newOrderMocks() (*MockOrderRepository, *MockProductRepository) {
	products := new(MockProductRepository)
	orders := &MockOrderRepository{products: products}
	return orders, products
}

func testProduct(price string, stock int) *model.Product {
	return &model.Product{
		ID:     uuid.New(),
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	}
}

func TestOrderService_Place(t *testing.T) {
	t.Run("locks stock and computes the total", func(t *testing.T) {
		orders, products := newOrderMocks()
		svc := NewOrderService(orders)

		keyboard := testProduct("129.00", 10)
		mug := testProduct("14.00", 5)
		products.On("FindByIDForUpdate", mock.Anything, keyboard.ID).Return(keyboard, nil)
		products.On("FindByIDForUpdate", mock.Anything, mug.ID).Return(mug, nil)
		products.On("UpdateStock", mock.Anything, keyboard.ID, 8).Return(nil)
		products.On("UpdateStock", mock.Anything, mug.ID, 4).Return(nil)
		orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).Return(nil)

		userID := uuid.New()
		order, err := svc.Place(context.Background(), userID, []OrderLine{
			{ProductID: keyboard.ID, Quantity: 2},
			{ProductID: mug.ID, Quantity: 1},
		})

		assert.NoError(t, err)
		assert.Equal(t, userID, order.UserID)
		assert.Equal(t, model.OrderStatusPending, order.Status)
		assert.True(t, order.Total.Equal(decimal.RequireFromString("272.00")))
		assert.Len(t, order.Items, 2)
		assert.True(t, order.Items[0].UnitPrice.Equal(keyboard.Price))
		products.AssertExpectations(t)
		orders.AssertExpectations(t)
	})

	t.Run("insufficient stock aborts the order", func(t *testing.T) {
		orders, products := newOrderMocks()
		svc := NewOrderService(orders)

		scarce := testProduct("59.50", 1)
		products.On("FindByIDForUpdate", mock.Anything, scarce.ID).Return(scarce, nil)

		_, err := svc.Place(context.Background(), uuid.New(), []OrderLine{
			{ProductID: scarce.ID, Quantity: 3},
		})

		assert.ErrorIs(t, err, errors.ErrInsufficientStock)
		orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("inactive product reads as not found", func(t *testing.T) {
		orders, products := newOrderMocks()
		svc := NewOrderService(orders)

		retired := testProduct("24.99", 100)
		retired.Active = false
		products.On("FindByIDForUpdate", mock.Anything, retired.ID).Return(retired, nil)

		_, err := svc.Place(context.Background(), uuid.New(), []OrderLine{
			{ProductID: retired.ID, Quantity: 1},
		})

		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("rejects empty and non-positive lines", func(t *testing.T) {
		orders, _ := newOrderMocks()
		svc := NewOrderService(orders)

		_, err := svc.Place(context.Background(), uuid.New(), nil)
		assert.ErrorIs(t, err, errors.ErrValidation)

		_, err = svc.Place(context.Background(), uuid.New(), []OrderLine{
			{ProductID: uuid.New(), Quantity: 0},
		})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestOrderService_Cancel(t *testing.T) {
	t.Run("owner cancels a pending order and stock returns", func(t *testing.T) {
		orders, products := newOrderMocks()
		svc := NewOrderService(orders)

		userID := uuid.New()
		product := testProduct("14.00", 4)
		order := &model.Order{
			ID:     uuid.New(),
			UserID: userID,
			Status: model.OrderStatusPending,
			Items:  []model.OrderItem{{ProductID: product.ID, Quantity: 2}},
		}
		orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		products.On("FindByIDForUpdate", mock.Anything, product.ID).Return(product, nil)
		products.On("UpdateStock", mock.Anything, product.ID, 6).Return(nil)
		orders.On("UpdateStatus", mock.Anything, order.ID, model.OrderStatusCancelled).Return(nil)

		cancelled, err := svc.Cancel(context.Background(), Viewer{ID: userID, Role: model.RoleUser}, order.ID)

		assert.NoError(t, err)
		assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
		products.AssertExpectations(t)
	})

	t.Run("another user cannot cancel", func(t *testing.T) {
		orders, _ := newOrderMocks()
		svc := NewOrderService(orders)

		order := &model.Order{ID: uuid.New(), UserID: uuid.New(), Status: model.OrderStatusPending}
		orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.Cancel(context.Background(), Viewer{ID: uuid.New(), Role: model.RoleUser}, order.ID)

		assert.ErrorIs(t, err, errors.ErrForbidden)
	})

	t.Run("shipped orders cannot be cancelled", func(t *testing.T) {
		orders, _ := newOrderMocks()
		svc := NewOrderService(orders)

		userID := uuid.New()
		order := &model.Order{ID: uuid.New(), UserID: userID, Status: model.OrderStatusShipped}
		orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.Cancel(context.Background(), Viewer{ID: userID, Role: model.RoleUser}, order.ID)

		assert.ErrorIs(t, err, errors.ErrInvalidTransition)
	})
}

func TestOrderService_SetStatus(t *testing.T) {
	transitions := []struct {
		name    string
		from    model.OrderStatus
		to      model.OrderStatus
		allowed bool
	}{
		{"pending to processing", model.OrderStatusPending, model.OrderStatusProcessing, true},
		{"processing to shipped", model.OrderStatusProcessing, model.OrderStatusShipped, true},
		{"shipped to delivered", model.OrderStatusShipped, model.OrderStatusDelivered, true},
		{"delivered to refunded", model.OrderStatusDelivered, model.OrderStatusRefunded, true},
		{"pending to shipped", model.OrderStatusPending, model.OrderStatusShipped, false},
		{"delivered to processing", model.OrderStatusDelivered, model.OrderStatusProcessing, false},
		{"cancelled is terminal", model.OrderStatusCancelled, model.OrderStatusPending, false},
		{"refunded is terminal", model.OrderStatusRefunded, model.OrderStatusPending, false},
	}

	for _, tt := range transitions {
		t.Run(tt.name, func(t *testing.T) {
			orders, _ := newOrderMocks()
			svc := NewOrderService(orders)

			order := &model.Order{ID: uuid.New(), UserID: uuid.New(), Status: tt.from}
			orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
			if tt.allowed {
				orders.On("UpdateStatus", mock.Anything, order.ID, tt.to).Return(nil)
			}

			updated, err := svc.SetStatus(context.Background(), order.ID, tt.to)

			if tt.allowed {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, updated.Status)
			} else {
				assert.ErrorIs(t, err, errors.ErrInvalidTransition)
			}
		})
	}

	t.Run("admin cancellation restocks", func(t *testing.T) {
		orders, products := newOrderMocks()
		svc := NewOrderService(orders)

		product := testProduct("129.00", 8)
		order := &model.Order{
			ID:     uuid.New(),
			UserID: uuid.New(),
			Status: model.OrderStatusProcessing,
			Items:  []model.OrderItem{{ProductID: product.ID, Quantity: 2}},
		}
		orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		products.On("FindByIDForUpdate", mock.Anything, product.ID).Return(product, nil)
		products.On("UpdateStock", mock.Anything, product.ID, 10).Return(nil)
		orders.On("UpdateStatus", mock.Anything, order.ID, model.OrderStatusCancelled).Return(nil)

		_, err := svc.SetStatus(context.Background(), order.ID, model.OrderStatusCancelled)

		assert.NoError(t, err)
		products.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		orders, _ := newOrderMocks()
		svc := NewOrderService(orders)

		_, err := svc.SetStatus(context.Background(), uuid.New(), model.OrderStatus("lost"))

		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestOrderService_Visibility(t *testing.T) {
	t.Run("owner and admin can read, others cannot", func(t *testing.T) {
		orders, _ := newOrderMocks()
		svc := NewOrderService(orders)

		owner := uuid.New()
		order := &model.Order{ID: uuid.New(), UserID: owner}
		orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.Get(context.Background(), Viewer{ID: owner, Role: model.RoleUser}, order.ID)
		assert.NoError(t, err)

		_, err = svc.Get(context.Background(), Viewer{ID: uuid.New(), Role: model.RoleAdmin}, order.ID)
		assert.NoError(t, err)

		_, err = svc.Get(context.Background(), Viewer{ID: uuid.New(), Role: model.RoleUser}, order.ID)
		assert.ErrorIs(t, err, errors.ErrForbidden)
	})

	t.Run("missing order", func(t *testing.T) {
		orders, _ := newOrderMocks()
		svc := NewOrderService(orders)

		id := uuid.New()
		orders.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Get(context.Background(), Viewer{ID: uuid.New(), Role: model.RoleAdmin}, id)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("list scopes regular users to their own orders", func(t *testing.T) {
		orders, _ := newOrderMocks()
		svc := NewOrderService(orders)

		userID := uuid.New()
		orders.On("List", mock.Anything, mock.MatchedBy(func(f repository.OrderFilter) bool {
			return f.UserID != nil && *f.UserID == userID
		})).Return([]model.Order{}, int64(0), nil)

		_, _, err := svc.List(context.Background(), Viewer{ID: userID, Role: model.RoleUser}, repository.OrderFilter{})

		assert.NoError(t, err)
		orders.AssertExpectations(t)
	})

	t.Run("admin list is unscoped", func(t *testing.T) {
		orders, _ := newOrderMocks()
		svc := NewOrderService(orders)

		orders.On("List", mock.Anything, mock.MatchedBy(func(f repository.OrderFilter) bool {
			return f.UserID == nil
		})).Return([]model.Order{}, int64(0), nil)

		_, _, err := svc.List(context.Background(), Viewer{ID: uuid.New(), Role: model.RoleAdmin}, repository.OrderFilter{})

		assert.NoError(t, err)
		orders.AssertExpectations(t)
	})
}
