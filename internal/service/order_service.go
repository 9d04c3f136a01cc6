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

// OrderLine is one requested item of a new order.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// OrderService exposes order operations.
type OrderService interface {
	Place(ctx context.Context, userID uuid.UUID, lines []OrderLine) (*model.Order, error)
	Get(ctx context.Context, viewer Viewer, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, viewer Viewer, filter repository.OrderFilter) ([]model.Order, int64, error)
	// Cancel is the owner-facing operation; only pending/processing orders
	// can be cancelled and stock is restored.
	Cancel(ctx context.Context, viewer Viewer, id uuid.UUID) (*model.Order, error)
	// SetStatus is the admin operation driving the status machine.
	SetStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// Place creates an order in one transaction: every product row is locked,
// stock is checked and decremented, and the total is computed from the
// current prices.
func (s *orderService) Place(ctx context.Context, userID uuid.UUID, lines []OrderLine) (*model.Order, error) {
	if len(lines) == 0 {
		return nil, errors.ErrValidation
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, errors.ErrValidation
		}
	}

	order := &model.Order{
		UserID: userID,
		Status: model.OrderStatusPending,
		Total:  decimal.Zero,
	}

	err := s.orderRepo.WithTransaction(ctx, func(ctx context.Context, orders repository.OrderRepository, products repository.ProductRepository) error {
		total := decimal.Zero
		items := make([]model.OrderItem, 0, len(lines))

		for _, line := range lines {
			product, err := products.FindByIDForUpdate(ctx, line.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return errors.ErrNotFound
				}
				return err
			}
			if !product.Active {
				return errors.ErrNotFound
			}
			if product.Stock < line.Quantity {
				return errors.ErrInsufficientStock
			}
			if err := products.UpdateStock(ctx, product.ID, product.Stock-line.Quantity); err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}

			items = append(items, model.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		order.Items = items
		order.Total = total
		return orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) Get(ctx context.Context, viewer Viewer, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if order.UserID != viewer.ID && !model.RoleAtLeast(viewer.Role, model.RoleAdmin) {
		return nil, errors.ErrForbidden
	}
	return order, nil
}

// List scopes regular users to their own orders; admins see everything and
// may filter by user.
func (s *orderService) List(ctx context.Context, viewer Viewer, filter repository.OrderFilter) ([]model.Order, int64, error) {
	if !model.RoleAtLeast(viewer.Role, model.RoleAdmin) {
		filter.UserID = &viewer.ID
	}
	return s.orderRepo.List(ctx, filter)
}

func (s *orderService) Cancel(ctx context.Context, viewer Viewer, id uuid.UUID) (*model.Order, error) {
	var cancelled *model.Order
	err := s.orderRepo.WithTransaction(ctx, func(ctx context.Context, orders repository.OrderRepository, products repository.ProductRepository) error {
		order, err := orders.FindByIDForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrNotFound
			}
			return err
		}
		if order.UserID != viewer.ID && !model.RoleAtLeast(viewer.Role, model.RoleAdmin) {
			return errors.ErrForbidden
		}
		if !model.CanTransition(order.Status, model.OrderStatusCancelled) {
			return errors.ErrInvalidTransition
		}

		if err := restock(ctx, products, order.Items); err != nil {
			return err
		}
		if err := orders.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = model.OrderStatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *orderService) SetStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	switch status {
	case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusShipped,
		model.OrderStatusDelivered, model.OrderStatusCancelled, model.OrderStatusRefunded:
	default:
		return nil, errors.ErrValidation
	}

	var updated *model.Order
	err := s.orderRepo.WithTransaction(ctx, func(ctx context.Context, orders repository.OrderRepository, products repository.ProductRepository) error {
		order, err := orders.FindByIDForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrNotFound
			}
			return err
		}
		if !model.CanTransition(order.Status, status) {
			return errors.ErrInvalidTransition
		}

		if status == model.OrderStatusCancelled {
			if err := restock(ctx, products, order.Items); err != nil {
				return err
			}
		}
		if err := orders.UpdateStatus(ctx, order.ID, status); err != nil {
			return err
		}
		order.Status = status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func restock(ctx context.Context, products repository.ProductRepository, items []model.OrderItem) error {
	for _, item := range items {
		product, err := products.FindByIDForUpdate(ctx, item.ProductID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue // product removed since purchase; nothing to restore
			}
			return err
		}
		if err := products.UpdateStock(ctx, product.ID, product.Stock+item.Quantity); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}
	return nil
}
