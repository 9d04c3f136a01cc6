package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"stellar/internal/model"
	"stellar/internal/repository"
	"stellar/internal/response"
	"stellar/internal/service"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderLineRequest is one product line in an order.
type OrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderRequest represents an order placement.
type PlaceOrderRequest struct {
	Items []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
}

// SetOrderStatusRequest drives the admin status transition.
type SetOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled refunded"`
}

// Place godoc
// @Summary Place an order
// @Tags orders
// @Accept json
// @Produce json
// @Param request body PlaceOrderRequest true "Order lines"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /orders [post]
func (h *OrderHandler) Place(c echo.Context) error {
	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		lines = append(lines, service.OrderLine{ProductID: id, Quantity: item.Quantity})
	}

	order, err := h.orderService.Place(c.Request().Context(), viewer(c).ID, lines)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusCreated, order)
}

// Get godoc
// @Summary Get an order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orderService.Get(c.Request().Context(), viewer(c), id)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, order)
}

// List godoc
// @Summary List orders
// @Tags orders
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	p := response.ParsePagination(c)
	filter := repository.OrderFilter{
		Status: model.OrderStatus(c.QueryParam("status")),
		Offset: p.Offset(),
		Limit:  p.Limit,
	}

	orders, total, err := h.orderService.List(c.Request().Context(), viewer(c), filter)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, response.Page{
		Items: orders, Total: total, Page: p.Page, Limit: p.Limit,
	})
}

// Cancel godoc
// @Summary Cancel an order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orderService.Cancel(c.Request().Context(), viewer(c), id)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, order)
}

// SetStatus godoc
// @Summary Set an order's status (admin)
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body SetOrderStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /orders/{id}/status [put]
func (h *OrderHandler) SetStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req SetOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.orderService.SetStatus(c.Request().Context(), id, model.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, order)
}
