package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"stellar/internal/response"
	"stellar/internal/service"
)

// ApiKeyHandler handles API key management endpoints.
type ApiKeyHandler struct {
	apiKeyService service.ApiKeyService
}

// NewApiKeyHandler creates a new API key handler.
func NewApiKeyHandler(apiKeyService service.ApiKeyService) *ApiKeyHandler {
	return &ApiKeyHandler{apiKeyService: apiKeyService}
}

// CreateApiKeyRequest represents an API key creation request.
type CreateApiKeyRequest struct {
	Name      string     `json:"name" validate:"required,max=100"`
	RateLimit int        `json:"rate_limit" validate:"gte=0"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Create godoc
// @Summary Create an API key
// @Tags api-keys
// @Accept json
// @Produce json
// @Param request body CreateApiKeyRequest true "Key parameters"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /api-keys [post]
func (h *ApiKeyHandler) Create(c echo.Context) error {
	var req CreateApiKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		return echo.NewHTTPError(http.StatusBadRequest, "expires_at must be in the future")
	}

	created, err := h.apiKeyService.Create(c.Request().Context(), viewer(c).ID,
		req.Name, req.RateLimit, req.ExpiresAt, clientMeta(c))
	if err != nil {
		return err
	}
	// The raw secret appears in this response only.
	return response.JSON(c, http.StatusCreated, created)
}

// List godoc
// @Summary List the current user's API keys
// @Tags api-keys
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api-keys [get]
func (h *ApiKeyHandler) List(c echo.Context) error {
	keys, err := h.apiKeyService.List(c.Request().Context(), viewer(c).ID)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, keys)
}

// Revoke godoc
// @Summary Revoke an API key
// @Tags api-keys
// @Produce json
// @Param id path string true "Key ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /api-keys/{id} [delete]
func (h *ApiKeyHandler) Revoke(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.apiKeyService.Revoke(c.Request().Context(), viewer(c).ID, id, clientMeta(c)); err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, map[string]string{"message": "api key revoked"})
}
