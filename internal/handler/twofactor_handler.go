package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"stellar/internal/response"
	"stellar/internal/service"
)

// TwoFactorHandler handles TOTP enrollment endpoints.
type TwoFactorHandler struct {
	twoFactorService service.TwoFactorService
}

// NewTwoFactorHandler creates a new 2FA handler.
func NewTwoFactorHandler(twoFactorService service.TwoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{twoFactorService: twoFactorService}
}

// EnableTwoFactorRequest verifies the first TOTP code.
type EnableTwoFactorRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// DisableTwoFactorRequest requires password plus a valid code.
type DisableTwoFactorRequest struct {
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

// Setup godoc
// @Summary Provision a TOTP secret
// @Tags 2fa
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /2fa/setup [post]
func (h *TwoFactorHandler) Setup(c echo.Context) error {
	prov, err := h.twoFactorService.Setup(c.Request().Context(), viewer(c).ID)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, prov)
}

// Enable godoc
// @Summary Enable 2FA after verifying a code
// @Tags 2fa
// @Accept json
// @Produce json
// @Param request body EnableTwoFactorRequest true "TOTP code"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /2fa/enable [post]
func (h *TwoFactorHandler) Enable(c echo.Context) error {
	var req EnableTwoFactorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.twoFactorService.Enable(c.Request().Context(), viewer(c).ID, req.Code, clientMeta(c)); err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, map[string]string{"message": "two-factor authentication enabled"})
}

// Disable godoc
// @Summary Disable 2FA
// @Tags 2fa
// @Accept json
// @Produce json
// @Param request body DisableTwoFactorRequest true "Password and TOTP code"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /2fa/disable [post]
func (h *TwoFactorHandler) Disable(c echo.Context) error {
	var req DisableTwoFactorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.twoFactorService.Disable(c.Request().Context(), viewer(c).ID, req.Password, req.Code, clientMeta(c)); err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, map[string]string{"message": "two-factor authentication disabled"})
}
