package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"stellar/internal/middleware"
	"stellar/internal/service"
)

// clientMeta extracts the request origin for the audit trail.
func clientMeta(c echo.Context) service.ClientMeta {
	return service.ClientMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// pathUUID parses a uuid path parameter, rejecting malformed values early.
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// viewer returns the authenticated viewer from the request context.
func viewer(c echo.Context) service.Viewer {
	return middleware.CurrentViewer(c)
}
