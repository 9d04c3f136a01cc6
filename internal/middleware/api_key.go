package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"stellar/internal/service"
)

// APIKeyHeader is the request header carrying an API key.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth authenticates requests presenting an X-API-Key header. Requests
// without the header pass through untouched so the JWT middleware can take
// over; a presented but invalid key is rejected outright.
func APIKeyAuth(keys service.ApiKeyService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawKey := c.Request().Header.Get(APIKeyHeader)
			if rawKey == "" {
				return next(c)
			}

			key, user, err := keys.Authenticate(c.Request().Context(), rawKey)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}

			c.Set(ContextKeyViewer, service.Viewer{ID: user.ID, Role: user.Role})
			c.Set(ContextKeyAPIKey, key)
			return next(c)
		}
	}
}
