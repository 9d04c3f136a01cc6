package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"stellar/internal/auth"
	"stellar/internal/model"
	"stellar/internal/service"
)

const (
	// ContextKeyViewer holds the authenticated service.Viewer.
	ContextKeyViewer = "viewer"
	// ContextKeyTokenID holds the access token jti for logout blacklisting.
	ContextKeyTokenID = "token_id"
	// ContextKeyAPIKey holds the *model.ApiKey when the request authenticated
	// with an API key.
	ContextKeyAPIKey = "api_key"
)

// JWT returns the bearer-token middleware. Tokens must be access-purpose and
// not blacklisted. Requests already authenticated by an API key pass through.
func JWT(jwtService *auth.JWTService, tokenStore auth.BlacklistStore) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper: func(c echo.Context) bool {
			return c.Get(ContextKeyViewer) != nil
		},
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			claims, err := parseAccessToken(c, tokenString, jwtService, tokenStore)
			if err != nil {
				return nil, err
			}
			setViewer(c, claims)
			return claims, nil
		},
	})
}

// OptionalJWT authenticates a bearer token when one is presented but lets
// anonymous requests continue. Used on public read endpoints where the viewer
// widens visibility.
func OptionalJWT(jwtService *auth.JWTService, tokenStore auth.BlacklistStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.HasPrefix(header, "Bearer ") {
				if claims, err := parseAccessToken(c, strings.TrimPrefix(header, "Bearer "), jwtService, tokenStore); err == nil {
					setViewer(c, claims)
				}
			}
			return next(c)
		}
	}
}

func parseAccessToken(c echo.Context, tokenString string, jwtService *auth.JWTService, tokenStore auth.BlacklistStore) (*auth.Claims, error) {
	claims, err := jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != auth.PurposeAccess {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	if blacklisted, _ := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID); blacklisted {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
	}
	return claims, nil
}

func setViewer(c echo.Context, claims *auth.Claims) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return
	}
	c.Set(ContextKeyViewer, service.Viewer{ID: userID, Role: claims.Role})
	c.Set(ContextKeyTokenID, claims.ID)
}

// CurrentViewer returns the authenticated viewer, or a zero (anonymous)
// viewer.
func CurrentViewer(c echo.Context) service.Viewer {
	if v, ok := c.Get(ContextKeyViewer).(service.Viewer); ok {
		return v
	}
	return service.Viewer{}
}

// AccessTokenID returns the jti of the presented access token, if any.
func AccessTokenID(c echo.Context) string {
	if id, ok := c.Get(ContextKeyTokenID).(string); ok {
		return id
	}
	return ""
}

// RequireRole gates a route group to callers holding at least the given role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			viewer := CurrentViewer(c)
			if viewer.ID == uuid.Nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !model.RoleAtLeast(viewer.Role, role) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
