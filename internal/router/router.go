package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"stellar/internal/auth"
	"stellar/internal/config"
	apperrors "stellar/internal/errors"
	"stellar/internal/handler"
	"stellar/internal/middleware"
	"stellar/internal/model"
	"stellar/internal/response"
	"stellar/internal/service"
)

// Handlers groups the endpoint handlers wired by Register.
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	TwoFactor *handler.TwoFactorHandler
	ApiKey    *handler.ApiKeyHandler
	Post      *handler.PostHandler
	Comment   *handler.CommentHandler
	Category  *handler.CategoryHandler
	Product   *handler.ProductHandler
	Order     *handler.OrderHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	tokenStore auth.BlacklistStore,
	apiKeyService service.ApiKeyService,
	ddos *middleware.DDoSGuard,
	rateLimit echo.MiddlewareFunc,
	h Handlers,
) {
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = errorHandler(cfg)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, middleware.APIKeyHeader},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.Logger())
	e.Use(ddos.Middleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	requireJWT := middleware.JWT(jwtService, tokenStore)
	optionalJWT := middleware.OptionalJWT(jwtService, tokenStore)
	apiKeyAuth := middleware.APIKeyAuth(apiKeyService)

	// The limiter runs after key auth so a resolved API key can override the
	// window maximum.
	api := e.Group("/api/v1", apiKeyAuth, rateLimit)

	// Public auth routes.
	api.POST("/auth/register", h.Auth.Register)
	api.GET("/auth/verify-email", h.Auth.VerifyEmail)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/2fa/verify", h.Auth.Verify2FA)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/forgot-password", h.Auth.ForgotPassword)
	api.POST("/auth/reset-password", h.Auth.ResetPassword)
	api.POST("/auth/logout", h.Auth.Logout, requireJWT)

	// Public reads resolve the viewer when credentials are present so
	// authors see their own drafts.
	api.GET("/posts", h.Post.List, optionalJWT)
	api.GET("/posts/:id", h.Post.Get, optionalJWT)
	api.GET("/posts/:id/comments", h.Comment.ListByPost)
	api.GET("/categories", h.Category.List)
	api.GET("/categories/:id", h.Category.Get)
	api.GET("/products", h.Product.List)
	api.GET("/products/:id", h.Product.Get)

	// Authenticated routes.
	secured := api.Group("", requireJWT)

	secured.GET("/users/profile", h.User.GetProfile)
	secured.PUT("/users/profile", h.User.UpdateProfile)
	secured.DELETE("/users/profile", h.User.DeleteAccount)
	secured.POST("/users/change-password", h.User.ChangePassword)

	secured.POST("/2fa/setup", h.TwoFactor.Setup)
	secured.POST("/2fa/enable", h.TwoFactor.Enable)
	secured.POST("/2fa/disable", h.TwoFactor.Disable)

	secured.POST("/api-keys", h.ApiKey.Create)
	secured.GET("/api-keys", h.ApiKey.List)
	secured.DELETE("/api-keys/:id", h.ApiKey.Revoke)

	secured.POST("/posts", h.Post.Create)
	secured.PUT("/posts/:id", h.Post.Update)
	secured.DELETE("/posts/:id", h.Post.Delete)

	secured.POST("/posts/:id/comments", h.Comment.Create)
	secured.PUT("/comments/:id", h.Comment.Update)
	secured.DELETE("/comments/:id", h.Comment.Delete)

	secured.POST("/orders", h.Order.Place)
	secured.GET("/orders", h.Order.List)
	secured.GET("/orders/:id", h.Order.Get)
	secured.POST("/orders/:id/cancel", h.Order.Cancel)

	// Moderator routes.
	moderation := secured.Group("", middleware.RequireRole(model.RoleModerator))
	moderation.POST("/categories", h.Category.Create)
	moderation.PUT("/categories/:id", h.Category.Update)
	moderation.DELETE("/categories/:id", h.Category.Delete)

	// Admin routes.
	admin := secured.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", h.User.ListUsers)
	admin.GET("/users/:id", h.User.GetUser)
	admin.PUT("/users/:id/role", h.User.SetRole)
	admin.PUT("/users/:id/status", h.User.SetStatus)

	admin.POST("/products", h.Product.Create)
	admin.PUT("/products/:id", h.Product.Update)
	admin.DELETE("/products/:id", h.Product.Delete)

	admin.PUT("/orders/:id/status", h.Order.SetStatus)
}

// errorHandler translates domain and echo errors into the response
// envelope. Internal error details are suppressed outside development.
func errorHandler(cfg *config.Config) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status  int
			message string
			code    string
		)
		switch e := err.(type) {
		case *echo.HTTPError:
			status = e.Code
			message = http.StatusText(status)
			if m, ok := e.Message.(string); ok {
				message = m
			}
			code = codeForStatus(status)
		case *apperrors.HTTPError:
			status, message, code = e.StatusCode, e.Message, e.Code
		default:
			mapped := apperrors.MapError(err)
			status, message, code = mapped.StatusCode, mapped.Message, mapped.Code
		}

		if status >= http.StatusInternalServerError {
			logrus.WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).WithError(err).Error("request failed")
			if !cfg.IsDevelopment() {
				message = "internal server error"
			}
		}

		if writeErr := response.Error(c, status, message, code); writeErr != nil {
			logrus.WithError(writeErr).Error("failed to write error response")
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusLocked:
		return "ACCOUNT_LOCKED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
