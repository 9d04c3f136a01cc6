package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned when the identifier or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when email or username is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrAccountLocked is returned when the account is locked after repeated failures.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountInactive is returned when the account has been deactivated.
	ErrAccountInactive = errors.New("account is not active")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid, expired or revoked.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrInvalidResetToken is returned when a password reset or verification token is invalid.
	ErrInvalidResetToken = errors.New("invalid or expired token")
	// ErrTwoFactorRequired is returned when login needs a TOTP code.
	ErrTwoFactorRequired = errors.New("two-factor code required")
	// ErrInvalidTOTPCode is returned when a TOTP code does not verify.
	ErrInvalidTOTPCode = errors.New("invalid two-factor code")
	// ErrTwoFactorNotEnabled is returned when a 2FA operation needs 2FA enabled first.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication is not enabled")

	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden is returned when the caller lacks permission for the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned on unique constraint conflicts (slug, SKU, email).
	ErrConflict = errors.New("resource already exists")
	// ErrValidation is returned for semantically invalid input.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock is returned when an order exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidTransition is returned for illegal order status transitions.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrCategoryInUse is returned when deleting a category that is still referenced.
	ErrCategoryInUse = errors.New("category has children or referenced items")
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// MapError maps domain errors to HTTP errors.
func MapError(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrInvalidResetToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrInvalidTOTPCode):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_2FA_CODE")
	case errors.Is(err, ErrAccountLocked):
		return NewHTTPError(http.StatusLocked, err.Error(), "ACCOUNT_LOCKED")
	case errors.Is(err, ErrAccountInactive), errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrUserAlreadyExists), errors.Is(err, ErrConflict),
		errors.Is(err, ErrCategoryInUse):
		return NewHTTPError(http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, ErrValidation), errors.Is(err, ErrTwoFactorNotEnabled),
		errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInvalidTransition):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
