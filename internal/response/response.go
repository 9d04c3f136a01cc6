package response

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"stellar/internal/errors"
)

// Envelope is the uniform response shape: {success, data|error}.
type Envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   *errors.ErrorBody `json:"error,omitempty"`
}

// Page wraps a list payload with pagination metadata.
type Page struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// JSON writes a success envelope.
func JSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// Error writes an error envelope.
func Error(c echo.Context, status int, message, code string) error {
	return c.JSON(status, Envelope{
		Success: false,
		Error:   &errors.ErrorBody{Message: message, Code: code},
	})
}

// Pagination holds normalized page/limit query values.
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

const maxPageLimit = 100

// ParsePagination normalizes page/limit query parameters.
func ParsePagination(c echo.Context) Pagination {
	p := Pagination{Page: 1, Limit: 20}
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}
