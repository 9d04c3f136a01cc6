package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"stellar/internal/cache"
	"stellar/internal/config"
	"stellar/internal/model"
)

const rateLimitKeyPrefix = "rate_limit:"

// RateLimit applies a fixed-window request limit keyed by API key when the
// request carries one, else by client IP. API keys may override the window
// maximum. The limiter fails open when redis is unreachable.
func RateLimit(cacheClient *cache.Client, cfg *config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateLimitKeyPrefix + "ip:" + c.RealIP()
			limit := cfg.RateLimitMax
			if apiKey, ok := c.Get(ContextKeyAPIKey).(*model.ApiKey); ok {
				key = rateLimitKeyPrefix + "key:" + apiKey.ID.String()
				if apiKey.RateLimit > 0 {
					limit = apiKey.RateLimit
				}
			}

			count, err := cacheClient.IncrWithTTL(c.Request().Context(), key, cfg.RateLimitWindow)
			if err != nil {
				// fail open: redis outage must not take the API down
				return next(c)
			}

			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(limit) {
				retryAfter, _ := cacheClient.TTL(c.Request().Context(), key)
				h.Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
