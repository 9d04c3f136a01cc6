package middleware

import (
	"net/http"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"

	"stellar/internal/cache"
	"stellar/internal/config"
	"stellar/internal/logging"
	"stellar/internal/model"
)

const banKeyPrefix = "ip_ban:"

// DDoSGuard tracks per-IP request bursts in an in-process expirable LRU.
// An IP exceeding the burst threshold inside the window is banned in redis
// for the configured cooldown, so the ban holds across replicas sharing the
// redis instance.
type DDoSGuard struct {
	counters *lru.LRU[string, *int64]
	cache    *cache.Client
	cfg      *config.Config
	secLog   *logging.SecurityLogger
}

const maxTrackedIPs = 16384

// NewDDoSGuard creates a burst guard.
func NewDDoSGuard(cacheClient *cache.Client, cfg *config.Config, secLog *logging.SecurityLogger) *DDoSGuard {
	return &DDoSGuard{
		counters: lru.NewLRU[string, *int64](maxTrackedIPs, nil, cfg.BurstWindow),
		cache:    cacheClient,
		cfg:      cfg,
		secLog:   secLog,
	}
}

// Middleware returns the echo middleware applying the guard.
func (g *DDoSGuard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			ctx := c.Request().Context()

			if banned, _ := g.cache.Exists(ctx, banKeyPrefix+ip); banned {
				return echo.NewHTTPError(http.StatusTooManyRequests, "temporarily banned")
			}

			counter, ok := g.counters.Get(ip)
			if !ok {
				counter = new(int64)
				g.counters.Add(ip, counter)
			}
			if atomic.AddInt64(counter, 1) > int64(g.cfg.BurstMax) {
				_ = g.cache.Set(ctx, banKeyPrefix+ip, []byte("1"), g.cfg.BanDuration)
				g.counters.Remove(ip)
				g.secLog.AnonymousEvent(ctx, model.EventIPBanned, ip, c.Request().UserAgent(), "request burst")
				return echo.NewHTTPError(http.StatusTooManyRequests, "temporarily banned")
			}
			return next(c)
		}
	}
}
