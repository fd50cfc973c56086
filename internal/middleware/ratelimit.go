package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/transportpass/api/internal/config"
)

// rateKey builds the limiter key from client identity and route.  An
// authenticated user is limited per account; anonymous traffic falls back
// to the remote IP, which keeps login brute-forcing bounded per source.
func rateKey(prefix string, c echo.Context) string {
	return fmt.Sprintf("%s:%s:%s", prefix, clientIdentity(c), c.Path())
}

// NewRateLimiter returns a fixed-window request limiter backed by Redis.
// Each key counts requests with INCR; the first hit in a window sets the
// expiry.  Over-limit requests get 429 with a Retry-After header.  If
// Redis is unavailable the middleware lets requests through rather than
// failing the API.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := rateKey(cfg.Prefix, c)

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, cfg.Window).Err()
			}
			if n > int64(cfg.Limit) {
				retry := cfg.Window
				if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
					retry = ttl
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many requests, slow down"})
			}
			return next(c)
		}
	}
}
