package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/transportpass/api/internal/config"
)

// cachedResponse is the envelope stored in Redis for a cache entry.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyCapture duplicates the response body into a buffer while forwarding
// it to the client, so a successful response can be stored after the
// handler returns.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int
	limit  int
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	if w.limit <= 0 || w.size+len(b) <= w.limit {
		w.buf.Write(b)
	}
	w.size += len(b)
	return w.ResponseWriter.Write(b)
}

func cacheKey(prefix string, c echo.Context) string {
	r := c.Request()
	sum := sha1.Sum([]byte(c.Path() + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// NewRedisCache caches successful GET responses in Redis for cfg.TTL.
// Intended for the public pass catalog, which every storefront page load
// hits and which only changes on admin edits.  Serves hits with an
// X-Cache: HIT header; any Redis failure falls through to the handler.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil && cached.Status != 0 {
					h := c.Response().Header()
					if cached.ContentType != "" {
						h.Set(echo.HeaderContentType, cached.ContentType)
					}
					h.Set("X-Cache", "HIT")
					return c.Blob(cached.Status, cached.ContentType, cached.Body)
				}
			}

			cap := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Header().Set("X-Cache", "MISS")
			c.Response().Writer = cap
			if err := next(c); err != nil {
				return err
			}

			// Only cache complete 200 responses.
			if cap.status != http.StatusOK || (cap.limit > 0 && cap.size > cap.limit) {
				return nil
			}
			ct := strings.TrimSpace(c.Response().Header().Get(echo.HeaderContentType))
			raw, err := json.Marshal(cachedResponse{Status: cap.status, ContentType: ct, Body: cap.buf.Bytes()})
			if err == nil {
				_ = rdb.Set(ctx, key, raw, ttl).Err()
			}
			return nil
		}
	}
}
