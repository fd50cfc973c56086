package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/transportpass/api/internal/config"
	"github.com/transportpass/api/internal/handler"
	"github.com/transportpass/api/internal/middleware"
)

// RegisterAuth registers registration and login under /api/auth plus the
// authenticated profile endpoint. The auth endpoints sit behind the rate
// limiter because they are the ones exposed to credential stuffing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rdb *redis.Client) {
	limiter := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/api/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	// Profile endpoint requires a valid access token.
	auth := e.Group("/api/auth")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated pass catalog. Responses are
// cached in Redis; the cache middleware is a no-op when Redis is down.
func RegisterPublic(e *echo.Echo, p *handler.PassHandler, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e.GET("/api/passes", p.List, cache)
	e.GET("/api/passes/:id", p.GetByID, cache)
}

// RegisterUser registers every endpoint that operates on the caller's own
// data: wallet, bookings and the transaction ledger. All of them require a
// valid access token.
func RegisterUser(e *echo.Echo, w *handler.WalletHandler, b *handler.BookingHandler,
	t *handler.TransactionHandler, jwtSecret string) {
	g := e.Group("/api")
	g.Use(middleware.JWTAuth(jwtSecret))

	// Wallet.
	g.GET("/users/wallet", w.Balance)

	// Bookings. Static segments take precedence over :id in Echo's router,
	// so /bookings/active never collides with /bookings/:id/renew.
	g.POST("/bookings", b.Purchase)
	g.GET("/bookings/active", b.ListActive)
	g.GET("/bookings/expired", b.ListExpired)
	g.POST("/bookings/:id/renew", b.Renew)
	g.GET("/bookings/:id/receipt", b.Receipt)
	g.GET("/bookings/:id/receipt.pdf", b.ReceiptPDF)

	// Wallet top-up and ledger history. /transactions/topup is a static
	// segment, so it never collides with /transactions/:id/receipt.
	g.POST("/transactions/topup", t.TopUp)
	g.GET("/transactions", t.List)
	g.GET("/transactions/:id/receipt", t.Receipt)
	g.GET("/transactions/:id/receipt.pdf", t.ReceiptPDF)
}
