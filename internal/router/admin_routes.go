package router

import (
	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/handler"
	"github.com/transportpass/api/internal/middleware"
)

// RegisterAdmin registers the management surface under /api/admin. Every
// route requires a valid access token whose role claim is "admin".
func RegisterAdmin(e *echo.Echo, p *handler.AdminPassHandler, u *handler.AdminUserHandler,
	b *handler.AdminBookingHandler, tr *handler.AdminTransactionHandler,
	s *handler.AdminStatsHandler, jwtSecret string) {
	g := e.Group("/api/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireAdmin())

	// Pass catalog management.
	g.GET("/passes", p.List)
	g.POST("/passes", p.Create)
	g.PUT("/passes/:id", p.Update)
	g.DELETE("/passes/:id", p.Delete)

	// User administration.
	g.GET("/users", u.List)
	g.DELETE("/users/:id", u.Delete)

	// Booking oversight.
	g.GET("/bookings", b.List)
	g.DELETE("/bookings/:id", b.Delete)

	// Full wallet ledger.
	g.GET("/transactions", tr.List)

	// Dashboard counters.
	g.GET("/statistics", s.Stats)
}
