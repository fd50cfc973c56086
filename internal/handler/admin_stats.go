package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/repository"
)

// AdminStatsHandler aggregates the dashboard counters. Revenue counts
// completed purchases and renewals only; top-ups are wallet loads.
type AdminStatsHandler struct {
	Users        *repository.UserRepo
	Passes       *repository.PassRepo
	Bookings     *repository.BookingRepo
	Transactions *repository.TransactionRepo
}

func NewAdminStatsHandler(users *repository.UserRepo, passes *repository.PassRepo,
	bookings *repository.BookingRepo, transactions *repository.TransactionRepo) *AdminStatsHandler {
	return &AdminStatsHandler{Users: users, Passes: passes, Bookings: bookings, Transactions: transactions}
}

// Stats returns the totals shown on the admin dashboard.
func (h *AdminStatsHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.Users.Count(ctx)
	if err != nil {
		c.Logger().Error("stats users: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch statistics"})
	}
	passes, err := h.Passes.Count(ctx)
	if err != nil {
		c.Logger().Error("stats passes: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch statistics"})
	}
	bookings, err := h.Bookings.Count(ctx)
	if err != nil {
		c.Logger().Error("stats bookings: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch statistics"})
	}
	revenue, err := h.Transactions.TotalRevenue(ctx)
	if err != nil {
		c.Logger().Error("stats revenue: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch statistics"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"totalUsers":    users,
		"totalPasses":   passes,
		"totalBookings": bookings,
		"totalRevenue":  revenue,
	})
}
