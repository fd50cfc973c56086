package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/repository"
)

// AdminBookingHandler exposes the full booking table to admins.
type AdminBookingHandler struct {
	Bookings *repository.BookingRepo
}

func NewAdminBookingHandler(bookings *repository.BookingRepo) *AdminBookingHandler {
	return &AdminBookingHandler{Bookings: bookings}
}

// List returns every booking with pass and user identity, newest first.
func (h *AdminBookingHandler) List(c echo.Context) error {
	list, err := h.Bookings.ListAllAdmin(c.Request().Context())
	if err != nil {
		c.Logger().Error("admin list bookings: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch bookings"})
	}
	return c.JSON(http.StatusOK, list)
}

// Delete removes a single booking. The owner's wallet and ledger history
// are untouched; this is an administrative cleanup, not a refund.
func (h *AdminBookingHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid booking id"})
	}
	if err := h.Bookings.DeleteByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Booking not found"})
		}
		c.Logger().Error("admin delete booking: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Booking deleted successfully"})
}
