package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/repository"
)

// WalletHandler exposes the authenticated user's wallet balance.
type WalletHandler struct {
	Users *repository.UserRepo
}

func NewWalletHandler(users *repository.UserRepo) *WalletHandler {
	return &WalletHandler{Users: users}
}

// Balance returns the caller's current wallet balance.
func (h *WalletHandler) Balance(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
	}
	bal, err := h.Users.WalletBalance(c.Request().Context(), userID)
	if err != nil {
		c.Logger().Error("wallet balance: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch wallet balance"})
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": bal})
}
