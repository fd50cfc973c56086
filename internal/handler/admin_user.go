package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/repository"
)

// AdminUserHandler lists and deletes user accounts.
type AdminUserHandler struct {
	Users *repository.UserRepo
}

func NewAdminUserHandler(users *repository.UserRepo) *AdminUserHandler {
	return &AdminUserHandler{Users: users}
}

// List returns all users for the admin overview.
func (h *AdminUserHandler) List(c echo.Context) error {
	users, err := h.Users.ListAll(c.Request().Context())
	if err != nil {
		c.Logger().Error("admin list users: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch users"})
	}
	return c.JSON(http.StatusOK, users)
}

// Delete removes a user together with their bookings and transactions.
// Admin accounts cannot be deleted.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid user id"})
	}
	if err := h.Users.DeleteCascade(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		case errors.Is(err, repository.ErrAdminUser):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cannot delete admin users"})
		default:
			c.Logger().Error("admin delete user: ", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete user"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
