package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/repository"
)

// AdminTransactionHandler exposes the full wallet ledger to admins.
type AdminTransactionHandler struct {
	Transactions *repository.TransactionRepo
}

func NewAdminTransactionHandler(transactions *repository.TransactionRepo) *AdminTransactionHandler {
	return &AdminTransactionHandler{Transactions: transactions}
}

// List returns every ledger entry with user identity, newest first.
func (h *AdminTransactionHandler) List(c echo.Context) error {
	list, err := h.Transactions.ListAllAdmin(c.Request().Context())
	if err != nil {
		c.Logger().Error("admin list transactions: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch transactions"})
	}
	return c.JSON(http.StatusOK, list)
}
