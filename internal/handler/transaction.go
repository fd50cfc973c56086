package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/model"
	"github.com/transportpass/api/internal/queue"
	"github.com/transportpass/api/internal/repository"
	"github.com/transportpass/api/internal/utils"
)

// minTopUp is the smallest accepted wallet load, in rupees.
const minTopUp = 100.0

// TransactionHandler covers wallet top-ups and the ledger read views.
type TransactionHandler struct {
	Users        *repository.UserRepo
	Transactions *repository.TransactionRepo
}

func NewTransactionHandler(users *repository.UserRepo, transactions *repository.TransactionRepo) *TransactionHandler {
	return &TransactionHandler{Users: users, Transactions: transactions}
}

type topUpRequest struct {
	Amount float64 `json:"amount"`
}

// TopUp credits the wallet and appends the matching ledger entry in one
// transaction. Amounts below the minimum are rejected before any write.
func (h *TransactionHandler) TopUp(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
	}

	var req topUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if req.Amount < minTopUp {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Minimum top-up amount is ₹100"})
	}

	ctx := c.Request().Context()
	tx, err := h.Users.DB.BeginTx(ctx, nil)
	if err != nil {
		c.Logger().Error("topup begin tx: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Top-up failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Users.CreditWalletTx(ctx, tx, userID, req.Amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		c.Logger().Error("topup credit: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Top-up failed"})
	}

	ledger := model.Transaction{
		UserID:      userID,
		Type:        "topup",
		Amount:      req.Amount,
		Description: fmt.Sprintf("Wallet Top-Up: ₹%g", req.Amount),
		Status:      "completed",
	}
	if err := h.Transactions.CreateTx(ctx, tx, &ledger); err != nil {
		c.Logger().Error("topup insert transaction: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Top-up failed"})
	}

	if err := tx.Commit(); err != nil {
		c.Logger().Error("topup commit: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Top-up failed"})
	}
	committed = true

	publishLedgerEvent(queue.LedgerEvent{
		Type:          queue.EventTopUp,
		UserID:        userID,
		TransactionID: ledger.ID,
		Amount:        req.Amount,
		Description:   ledger.Description,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":       "Top-up successful",
		"transactionId": ledger.ID,
	})
}

// List returns the caller's ledger history, newest first.
func (h *TransactionHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
	}
	list, err := h.Transactions.ListByUser(c.Request().Context(), userID)
	if err != nil {
		c.Logger().Error("list transactions: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch transactions"})
	}
	return c.JSON(http.StatusOK, list)
}

// Receipt returns one ledger entry as JSON.
func (h *TransactionHandler) Receipt(c echo.Context) error {
	t, status, errResp := h.receiptEntry(c)
	if errResp != nil {
		return c.JSON(status, errResp)
	}
	return c.JSON(http.StatusOK, t)
}

// ReceiptPDF renders the same ledger entry as a downloadable PDF.
func (h *TransactionHandler) ReceiptPDF(c echo.Context) error {
	t, status, errResp := h.receiptEntry(c)
	if errResp != nil {
		return c.JSON(status, errResp)
	}
	pdfBytes, err := utils.TransactionReceiptPDF(t)
	if err != nil {
		c.Logger().Error("transaction receipt pdf: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to generate receipt"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="transaction-%d.pdf"`, t.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *TransactionHandler) receiptEntry(c echo.Context) (model.Transaction, int, echo.Map) {
	userID, err := getUserID(c)
	if err != nil {
		return model.Transaction{}, http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"}
	}
	txID, err := parseID(c, "id")
	if err != nil {
		return model.Transaction{}, http.StatusBadRequest, echo.Map{"error": "Invalid transaction id"}
	}
	t, err := h.Transactions.GetByIDForUser(c.Request().Context(), txID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Transaction{}, http.StatusNotFound, echo.Map{"error": "Transaction not found"}
		}
		c.Logger().Error("transaction receipt: ", err)
		return model.Transaction{}, http.StatusInternalServerError, echo.Map{"error": "Failed to fetch receipt"}
	}
	return t, 0, nil
}
