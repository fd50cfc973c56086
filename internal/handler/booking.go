package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transportpass/api/internal/model"
	"github.com/transportpass/api/internal/queue"
	"github.com/transportpass/api/internal/repository"
	queuepublisher "github.com/transportpass/api/internal/service"
	"github.com/transportpass/api/internal/utils"
)

// BookingHandler implements purchase, renewal and the booking read views.
// Purchase and renewal each run inside a single database transaction that
// locks the user row, debits the wallet, writes the booking and appends
// the ledger entry; either everything commits or nothing does.
type BookingHandler struct {
	Passes       *repository.PassRepo
	Bookings     *repository.BookingRepo
	Users        *repository.UserRepo
	Transactions *repository.TransactionRepo
}

func NewBookingHandler(passes *repository.PassRepo, bookings *repository.BookingRepo,
	users *repository.UserRepo, transactions *repository.TransactionRepo) *BookingHandler {
	return &BookingHandler{Passes: passes, Bookings: bookings, Users: users, Transactions: transactions}
}

type purchaseRequest struct {
	PassID uint64 `json:"pass_id"`
}

// Purchase buys a pass with wallet funds. The user row lock must be the
// FIRST statement in the transaction: under REPEATABLE READ the consistent
// read view is created by the first non-locking SELECT, so any plain read
// issued before the lock would see a snapshot that predates a concurrent
// purchase committed while this transaction waited on the lock. Locking
// first means the duplicate-active check always sees bookings committed by
// earlier holders of the lock.
func (h *BookingHandler) Purchase(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
	}

	var req purchaseRequest
	if err := c.Bind(&req); err != nil || req.PassID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Pass ID is required"})
	}

	ctx := c.Request().Context()
	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		c.Logger().Error("purchase begin tx: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create booking"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	balance, err := h.Users.WalletForUpdateTx(ctx, tx, userID)
	if err != nil {
		c.Logger().Error("purchase lock wallet: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create booking"})
	}

	pass, err := h.Passes.GetByIDTx(ctx, tx, req.PassID)
	if err != nil {
		if errors.Is(err, repository.ErrPassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Pass not found"})
		}
		c.Logger().Error("purchase load pass: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create booking"})
	}

	active, err := h.Bookings.HasActiveTx(ctx, tx, userID, req.PassID)
	if err != nil {
		c.Logger().Error("purchase active check: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create booking"})
	}
	if active {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "You already have an active pass for this transport. Please wait for it to expire or renew it."})
	}

	if balance < pass.Price {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Insufficient wallet balance"})
	}

	if err := h.Users.DebitWalletTx(ctx, tx, userID, pass.Price); err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Insufficient wallet balance"})
		}
		c.Logger().Error("purchase debit: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create booking"})
	}

	now := time.Now().UTC()
	booking := model.Booking{
		UserID:       userID,
		PassID:       pass.ID,
		PurchaseDate: now,
		ExpiryDate:   now.AddDate(0, 0, pass.ValidityDays),
		Status:       "active",
	}
	if err := h.Bookings.CreateTx(ctx, tx, &booking); err != nil {
		c.Logger().Error("purchase insert booking: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create booking"})
	}

	ledger := model.Transaction{
		UserID:      userID,
		Type:        "purchase",
		Amount:      pass.Price,
		Description: fmt.Sprintf("Purchase: %s - %s Pass", pass.Provider, pass.Type),
		Status:      "completed",
	}
	if err := h.Transactions.CreateTx(ctx, tx, &ledger); err != nil {
		c.Logger().Error("purchase insert transaction: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create booking"})
	}

	if err := tx.Commit(); err != nil {
		c.Logger().Error("purchase commit: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create booking"})
	}
	committed = true

	publishLedgerEvent(queue.LedgerEvent{
		Type:          queue.EventPurchase,
		UserID:        userID,
		BookingID:     booking.ID,
		TransactionID: ledger.ID,
		Amount:        pass.Price,
		Description:   ledger.Description,
		OccurredAt:    now.Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":   "Booking created successfully",
		"bookingId": booking.ID,
	})
}

// Renew extends an existing booking at the pass's CURRENT price. The new
// expiry is anchored at renewal time regardless of when the old period
// would have ended; renewing an already-expired booking reactivates it.
func (h *BookingHandler) Renew(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
	}
	bookingID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid booking id"})
	}

	ctx := c.Request().Context()
	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		c.Logger().Error("renew begin tx: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to renew pass"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock before any plain read, same as Purchase, so the booking and
	// price read below postdate whatever the previous lock holder committed.
	balance, err := h.Users.WalletForUpdateTx(ctx, tx, userID)
	if err != nil {
		c.Logger().Error("renew lock wallet: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to renew pass"})
	}

	info, err := h.Bookings.GetForRenewTx(ctx, tx, bookingID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Booking not found"})
		}
		c.Logger().Error("renew load booking: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to renew pass"})
	}

	if balance < info.Price {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Insufficient wallet balance"})
	}

	if err := h.Users.DebitWalletTx(ctx, tx, userID, info.Price); err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Insufficient wallet balance"})
		}
		c.Logger().Error("renew debit: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to renew pass"})
	}

	now := time.Now().UTC()
	newExpiry := now.AddDate(0, 0, info.ValidityDays)
	if err := h.Bookings.RenewTx(ctx, tx, info.BookingID, newExpiry); err != nil {
		c.Logger().Error("renew update booking: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to renew pass"})
	}

	ledger := model.Transaction{
		UserID:      userID,
		Type:        "renewal",
		Amount:      info.Price,
		Description: fmt.Sprintf("Renewal: %s - %s Pass", info.Provider, info.Type),
		Status:      "completed",
	}
	if err := h.Transactions.CreateTx(ctx, tx, &ledger); err != nil {
		c.Logger().Error("renew insert transaction: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to renew pass"})
	}

	if err := tx.Commit(); err != nil {
		c.Logger().Error("renew commit: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to renew pass"})
	}
	committed = true

	publishLedgerEvent(queue.LedgerEvent{
		Type:          queue.EventRenewal,
		UserID:        userID,
		BookingID:     info.BookingID,
		TransactionID: ledger.ID,
		Amount:        info.Price,
		Description:   ledger.Description,
		OccurredAt:    now.Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":    "Pass renewed successfully",
		"expiryDate": newExpiry,
	})
}

// ListActive returns the caller's currently-active bookings.
func (h *BookingHandler) ListActive(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
	}
	list, err := h.Bookings.ListActiveByUser(c.Request().Context(), userID)
	if err != nil {
		c.Logger().Error("list active bookings: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch bookings"})
	}
	return c.JSON(http.StatusOK, list)
}

// ListExpired returns the caller's expired bookings, newest first.
func (h *BookingHandler) ListExpired(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
	}
	list, err := h.Bookings.ListExpiredByUser(c.Request().Context(), userID)
	if err != nil {
		c.Logger().Error("list expired bookings: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch bookings"})
	}
	return c.JSON(http.StatusOK, list)
}

// Receipt returns the receipt fields of one booking as JSON.
func (h *BookingHandler) Receipt(c echo.Context) error {
	d, status, errResp := h.receiptDetail(c)
	if errResp != nil {
		return c.JSON(status, errResp)
	}
	return c.JSON(http.StatusOK, d)
}

// ReceiptPDF renders the same receipt as a downloadable PDF.
func (h *BookingHandler) ReceiptPDF(c echo.Context) error {
	d, status, errResp := h.receiptDetail(c)
	if errResp != nil {
		return c.JSON(status, errResp)
	}
	pdfBytes, err := utils.BookingReceiptPDF(d)
	if err != nil {
		c.Logger().Error("booking receipt pdf: ", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to generate receipt"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="booking-%d.pdf"`, d.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *BookingHandler) receiptDetail(c echo.Context) (model.BookingDetail, int, echo.Map) {
	userID, err := getUserID(c)
	if err != nil {
		return model.BookingDetail{}, http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"}
	}
	bookingID, err := parseID(c, "id")
	if err != nil {
		return model.BookingDetail{}, http.StatusBadRequest, echo.Map{"error": "Invalid booking id"}
	}
	d, err := h.Bookings.GetDetailForUser(c.Request().Context(), bookingID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BookingDetail{}, http.StatusNotFound, echo.Map{"error": "Booking not found"}
		}
		c.Logger().Error("booking receipt: ", err)
		return model.BookingDetail{}, http.StatusInternalServerError, echo.Map{"error": "Failed to fetch receipt"}
	}
	return d, 0, nil
}

// publishLedgerEvent pushes the event to the broker on a short detached
// context. The database commit is the source of truth; a broker outage
// must not fail the request.
func publishLedgerEvent(ev queue.LedgerEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queuepublisher.PublishLedgerEvent(ctx, ev)
	}()
}
