package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/transportpass/api/internal/repository"
)

func newBookingHandler(t *testing.T) (*BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBookingHandler(
		repository.NewPassRepo(db),
		repository.NewBookingRepo(db),
		repository.NewUserRepo(db),
		repository.NewTransactionRepo(db),
	), mock
}

func jsonCtx(e *echo.Echo, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func passRow(price float64, validityDays int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "provider", "category", "type", "price", "validity_days", "coverage", "logo_url", "created_at",
	}).AddRow(3, "MetroLink", "metro", "Monthly", price, validityDays, nil, nil, time.Now())
}

func TestPurchaseSuccess(t *testing.T) {
	h, mock := newBookingHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM users WHERE id=? FOR UPDATE")).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(1000.0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM passes WHERE id = ?")).
		WithArgs(uint64(3)).
		WillReturnRows(passRow(999, 30))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WithArgs(uint64(42), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET wallet_balance = wallet_balance - ?")).
		WithArgs(999.0, uint64(42), 999.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	c, rec := jsonCtx(e, http.MethodPost, "/api/bookings", `{"pass_id":3}`, 42)
	assert.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Booking created successfully", resp["message"])
	assert.EqualValues(t, 7, resp["bookingId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseDuplicateActiveBooking(t *testing.T) {
	h, mock := newBookingHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM users WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(5000.0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM passes WHERE id = ?")).
		WillReturnRows(passRow(999, 30))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	c, rec := jsonCtx(e, http.MethodPost, "/api/bookings", `{"pass_id":3}`, 42)
	assert.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already have an active pass")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseInsufficientBalance(t *testing.T) {
	h, mock := newBookingHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM users WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(500.0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM passes WHERE id = ?")).
		WillReturnRows(passRow(999, 30))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	c, rec := jsonCtx(e, http.MethodPost, "/api/bookings", `{"pass_id":3}`, 42)
	assert.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient wallet balance")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseUnknownPass(t *testing.T) {
	h, mock := newBookingHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM users WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(1000.0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM passes WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "provider", "category", "type", "price", "validity_days", "coverage", "logo_url", "created_at",
		}))
	mock.ExpectRollback()

	c, rec := jsonCtx(e, http.MethodPost, "/api/bookings", `{"pass_id":99}`, 42)
	assert.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pass not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The wallet row lock must be the first statement of the purchase
// transaction. A plain read issued before it would fix the transaction's
// consistent-read view too early, and the duplicate-active check could
// miss a booking committed while this purchase waited on the lock. The
// ordered expectations fail if any query slips in front of the lock.
func TestPurchaseLocksWalletBeforeAnyRead(t *testing.T) {
	h, mock := newBookingHandler(t)
	e := echo.New()

	// The concurrent purchase has already committed; the post-lock
	// duplicate check sees it and this one is rejected.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM users WHERE id=? FOR UPDATE")).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(1.0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM passes WHERE id = ?")).
		WillReturnRows(passRow(999, 30))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	c, rec := jsonCtx(e, http.MethodPost, "/api/bookings", `{"pass_id":3}`, 42)
	assert.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already have an active pass")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A failure after the debit must roll the whole purchase back; the wallet
// is never left debited without its booking and ledger row.
func TestPurchaseRollsBackWhenBookingInsertFails(t *testing.T) {
	h, mock := newBookingHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM users WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(1000.0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM passes WHERE id = ?")).
		WillReturnRows(passRow(999, 30))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET wallet_balance = wallet_balance - ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	c, rec := jsonCtx(e, http.MethodPost, "/api/bookings", `{"pass_id":3}`, 42)
	assert.NoError(t, h.Purchase(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewChargesCurrentPrice(t *testing.T) {
	h, mock := newBookingHandler(t)
	e := echo.New()

	// The pass was bought at 999 but now costs 1200; the renewal debits 1200.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM users WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(1500.0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT b.id, b.pass_id, p.provider, p.type, p.price, p.validity_days")).
		WithArgs(uint64(5), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "pass_id", "provider", "type", "price", "validity_days"}).
			AddRow(5, 3, "MetroLink", "Monthly", 1200.0, 30))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET wallet_balance = wallet_balance - ?")).
		WithArgs(1200.0, uint64(42), 1200.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET expiry_date = ?, status = 'active'")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	c, rec := jsonCtx(e, http.MethodPost, "/api/bookings/5/renew", `{}`, 42)
	c.SetPath("/api/bookings/:id/renew")
	c.SetParamNames("id")
	c.SetParamValues("5")

	assert.NoError(t, h.Renew(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pass renewed successfully")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewUnknownBooking(t *testing.T) {
	h, mock := newBookingHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT wallet_balance FROM users WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(100.0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT b.id, b.pass_id, p.provider, p.type, p.price, p.validity_days")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "pass_id", "provider", "type", "price", "validity_days"}))
	mock.ExpectRollback()

	c, rec := jsonCtx(e, http.MethodPost, "/api/bookings/404/renew", `{}`, 42)
	c.SetPath("/api/bookings/:id/renew")
	c.SetParamNames("id")
	c.SetParamValues("404")

	assert.NoError(t, h.Renew(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Booking not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
