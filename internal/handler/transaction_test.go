package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/transportpass/api/internal/repository"
)

func newTransactionHandler(t *testing.T) (*TransactionHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTransactionHandler(
		repository.NewUserRepo(db),
		repository.NewTransactionRepo(db),
	), mock
}

func TestTopUpBelowMinimumRejected(t *testing.T) {
	h, mock := newTransactionHandler(t)
	e := echo.New()

	// No database work may happen for a rejected amount.
	c, rec := jsonCtx(e, http.MethodPost, "/api/transactions/topup", `{"amount":50}`, 42)
	assert.NoError(t, h.TopUp(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Minimum top-up amount")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopUpSuccess(t *testing.T) {
	h, mock := newTransactionHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET wallet_balance = wallet_balance + ?")).
		WithArgs(500.0, uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WillReturnResult(sqlmock.NewResult(13, 1))
	mock.ExpectCommit()

	c, rec := jsonCtx(e, http.MethodPost, "/api/transactions/topup", `{"amount":500}`, 42)
	assert.NoError(t, h.TopUp(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Top-up successful", resp["message"])
	assert.EqualValues(t, 13, resp["transactionId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A cascade delete can race a still-valid token. The credit then touches
// zero rows and the top-up must fail as 404 without writing a ledger entry,
// never commit a Transaction with no wallet mutation behind it.
func TestTopUpDeletedUserGetsNotFound(t *testing.T) {
	h, mock := newTransactionHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET wallet_balance = wallet_balance + ?")).
		WithArgs(500.0, uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := jsonCtx(e, http.MethodPost, "/api/transactions/topup", `{"amount":500}`, 42)
	assert.NoError(t, h.TopUp(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopUpRollsBackWhenLedgerInsertFails(t *testing.T) {
	h, mock := newTransactionHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET wallet_balance = wallet_balance + ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	c, rec := jsonCtx(e, http.MethodPost, "/api/transactions/topup", `{"amount":500}`, 42)
	assert.NoError(t, h.TopUp(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
