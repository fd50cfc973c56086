package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/transportpass/api/internal/repository"
)

func newAdminUserHandler(t *testing.T) (*AdminUserHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAdminUserHandler(repository.NewUserRepo(db)), mock
}

func deleteCtx(e *echo.Echo, id string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/admin/users/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

// Dependents go first: transactions, then bookings, then the user row,
// all inside one transaction.
func TestAdminDeleteUserCascades(t *testing.T) {
	h, mock := newAdminUserHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id=? FOR UPDATE")).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("user"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM transactions WHERE user_id = ?")).
		WithArgs(uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE user_id = ?")).
		WithArgs(uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs(uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := deleteCtx(e, "8")
	assert.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User deleted successfully")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminDeleteUserRefusesAdmins(t *testing.T) {
	h, mock := newAdminUserHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))
	mock.ExpectRollback()

	c, rec := deleteCtx(e, "1")
	assert.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot delete admin users")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminDeleteUserNotFound(t *testing.T) {
	h, mock := newAdminUserHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"role"}))
	mock.ExpectRollback()

	c, rec := deleteCtx(e, "999")
	assert.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
