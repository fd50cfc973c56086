package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func detailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "pass_id", "purchase_date", "expiry_date", "status",
		"provider", "category", "type", "coverage", "price",
	})
}

func TestListActiveKeepsDanglingPassRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	// Second row simulates a booking whose pass was deleted; the query's
	// COALESCE substitutes the placeholders before the rows reach Go.
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings b")).
		WithArgs(uint64(42)).
		WillReturnRows(detailRows().
			AddRow(1, 42, 3, now, now.AddDate(0, 0, 30), "active", "MetroLink", "metro", "Monthly", "Zones 1-3", 999.0).
			AddRow(2, 42, 9, now, now.AddDate(0, 0, 7), "active", "N/A", "N/A", "N/A", "N/A", 0.0))

	repo := NewBookingRepo(db)
	list, err := repo.ListActiveByUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(list))
	}
	if list[1].Provider != "N/A" || list[1].Price != 0 {
		t.Fatalf("dangling pass row not preserved: %+v", list[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteByIDReportsMissingBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = ?")).
		WithArgs(uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewBookingRepo(db)
	if err := repo.DeleteByID(context.Background(), 77); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
