package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/transportpass/api/internal/model"
)

// BookingRepo provides operations on bookings and the joined views used
// for display. A booking is "currently active" when its stored status is
// 'active' AND its expiry_date lies in the future; the stored column alone
// is never trusted because nothing flips it to 'expired' in the background.
// All timestamp comparisons happen in SQL against UTC_TIMESTAMP() so that
// reads and writes share one clock.
type BookingRepo struct{ db *sql.DB }

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can open the transaction
// that spans wallet debit, booking write and ledger insert.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// HasActiveTx reports whether the user already holds a currently-active
// booking for the pass. Must run inside the purchase transaction after the
// user row has been locked, and no plain read may precede that lock; the
// transaction's read view is created by its first non-locking SELECT, so
// only a post-lock view is guaranteed to include a concurrent purchase
// that committed while this one waited.
func (r *BookingRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, userID, passID uint64) (bool, error) {
	const q = `SELECT EXISTS(
	              SELECT 1 FROM bookings
	              WHERE user_id = ? AND pass_id = ? AND status = 'active' AND expiry_date > UTC_TIMESTAMP())`
	var exists bool
	err := tx.QueryRowContext(ctx, q, userID, passID).Scan(&exists)
	return exists, err
}

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID on the provided record. The
// caller must commit or rollback the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, pass_id, purchase_date, expiry_date, status) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.PassID, b.PurchaseDate, b.ExpiryDate, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// RenewInfo carries the fields a renewal needs: booking identity plus the
// CURRENT price and validity of its pass. Deliberately not a snapshot; an
// admin price edit between purchase and renewal changes what the renewal
// debits.
type RenewInfo struct {
	BookingID    uint64
	PassID       uint64
	Provider     string
	Type         string
	Price        float64
	ValidityDays int
}

// GetForRenewTx loads a booking joined with its current pass, restricted to
// the owning user. sql.ErrNoRows covers both a missing booking and one
// owned by someone else; a booking whose pass was deleted cannot be priced
// and is reported the same way.
func (r *BookingRepo) GetForRenewTx(ctx context.Context, tx *sql.Tx, bookingID, userID uint64) (RenewInfo, error) {
	const q = `SELECT b.id, b.pass_id, p.provider, p.type, p.price, p.validity_days
	           FROM bookings b
	           JOIN passes p ON p.id = b.pass_id
	           WHERE b.id = ? AND b.user_id = ?`
	var info RenewInfo
	err := tx.QueryRowContext(ctx, q, bookingID, userID).Scan(
		&info.BookingID, &info.PassID, &info.Provider, &info.Type, &info.Price, &info.ValidityDays)
	return info, err
}

// RenewTx pushes the expiry forward and resets the status to active within
// the renewal transaction. The new expiry is anchored at renewal time, not
// at the previous expiry.
func (r *BookingRepo) RenewTx(ctx context.Context, tx *sql.Tx, bookingID uint64, expiry time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET expiry_date = ?, status = 'active' WHERE id = ?",
		expiry, bookingID)
	return err
}

// detailCols selects booking columns plus display fields from the pass.
// The LEFT JOIN plus COALESCE keeps bookings visible after their pass has
// been deleted by an admin; missing fields render as "N/A".
const detailCols = `b.id, b.user_id, b.pass_id, b.purchase_date, b.expiry_date, b.status,
	       COALESCE(p.provider, 'N/A'), COALESCE(p.category, 'N/A'),
	       COALESCE(p.type, 'N/A'), COALESCE(p.coverage, 'N/A'), COALESCE(p.price, 0)`

func scanDetail(rows *sql.Rows, d *model.BookingDetail) error {
	return rows.Scan(&d.ID, &d.UserID, &d.PassID, &d.PurchaseDate, &d.ExpiryDate, &d.Status,
		&d.Provider, &d.Category, &d.Type, &d.Coverage, &d.Price)
}

// ListActiveByUser returns the user's currently-active bookings, soonest
// expiry first.
func (r *BookingRepo) ListActiveByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	const q = `SELECT ` + detailCols + `
	           FROM bookings b
	           LEFT JOIN passes p ON p.id = b.pass_id
	           WHERE b.user_id = ? AND b.status = 'active' AND b.expiry_date > UTC_TIMESTAMP()
	           ORDER BY b.expiry_date`
	return r.listDetails(ctx, q, userID)
}

// ListExpiredByUser returns bookings that are expired either by stored
// status or by a past expiry date, most recently expired first.
func (r *BookingRepo) ListExpiredByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	const q = `SELECT ` + detailCols + `
	           FROM bookings b
	           LEFT JOIN passes p ON p.id = b.pass_id
	           WHERE b.user_id = ? AND (b.status = 'expired' OR b.expiry_date <= UTC_TIMESTAMP())
	           ORDER BY b.expiry_date DESC`
	return r.listDetails(ctx, q, userID)
}

func (r *BookingRepo) listDetails(ctx context.Context, query string, args ...interface{}) ([]model.BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]model.BookingDetail, 0)
	for rows.Next() {
		var d model.BookingDetail
		if err := scanDetail(rows, &d); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetDetailForUser returns a single booking with pass display fields for
// the receipt views, restricted to the owning user. sql.ErrNoRows when the
// booking does not exist or belongs to someone else.
func (r *BookingRepo) GetDetailForUser(ctx context.Context, bookingID, userID uint64) (model.BookingDetail, error) {
	const q = `SELECT ` + detailCols + `
	           FROM bookings b
	           LEFT JOIN passes p ON p.id = b.pass_id
	           WHERE b.id = ? AND b.user_id = ?`
	var d model.BookingDetail
	err := r.db.QueryRowContext(ctx, q, bookingID, userID).Scan(
		&d.ID, &d.UserID, &d.PassID, &d.PurchaseDate, &d.ExpiryDate, &d.Status,
		&d.Provider, &d.Category, &d.Type, &d.Coverage, &d.Price)
	return d, err
}

// ListAllAdmin returns every booking joined with pass and user identity,
// newest purchase first.
func (r *BookingRepo) ListAllAdmin(ctx context.Context) ([]model.AdminBookingDetail, error) {
	const q = `SELECT ` + detailCols + `, u.name, u.email
	           FROM bookings b
	           LEFT JOIN passes p ON p.id = b.pass_id
	           JOIN users u ON u.id = b.user_id
	           ORDER BY b.purchase_date DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]model.AdminBookingDetail, 0)
	for rows.Next() {
		var d model.AdminBookingDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.PassID, &d.PurchaseDate, &d.ExpiryDate, &d.Status,
			&d.Provider, &d.Category, &d.Type, &d.Coverage, &d.Price,
			&d.UserName, &d.UserEmail); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// DeleteByID removes a booking; sql.ErrNoRows when nothing was deleted.
// Wallet balances and transaction history are untouched.
func (r *BookingRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the number of bookings.
func (r *BookingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings").Scan(&n)
	return n, err
}
