package repository

import (
	"context"
	"database/sql"

	"github.com/transportpass/api/internal/model"
)

// TransactionRepo writes and reads the append-only wallet ledger. Inserts
// only ever happen through CreateTx inside the same transaction as the
// wallet mutation they record; there is no update path.
type TransactionRepo struct{ db *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// CreateTx appends a ledger row within an open transaction and populates
// the generated ID on the record. transaction_date is filled by the column
// default at insert time and is not read back.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	const q = `INSERT INTO transactions (user_id, transaction_type, amount, description, status) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.UserID, t.Type, t.Amount, t.Description, t.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

const txCols = "id, user_id, transaction_type, amount, description, status, transaction_date"

// ListByUser returns the user's ledger history, newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+txCols+" FROM transactions WHERE user_id = ? ORDER BY transaction_date DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]model.Transaction, 0)
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.Status, &t.TransactionDate); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// GetByIDForUser returns one ledger row restricted to its owner;
// sql.ErrNoRows otherwise.
func (r *TransactionRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (model.Transaction, error) {
	var t model.Transaction
	err := r.db.QueryRowContext(ctx,
		"SELECT "+txCols+" FROM transactions WHERE id = ? AND user_id = ?", id, userID).
		Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.Status, &t.TransactionDate)
	return t, err
}

// ListAllAdmin returns the full ledger joined with user identity, newest
// first.
func (r *TransactionRepo) ListAllAdmin(ctx context.Context) ([]model.AdminTransaction, error) {
	const q = `SELECT t.id, t.user_id, t.transaction_type, t.amount, t.description, t.status, t.transaction_date,
	                  u.name, u.email
	           FROM transactions t
	           JOIN users u ON u.id = t.user_id
	           ORDER BY t.transaction_date DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]model.AdminTransaction, 0)
	for rows.Next() {
		var t model.AdminTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.Status, &t.TransactionDate,
			&t.UserName, &t.UserEmail); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// TotalRevenue sums completed purchase and renewal amounts for the admin
// statistics view. Top-ups are wallet loads, not revenue.
func (r *TransactionRepo) TotalRevenue(ctx context.Context) (float64, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM transactions
	           WHERE transaction_type IN ('purchase', 'renewal') AND status = 'completed'`
	var total float64
	err := r.db.QueryRowContext(ctx, q).Scan(&total)
	return total, err
}
