package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/transportpass/api/internal/model"
	"github.com/transportpass/api/internal/utils"
)

// UserRepo provides access to the 'users' table, including the wallet
// balance column. The balance is only ever changed through DebitWalletTx
// and CreditWalletTx so that every mutation stays inside the same
// transaction as its ledger entry.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user with role 'user' and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password, role) VALUES (?,?,?,'user')",
		name, email, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email, including the password
// hash for login verification.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password,phone,wallet_balance,role,created_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.WalletBalance, &u.Role, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password,phone,wallet_balance,role,created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.WalletBalance, &u.Role, &u.CreatedAt)
	return u, err
}

// WalletBalance returns the current balance for a user.
func (r *UserRepo) WalletBalance(ctx context.Context, id uint64) (float64, error) {
	var bal float64
	err := r.DB.QueryRowContext(ctx,
		"SELECT wallet_balance FROM users WHERE id=? LIMIT 1", id).Scan(&bal)
	return bal, err
}

// WalletForUpdateTx reads the balance under a row lock. Every purchase and
// renewal takes this lock as the FIRST statement of its transaction: under
// REPEATABLE READ a plain SELECT issued earlier would fix the read view
// before the lock was granted, and later checks could miss rows committed
// by a concurrent holder of the same lock.
func (r *UserRepo) WalletForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (float64, error) {
	var bal float64
	err := tx.QueryRowContext(ctx,
		"SELECT wallet_balance FROM users WHERE id=? FOR UPDATE", id).Scan(&bal)
	return bal, err
}

// DebitWalletTx subtracts amount from the balance within tx. The statement
// guards against driving the balance negative even if the caller's earlier
// read was stale; zero affected rows maps to ErrInsufficientFunds.
func (r *UserRepo) DebitWalletTx(ctx context.Context, tx *sql.Tx, id uint64, amount float64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET wallet_balance = wallet_balance - ? WHERE id = ? AND wallet_balance >= ?",
		amount, id, amount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// CreditWalletTx adds amount to the balance within tx. Zero affected rows
// means the user no longer exists (a cascade delete can race a still-valid
// token) and maps to sql.ErrNoRows; the caller must not write a ledger
// entry for a credit that touched nothing.
func (r *UserRepo) CreditWalletTx(ctx context.Context, tx *sql.Tx, id uint64, amount float64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET wallet_balance = wallet_balance + ? WHERE id = ?",
		amount, id)
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

// ListAll returns every user for the admin overview, ordered by id.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,email,phone,wallet_balance,role,created_at FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.WalletBalance, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// DeleteCascade removes a user together with their transactions and
// bookings. Dependents are deleted first and the whole sequence runs in one
// transaction so a mid-sequence failure never leaves the user row gone
// while ledger rows remain. Users with the admin role are refused with
// ErrAdminUser; a missing user yields sql.ErrNoRows.
func (r *UserRepo) DeleteCascade(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var role string
	if err := tx.QueryRowContext(ctx,
		"SELECT role FROM users WHERE id=? FOR UPDATE", id).Scan(&role); err != nil {
		return err
	}
	if role == "admin" {
		return ErrAdminUser
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE user_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM bookings WHERE user_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
