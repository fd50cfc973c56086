package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/transportpass/api/internal/model"
)

// PassRepo provides CRUD operations for the pass catalog. Passes are read
// by everyone and written only by admins; editing a pass never touches
// existing bookings, it only changes what future purchases and renewals
// cost.
type PassRepo struct{ db *sql.DB }

func NewPassRepo(db *sql.DB) *PassRepo { return &PassRepo{db: db} }

var ErrPassNotFound = errors.New("pass not found")

const passCols = "id, provider, category, type, price, validity_days, coverage, logo_url, created_at"

func scanPass(row *sql.Row) (model.Pass, error) {
	var p model.Pass
	err := row.Scan(&p.ID, &p.Provider, &p.Category, &p.Type, &p.Price,
		&p.ValidityDays, &p.Coverage, &p.LogoURL, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrPassNotFound
	}
	return p, err
}

// List returns the public catalog grouped the way the storefront displays
// it: by category, then provider, then pass type.
func (r *PassRepo) List(ctx context.Context) ([]model.Pass, error) {
	return r.list(ctx, "SELECT "+passCols+" FROM passes ORDER BY category, provider, type")
}

// ListAdmin returns all passes ordered by id for the admin table.
func (r *PassRepo) ListAdmin(ctx context.Context) ([]model.Pass, error) {
	return r.list(ctx, "SELECT "+passCols+" FROM passes ORDER BY id")
}

func (r *PassRepo) list(ctx context.Context, query string) ([]model.Pass, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	passes := make([]model.Pass, 0)
	for rows.Next() {
		var p model.Pass
		if err := rows.Scan(&p.ID, &p.Provider, &p.Category, &p.Type, &p.Price,
			&p.ValidityDays, &p.Coverage, &p.LogoURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return passes, nil
}

// GetByID fetches a single pass; ErrPassNotFound when absent.
func (r *PassRepo) GetByID(ctx context.Context, id uint64) (model.Pass, error) {
	return scanPass(r.db.QueryRowContext(ctx,
		"SELECT "+passCols+" FROM passes WHERE id = ?", id))
}

// GetByIDTx fetches a pass within an open transaction so the price and
// validity used by a purchase are the ones committed at debit time.
func (r *PassRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Pass, error) {
	return scanPass(tx.QueryRowContext(ctx,
		"SELECT "+passCols+" FROM passes WHERE id = ?", id))
}

// Create inserts a pass and returns its ID.
func (r *PassRepo) Create(ctx context.Context, p model.Pass) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO passes (provider, category, type, price, validity_days, coverage, logo_url) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.Provider, p.Category, p.Type, p.Price, p.ValidityDays, p.Coverage, p.LogoURL)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update overwrites all editable fields of a pass.
func (r *PassRepo) Update(ctx context.Context, id uint64, p model.Pass) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE passes SET provider = ?, category = ?, type = ?, price = ?, validity_days = ?, coverage = ?, logo_url = ? WHERE id = ?",
		p.Provider, p.Category, p.Type, p.Price, p.ValidityDays, p.Coverage, p.LogoURL, id)
	return err
}

// Delete removes a pass. Bookings referencing it are left in place; list
// queries tolerate the dangling reference.
func (r *PassRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM passes WHERE id = ?", id)
	return err
}

// Count returns the number of passes.
func (r *PassRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM passes").Scan(&n)
	return n, err
}
