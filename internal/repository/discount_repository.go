package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"tourbooking/internal/model"
)

// DiscountRepo manages flat promotional code records. Discounts are
// administered from the dashboard and never consulted by the booking
// flow.
type DiscountRepo struct {
	db *sql.DB
}

// NewDiscountRepo constructs a DiscountRepo with the given DB handle.
func NewDiscountRepo(db *sql.DB) *DiscountRepo { return &DiscountRepo{db: db} }

// Create inserts a discount. Codes carry a unique index; a duplicate
// surfaces from the INSERT itself and maps to ErrCodeExists, so two
// concurrent creates of the same code cannot both succeed.
func (r *DiscountRepo) Create(ctx context.Context, d *model.Discount) error {
	const q = `INSERT INTO discounts (code, amount, expires_at) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, d.Code, d.Amount, d.ExpiresAt.UTC())
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 { // duplicate key
			return ErrCodeExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// List returns all discounts newest first.
func (r *DiscountRepo) List(ctx context.Context) ([]model.Discount, error) {
	const q = `SELECT id, code, amount, expires_at, created_at
               FROM discounts ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	discounts := make([]model.Discount, 0)
	for rows.Next() {
		var d model.Discount
		if err := rows.Scan(&d.ID, &d.Code, &d.Amount, &d.ExpiresAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.ExpiresAt = d.ExpiresAt.UTC()
		d.CreatedAt = d.CreatedAt.UTC()
		discounts = append(discounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return discounts, nil
}

// GetByID returns one discount or ErrDiscountNotFound.
func (r *DiscountRepo) GetByID(ctx context.Context, id uint64) (*model.Discount, error) {
	const q = `SELECT id, code, amount, expires_at, created_at FROM discounts WHERE id = ?`
	var d model.Discount
	err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.Code, &d.Amount, &d.ExpiresAt, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}
	d.ExpiresAt = d.ExpiresAt.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
	return &d, nil
}

// Update overwrites code, amount and expiry of a discount.
// ErrDiscountNotFound when no row matches.
func (r *DiscountRepo) Update(ctx context.Context, id uint64, code string, amount float64, expiresAt time.Time) error {
	const q = `UPDATE discounts SET code = ?, amount = ?, expires_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, code, amount, expiresAt.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from a no-op update.
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM discounts WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrDiscountNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a discount or returns ErrDiscountNotFound.
func (r *DiscountRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM discounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDiscountNotFound
	}
	return nil
}
