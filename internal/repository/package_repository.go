package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tourbooking/internal/model"
)

// PackageRepo manages persistence for tour packages and their gallery
// images. Capacity-relevant reads used inside the booking transaction
// live here as Tx-suffixed methods.
type PackageRepo struct {
	db *sql.DB
}

// NewPackageRepo constructs a PackageRepo with the given DB handle.
func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{db: db} }

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *PackageRepo) DB() *sql.DB { return r.db }

// PackageDetail is the public browse representation of a package,
// including its destination and gallery image URLs.
type PackageDetail struct {
	ID           uint64     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Price        float64    `json:"price"`
	SalePrice    *float64   `json:"sale_price,omitempty"`
	Duration     string     `json:"duration,omitempty"`
	CapacityMode string     `json:"capacity_mode"`
	MaxPeople    int        `json:"max_people"`
	StartDate    *string    `json:"start_date,omitempty"`
	EndDate      *string    `json:"end_date,omitempty"`
	Popular      bool       `json:"popular"`
	Category     string     `json:"category"`
	Location     *Location  `json:"location,omitempty"`
	Gallery      []string   `json:"gallery"`
}

// Location mirrors the locations table for embedding in package and
// booking payloads.
type Location struct {
	ID      uint64 `json:"id"`
	Country string `json:"country"`
	City    string `json:"city"`
}

const packageSelect = `SELECT p.id, p.title, p.description, p.price, p.sale_price, p.duration,
                              p.capacity_mode, p.max_people, p.start_date, p.end_date,
                              p.popular, p.category,
                              l.id, l.country, l.city
                       FROM packages p
                       LEFT JOIN locations l ON l.id = p.location_id`

// GetByID returns one package with its location. ErrPackageNotFound is
// returned when no row matches.
func (r *PackageRepo) GetByID(ctx context.Context, id uint64) (*model.Package, error) {
	const q = `SELECT id, title, description, price, sale_price, duration,
                      capacity_mode, max_people, start_date, end_date,
                      popular, category, location_id, created_at
               FROM packages WHERE id = ?`
	var p model.Package
	var salePrice sql.NullFloat64
	var start, end sql.NullTime
	var mode string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &salePrice, &p.Duration,
		&mode, &p.MaxPeople, &start, &end,
		&p.Popular, &p.Category, &p.LocationID, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	p.CapacityMode = model.CapacityMode(mode)
	if salePrice.Valid {
		v := salePrice.Float64
		p.SalePrice = &v
	}
	if start.Valid {
		t := start.Time.UTC()
		p.StartDate = &t
	}
	if end.Valid {
		t := end.Time.UTC()
		p.EndDate = &t
	}
	return &p, nil
}

// GetDetail returns the browse representation of one package with
// location and gallery populated. ErrPackageNotFound when missing.
func (r *PackageRepo) GetDetail(ctx context.Context, id uint64) (*PackageDetail, error) {
	row := r.db.QueryRowContext(ctx, packageSelect+` WHERE p.id = ?`, id)
	det, err := scanPackageDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	gallery, err := r.galleryFor(ctx, []uint64{det.ID})
	if err != nil {
		return nil, err
	}
	det.Gallery = gallery[det.ID]
	if det.Gallery == nil {
		det.Gallery = []string{}
	}
	return det, nil
}

// List returns all packages ordered newest first, each with location and
// gallery. The gallery is fetched for the whole page in one query.
func (r *PackageRepo) List(ctx context.Context) ([]PackageDetail, error) {
	rows, err := r.db.QueryContext(ctx, packageSelect+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]PackageDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		det, err := scanPackageDetail(rows)
		if err != nil {
			return nil, err
		}
		det.Gallery = []string{}
		index[det.ID] = len(details)
		details = append(details, *det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	ids := make([]uint64, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
	}
	gallery, err := r.galleryFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for pid, urls := range gallery {
		if idx, ok := index[pid]; ok {
			details[idx].Gallery = urls
		}
	}
	return details, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPackageDetail(s scanner) (*PackageDetail, error) {
	var det PackageDetail
	var salePrice sql.NullFloat64
	var start, end sql.NullTime
	var locID sql.NullInt64
	var locCountry, locCity sql.NullString
	if err := s.Scan(
		&det.ID, &det.Title, &det.Description, &det.Price, &salePrice, &det.Duration,
		&det.CapacityMode, &det.MaxPeople, &start, &end,
		&det.Popular, &det.Category,
		&locID, &locCountry, &locCity,
	); err != nil {
		return nil, err
	}
	if salePrice.Valid {
		v := salePrice.Float64
		det.SalePrice = &v
	}
	if start.Valid {
		iso := start.Time.UTC().Format(time.RFC3339)
		det.StartDate = &iso
	}
	if end.Valid {
		iso := end.Time.UTC().Format(time.RFC3339)
		det.EndDate = &iso
	}
	if locID.Valid {
		det.Location = &Location{
			ID:      uint64(locID.Int64),
			Country: locCountry.String,
			City:    locCity.String,
		}
	}
	return &det, nil
}

// galleryFor fetches image URLs for the given package IDs keyed by
// package. Ordering by position keeps the slide order stable.
func (r *PackageRepo) galleryFor(ctx context.Context, ids []uint64) (map[uint64][]string, error) {
	if len(ids) == 0 {
		return map[uint64][]string{}, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT package_id, url FROM package_gallery
          WHERE package_id IN (` + strings.Join(placeholders, ",") + `)
          ORDER BY package_id, position`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]string)
	for rows.Next() {
		var pid uint64
		var url string
		if err := rows.Scan(&pid, &url); err != nil {
			return nil, err
		}
		out[pid] = append(out[pid], url)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CapacityRow is the slice of a package the booking transaction needs:
// the mode deciding which seat pool applies, the pool size for FIXED
// mode and the implicit date range used to default booking dates.
type CapacityRow struct {
	ID           uint64
	CapacityMode model.CapacityMode
	MaxPeople    int
	StartDate    *time.Time
	EndDate      *time.Time
}

// LockCapacityTx reads the capacity columns of a package and locks the
// row for the remainder of the transaction. Concurrent booking attempts
// on the same package serialize on this lock, which is what makes the
// later SUM-then-INSERT safe. ErrPackageNotFound when missing.
func (r *PackageRepo) LockCapacityTx(ctx context.Context, tx *sql.Tx, id uint64) (*CapacityRow, error) {
	const q = `SELECT id, capacity_mode, max_people, start_date, end_date
               FROM packages WHERE id = ? FOR UPDATE`
	var row CapacityRow
	var mode string
	var start, end sql.NullTime
	err := tx.QueryRowContext(ctx, q, id).Scan(&row.ID, &mode, &row.MaxPeople, &start, &end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	row.CapacityMode = model.CapacityMode(mode)
	if start.Valid {
		t := start.Time.UTC()
		row.StartDate = &t
	}
	if end.Valid {
		t := end.Time.UTC()
		row.EndDate = &t
	}
	return &row, nil
}
