package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"tourbooking/internal/model"
)

// BookingRepo provides CRUD operations for bookings. Capacity is never
// stored as a counter anywhere; it is always derived by summing the
// adults column of live bookings, so deleting a booking frees its seats
// implicitly. The SumAdults*Tx methods participate in the booking
// transaction so the check and the insert see the same state.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a new booking within the scope of an existing
// transaction. It populates the generated ID and CreatedAt on the
// provided record. The caller must commit or roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
               (reference, package_id, departure_id, name, email, phone, id_number,
                adults, start_date, end_date, total_price)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var depID interface{}
	if b.DepartureID != nil {
		depID = *b.DepartureID
	}
	res, err := tx.ExecContext(ctx, q,
		b.Reference, b.PackageID, depID, b.Name, b.Email, nullableStr(b.Phone), b.IDNumber,
		b.Adults, b.StartDate.UTC(), b.EndDate.UTC(), b.TotalPrice,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the row so the caller sees the DB-assigned timestamp.
	const sel = `SELECT created_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt); err != nil {
		return err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return nil
}

// SumAdultsByPackageTx returns the sum of adults across ALL bookings of
// the package regardless of dates. This is the booked figure for FIXED
// capacity packages.
func (r *BookingRepo) SumAdultsByPackageTx(ctx context.Context, tx *sql.Tx, packageID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(adults), 0) FROM bookings WHERE package_id = ?`
	var sum int
	if err := tx.QueryRowContext(ctx, q, packageID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// SumAdultsByDepartureTx returns the sum of adults across bookings tied
// to one departure. Bookings whose departure was since replaced carry a
// NULL departure_id and do not count against any current departure.
func (r *BookingRepo) SumAdultsByDepartureTx(ctx context.Context, tx *sql.Tx, departureID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(adults), 0) FROM bookings WHERE departure_id = ?`
	var sum int
	if err := tx.QueryRowContext(ctx, q, departureID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// SumAdultsByPackage is the non-transactional variant used by the
// read-only availability endpoints.
func (r *BookingRepo) SumAdultsByPackage(ctx context.Context, packageID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(adults), 0) FROM bookings WHERE package_id = ?`
	var sum int
	if err := r.db.QueryRowContext(ctx, q, packageID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// SumAdultsByDeparture is the non-transactional variant of
// SumAdultsByDepartureTx.
func (r *BookingRepo) SumAdultsByDeparture(ctx context.Context, departureID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(adults), 0) FROM bookings WHERE departure_id = ?`
	var sum int
	if err := r.db.QueryRowContext(ctx, q, departureID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// BookingDetail is a booking joined with its package, destination and
// gallery for the confirmation view and the admin dashboard list.
type BookingDetail struct {
	ID           uint64    `json:"id"`
	Reference    string    `json:"reference"`
	PackageID    uint64    `json:"package_id"`
	DepartureID  *uint64   `json:"departure_id,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	IDNumber     string    `json:"id_number"`
	Adults       int       `json:"adults"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	TotalPrice   float64   `json:"total_price"`
	CreatedAt    string    `json:"created_at"`
	PackageTitle string    `json:"package_title"`
	PackagePrice float64   `json:"package_price"`
	Location     *Location `json:"location,omitempty"`
	Gallery      []string  `json:"gallery"`
}

const bookingDetailSelect = `SELECT b.id, b.reference, b.package_id, b.departure_id,
                                    b.name, b.email, b.phone, b.id_number, b.adults,
                                    b.start_date, b.end_date, b.total_price, b.created_at,
                                    p.title, p.price,
                                    l.id, l.country, l.city
                             FROM bookings b
                             JOIN packages p ON p.id = b.package_id
                             LEFT JOIN locations l ON l.id = p.location_id`

// GetDetail returns one booking with its package/location/gallery
// snapshot. ErrBookingNotFound when no row matches.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*BookingDetail, error) {
	row := r.db.QueryRowContext(ctx, bookingDetailSelect+` WHERE b.id = ?`, id)
	det, err := scanBookingDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	const galleryQ = `SELECT url FROM package_gallery WHERE package_id = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, galleryQ, det.PackageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	det.Gallery = []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		det.Gallery = append(det.Gallery, url)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return det, nil
}

// ListAll returns every booking newest first for the admin dashboard.
// Galleries are omitted from the list view.
func (r *BookingRepo) ListAll(ctx context.Context) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, bookingDetailSelect+` ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		det, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		det.Gallery = []string{}
		details = append(details, *det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func scanBookingDetail(s scanner) (*BookingDetail, error) {
	var det BookingDetail
	var depID sql.NullInt64
	var phone sql.NullString
	var start, end, created time.Time
	var locID sql.NullInt64
	var locCountry, locCity sql.NullString
	if err := s.Scan(
		&det.ID, &det.Reference, &det.PackageID, &depID,
		&det.Name, &det.Email, &phone, &det.IDNumber, &det.Adults,
		&start, &end, &det.TotalPrice, &created,
		&det.PackageTitle, &det.PackagePrice,
		&locID, &locCountry, &locCity,
	); err != nil {
		return nil, err
	}
	if depID.Valid {
		v := uint64(depID.Int64)
		det.DepartureID = &v
	}
	if phone.Valid {
		det.Phone = phone.String
	}
	det.StartDate = start.UTC().Format(time.RFC3339)
	det.EndDate = end.UTC().Format(time.RFC3339)
	det.CreatedAt = created.UTC().Format(time.RFC3339)
	if locID.Valid {
		det.Location = &Location{
			ID:      uint64(locID.Int64),
			Country: locCountry.String,
			City:    locCity.String,
		}
	}
	return &det, nil
}

// Delete removes a booking. Seats are freed implicitly because capacity
// is derived by counting. ErrBookingNotFound when no row was deleted and
// ErrConflict when a foreign key still references the booking.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1451 { // row is referenced
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func nullableStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
