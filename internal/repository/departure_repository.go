package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tourbooking/internal/model"
)

// DepartureRepo manages persistence for scheduled departures of
// PER_DEPARTURE packages. The admin dashboard replaces a package's
// whole departure set in one operation, so there are no row-level
// update methods here.
type DepartureRepo struct {
	db *sql.DB
}

// NewDepartureRepo constructs a DepartureRepo with the given DB handle.
func NewDepartureRepo(db *sql.DB) *DepartureRepo { return &DepartureRepo{db: db} }

// ListByPackage returns all departures of a package ordered by start
// date ascending. An empty slice is returned when the package has none.
func (r *DepartureRepo) ListByPackage(ctx context.Context, packageID uint64) ([]model.Departure, error) {
	const q = `SELECT id, package_id, start_date, end_date, max_people
               FROM package_departures WHERE package_id = ? ORDER BY start_date ASC`
	rows, err := r.db.QueryContext(ctx, q, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	departures := make([]model.Departure, 0)
	for rows.Next() {
		var d model.Departure
		if err := rows.Scan(&d.ID, &d.PackageID, &d.StartDate, &d.EndDate, &d.MaxPeople); err != nil {
			return nil, err
		}
		d.StartDate = d.StartDate.UTC()
		d.EndDate = d.EndDate.UTC()
		departures = append(departures, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return departures, nil
}

// LockByRangeTx locates the departure of a package whose range exactly
// equals the given pair and locks its row for the remainder of the
// transaction. The exact-equality match preserves the site's public
// contract of identifying a departure by its dates; once found, only
// the row ID travels further. ErrDepartureNotFound when no row matches.
func (r *DepartureRepo) LockByRangeTx(ctx context.Context, tx *sql.Tx, packageID uint64, start, end time.Time) (*model.Departure, error) {
	const q = `SELECT id, package_id, start_date, end_date, max_people
               FROM package_departures
               WHERE package_id = ? AND start_date = ? AND end_date = ?
               FOR UPDATE`
	var d model.Departure
	err := tx.QueryRowContext(ctx, q, packageID, start.UTC(), end.UTC()).Scan(
		&d.ID, &d.PackageID, &d.StartDate, &d.EndDate, &d.MaxPeople,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepartureNotFound
		}
		return nil, err
	}
	d.StartDate = d.StartDate.UTC()
	d.EndDate = d.EndDate.UTC()
	return &d, nil
}

// ReplaceAllTx deletes every departure of the package and inserts the
// given set in one statement. Bookings referencing the removed rows are
// detached by the ON DELETE SET NULL foreign key and keep their date
// snapshot. The caller must commit or roll back the transaction.
func (r *DepartureRepo) ReplaceAllTx(ctx context.Context, tx *sql.Tx, packageID uint64, departures []model.Departure) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM package_departures WHERE package_id = ?`, packageID,
	); err != nil {
		return err
	}
	if len(departures) == 0 {
		return nil
	}
	query := `INSERT INTO package_departures (package_id, start_date, end_date, max_people) VALUES `
	args := make([]interface{}, 0, len(departures)*4)
	values := make([]string, 0, len(departures))
	for _, d := range departures {
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, packageID, d.StartDate.UTC(), d.EndDate.UTC(), d.MaxPeople)
	}
	_, err := tx.ExecContext(ctx, query+strings.Join(values, ","), args...)
	return err
}
