package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"tourbooking/internal/model"
)

func TestDeleteBookingNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := NewBookingRepo(db)

	mock.ExpectExec(`DELETE FROM bookings WHERE id = \?`).
		WithArgs(uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 404); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestDeleteBookingForeignKeyConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := NewBookingRepo(db)

	mock.ExpectExec(`DELETE FROM bookings WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "foreign key constraint fails"})

	if err := repo.Delete(context.Background(), 1); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateDiscountDuplicateCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := NewDiscountRepo(db)

	// The unique index rejects the duplicate at insert time; there is
	// no pre-check a concurrent create could slip past.
	mock.ExpectExec(`INSERT INTO discounts`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "duplicate entry 'SUMMER20'"})

	d := &model.Discount{Code: "SUMMER20", Amount: 20, ExpiresAt: time.Now().Add(24 * time.Hour)}
	if err := repo.Create(context.Background(), d); !errors.Is(err, ErrCodeExists) {
		t.Fatalf("expected ErrCodeExists, got %v", err)
	}
}

func TestBookingRoundTripPreservesSubmission(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := NewBookingRepo(db)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectQuery(`SELECT created_at FROM bookings WHERE id = \?`).
		WithArgs(uint64(21)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	b := &model.Booking{
		Reference:  "ref-21",
		PackageID:  7,
		Name:       "Nino Beridze",
		Email:      "nino@example.com",
		IDNumber:   "01001012345",
		Adults:     2,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: 700,
	}
	if err := repo.CreateTx(context.Background(), tx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Serve back the same row through the detail join: no departure, no
	// phone, no location.
	mock.ExpectQuery(`FROM bookings b`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "reference", "package_id", "departure_id",
			"name", "email", "phone", "id_number", "adults",
			"start_date", "end_date", "total_price", "created_at",
			"title", "price",
			"l_id", "l_country", "l_city",
		}).AddRow(21, "ref-21", 7, nil,
			"Nino Beridze", "nino@example.com", nil, "01001012345", 2,
			start, end, 700.0, created,
			"Kazbegi Weekend", 350.0,
			nil, nil, nil))
	mock.ExpectQuery(`SELECT url FROM package_gallery`).
		WillReturnRows(sqlmock.NewRows([]string{"url"}))

	det, err := repo.GetDetail(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if det.Adults != b.Adults {
		t.Fatalf("adults = %d, want %d", det.Adults, b.Adults)
	}
	if det.TotalPrice != b.TotalPrice {
		t.Fatalf("total price = %v, want %v", det.TotalPrice, b.TotalPrice)
	}
	if det.StartDate != start.Format(time.RFC3339) || det.EndDate != end.Format(time.RFC3339) {
		t.Fatalf("dates = %s..%s, want %s..%s",
			det.StartDate, det.EndDate, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if det.Reference != b.Reference {
		t.Fatalf("reference = %q, want %q", det.Reference, b.Reference)
	}
	if det.DepartureID != nil {
		t.Fatalf("departure id must stay nil, got %v", det.DepartureID)
	}
	if det.Phone != "" {
		t.Fatalf("phone must stay empty, got %q", det.Phone)
	}
	if det.Location != nil {
		t.Fatalf("location must stay nil, got %+v", det.Location)
	}
	if len(det.Gallery) != 0 {
		t.Fatalf("gallery must be empty, got %v", det.Gallery)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingTxPopulatesIDAndTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := NewBookingRepo(db)

	created := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(17, 1))
	mock.ExpectQuery(`SELECT created_at FROM bookings WHERE id = \?`).
		WithArgs(uint64(17)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	b := &model.Booking{
		Reference: "ref-1",
		PackageID: 7,
		Name:      "Nino Beridze",
		Email:     "nino@example.com",
		IDNumber:  "01001012345",
		Adults:    2,
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateTx(context.Background(), tx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if b.ID != 17 {
		t.Fatalf("ID = %d, want 17", b.ID)
	}
	if !b.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %v, want %v", b.CreatedAt, created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
