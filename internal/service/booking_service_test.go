package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"tourbooking/internal/queue"
	"tourbooking/internal/repository"
	"tourbooking/internal/validator"
)

func newTestService(t *testing.T) (*BookingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	svc := NewBookingService(
		repository.NewPackageRepo(db),
		repository.NewDepartureRepo(db),
		repository.NewBookingRepo(db),
		2*time.Second,
	)
	return svc, mock
}

func validInput() *validator.BookingInput {
	return &validator.BookingInput{
		PackageID:  7,
		Name:       "Nino Beridze",
		Email:      "nino@example.com",
		IDNumber:   "01001012345",
		Adults:     2,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		TotalPrice: 700,
	}
}

func lockRows(mode string, maxPeople int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "capacity_mode", "max_people", "start_date", "end_date"}).
		AddRow(7, mode, maxPeople, nil, nil)
}

func TestCreateBookingFixedModeSuccess(t *testing.T) {
	svc, mock := newTestService(t)
	mock.MatchExpectationsInOrder(false)

	published := make(chan queue.BookingConfirmedEvent, 1)
	svc.publish = func(_ context.Context, ev queue.BookingConfirmedEvent) error {
		published <- ev
		return nil
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM packages WHERE id = \? FOR UPDATE`).
		WillReturnRows(lockRows("FIXED", 10))
	mock.ExpectQuery(`SUM\(adults\).+ FROM bookings WHERE package_id`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(4))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(`SELECT created_at FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()

	// Notification path loads the package detail after commit.
	mock.ExpectQuery(`FROM packages p`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "price", "sale_price", "duration",
			"capacity_mode", "max_people", "start_date", "end_date",
			"popular", "category", "l_id", "l_country", "l_city",
		}).AddRow(7, "Kazbegi Weekend", "desc", 350.0, nil, "3 days",
			"FIXED", 10, nil, nil, false, "mountain", 1, "Georgia", "Stepantsminda"))
	mock.ExpectQuery(`FROM package_gallery`).
		WillReturnRows(sqlmock.NewRows([]string{"package_id", "url"}))

	b, err := svc.CreateBooking(context.Background(), validInput())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if b.ID != 42 {
		t.Fatalf("booking ID = %d, want 42", b.ID)
	}
	if b.Reference == "" {
		t.Fatalf("booking must carry a confirmation reference")
	}
	if b.DepartureID != nil {
		t.Fatalf("FIXED mode booking must not reference a departure")
	}
	if b.TotalPrice != 700 {
		t.Fatalf("total price must be stored as submitted, got %v", b.TotalPrice)
	}

	select {
	case ev := <-published:
		if ev.BookingID != 42 || ev.Email != "nino@example.com" {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.PackageTitle != "Kazbegi Weekend" {
			t.Fatalf("event not enriched with package title: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("confirmation event was never published")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingRejectsWhenFullyBooked(t *testing.T) {
	svc, mock := newTestService(t)
	svc.publish = func(context.Context, queue.BookingConfirmedEvent) error {
		t.Errorf("no event must be published for a rejected booking")
		return nil
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM packages WHERE id = \? FOR UPDATE`).
		WillReturnRows(lockRows("FIXED", 10))
	mock.ExpectQuery(`SUM\(adults\).+ FROM bookings WHERE package_id`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(10))
	mock.ExpectRollback()

	in := validInput()
	in.Adults = 1
	_, err := svc.CreateBooking(context.Background(), in)
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capErr.Available != 0 {
		t.Fatalf("available = %d, want 0", capErr.Available)
	}
	if capErr.Error() != "this tour is fully booked" {
		t.Fatalf("unexpected message: %q", capErr.Error())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingRejectsShortfall(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM packages WHERE id = \? FOR UPDATE`).
		WillReturnRows(lockRows("FIXED", 10))
	mock.ExpectQuery(`SUM\(adults\).+ FROM bookings WHERE package_id`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(8))
	mock.ExpectRollback()

	in := validInput()
	in.Adults = 3
	_, err := svc.CreateBooking(context.Background(), in)
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capErr.Available != 2 || capErr.Requested != 3 {
		t.Fatalf("unexpected shortfall: %+v", capErr)
	}
	if capErr.Error() != "only 2 spots available, but trying to book 3 people" {
		t.Fatalf("unexpected message: %q", capErr.Error())
	}
}

func TestCreateBookingValidationFailureTouchesNothing(t *testing.T) {
	svc, mock := newTestService(t)

	in := validInput()
	in.Email = "not-an-email"
	in.Name = ""
	_, err := svc.CreateBooking(context.Background(), in)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	m := verrs.FieldMap()
	if _, ok := m["email"]; !ok {
		t.Fatalf("expected email error, got %v", m)
	}
	if _, ok := m["name"]; !ok {
		t.Fatalf("expected name error, got %v", m)
	}
	// No Begin was expected: validation failures must not reach the DB.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("database was touched on validation failure: %v", err)
	}
}

func TestCreateBookingFixedModeRequiresDatesWithoutRange(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM packages WHERE id = \? FOR UPDATE`).
		WillReturnRows(lockRows("FIXED", 10))
	mock.ExpectRollback()

	// Package has no implicit range and the form sent no dates; a zero
	// timestamp must never travel toward the insert.
	in := validInput()
	in.StartDate = time.Time{}
	in.EndDate = time.Time{}
	_, err := svc.CreateBooking(context.Background(), in)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if _, ok := verrs.FieldMap()["start_date"]; !ok {
		t.Fatalf("expected start_date error, got %v", verrs.FieldMap())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingDepartureNotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM packages WHERE id = \? FOR UPDATE`).
		WillReturnRows(lockRows("PER_DEPARTURE", 0))
	mock.ExpectQuery(`FROM package_departures\s+WHERE package_id = \? AND start_date = \? AND end_date = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "package_id", "start_date", "end_date", "max_people"}))
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), validInput())
	if !errors.Is(err, repository.ErrDepartureNotFound) {
		t.Fatalf("expected ErrDepartureNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingPerDepartureUsesDepartureCapacity(t *testing.T) {
	svc, mock := newTestService(t)
	svc.publish = func(context.Context, queue.BookingConfirmedEvent) error { return nil }
	mock.MatchExpectationsInOrder(false)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM packages WHERE id = \? FOR UPDATE`).
		WillReturnRows(lockRows("PER_DEPARTURE", 0))
	mock.ExpectQuery(`FROM package_departures\s+WHERE package_id = \? AND start_date = \? AND end_date = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "package_id", "start_date", "end_date", "max_people"}).
			AddRow(11, 7, start, end, 5))
	mock.ExpectQuery(`SUM\(adults\).+ FROM bookings WHERE departure_id`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(99, 1))
	mock.ExpectQuery(`SELECT created_at FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()
	// Notification enrichment query may or may not land before the test
	// ends; accept it silently.
	mock.ExpectQuery(`FROM packages p`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "price", "sale_price", "duration",
			"capacity_mode", "max_people", "start_date", "end_date",
			"popular", "category", "l_id", "l_country", "l_city",
		}))

	b, err := svc.CreateBooking(context.Background(), validInput())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if b.DepartureID == nil || *b.DepartureID != 11 {
		t.Fatalf("booking must carry the departure id, got %v", b.DepartureID)
	}
	if !b.StartDate.Equal(start) || !b.EndDate.Equal(end) {
		t.Fatalf("booking dates must snapshot the departure range, got %v..%v", b.StartDate, b.EndDate)
	}
}

func TestCreateBookingSurvivesNotificationFailure(t *testing.T) {
	svc, mock := newTestService(t)
	mock.MatchExpectationsInOrder(false)

	publishCalled := make(chan struct{}, 1)
	svc.publish = func(context.Context, queue.BookingConfirmedEvent) error {
		publishCalled <- struct{}{}
		return errors.New("broker unreachable")
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM packages WHERE id = \? FOR UPDATE`).
		WillReturnRows(lockRows("FIXED", 10))
	mock.ExpectQuery(`SUM\(adults\).+ FROM bookings WHERE package_id`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT created_at FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM packages p`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "price", "sale_price", "duration",
			"capacity_mode", "max_people", "start_date", "end_date",
			"popular", "category", "l_id", "l_country", "l_city",
		}))

	b, err := svc.CreateBooking(context.Background(), validInput())
	if err != nil {
		t.Fatalf("booking must not fail when notification fails, got %v", err)
	}
	if b.ID != 1 {
		t.Fatalf("booking ID = %d, want 1", b.ID)
	}
	select {
	case <-publishCalled:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish was never attempted")
	}
}

func packageRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "price", "sale_price", "duration",
		"capacity_mode", "max_people", "start_date", "end_date",
		"popular", "category", "location_id", "created_at",
	})
}

func TestGetAvailabilityFixedCountsAllBookings(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM packages WHERE id = \?`).
		WillReturnRows(packageRows().
			AddRow(7, "Kazbegi Weekend", "desc", 350.0, nil, "3 days",
				"FIXED", 10, nil, nil, false, "mountain", 1, time.Now().UTC()))
	mock.ExpectQuery(`SUM\(adults\).+ FROM bookings WHERE package_id`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0))

	snap, err := svc.GetAvailability(context.Background(), 7, nil, nil)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if snap.Capacity != 10 || snap.Booked != 0 || snap.Available != 10 || snap.FullyBooked {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestGetAvailabilityUnknownPackage(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM packages WHERE id = \?`).
		WillReturnRows(packageRows())

	_, err := svc.GetAvailability(context.Background(), 404, nil, nil)
	if !errors.Is(err, repository.ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound, got %v", err)
	}
}

func TestGetAvailabilityPerDepartureRequiresDates(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM packages WHERE id = \?`).
		WillReturnRows(packageRows().
			AddRow(7, "Svaneti by Bus", "desc", 500.0, nil, "",
				"PER_DEPARTURE", 0, nil, nil, false, "bus", 1, time.Now().UTC()))

	_, err := svc.GetAvailability(context.Background(), 7, nil, nil)
	if !errors.Is(err, ErrDatesRequired) {
		t.Fatalf("expected ErrDatesRequired, got %v", err)
	}
}

func TestGetDeparturesAvailabilityIndependentPools(t *testing.T) {
	svc, mock := newTestService(t)

	d1Start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	d1End := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	d2Start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	d2End := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM packages WHERE id = \?`).
		WillReturnRows(packageRows().
			AddRow(7, "Svaneti by Bus", "desc", 500.0, nil, "",
				"PER_DEPARTURE", 0, nil, nil, false, "bus", 1, time.Now().UTC()))
	mock.ExpectQuery(`FROM package_departures WHERE package_id = \? ORDER BY start_date`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "package_id", "start_date", "end_date", "max_people"}).
			AddRow(1, 7, d1Start, d1End, 5).
			AddRow(2, 7, d2Start, d2End, 5))
	mock.ExpectQuery(`SUM\(adults\).+ FROM bookings WHERE departure_id`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(3))
	mock.ExpectQuery(`SUM\(adults\).+ FROM bookings WHERE departure_id`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0))

	list, err := svc.GetDeparturesAvailability(context.Background(), 7)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 departures, got %d", len(list))
	}
	if list[0].Available != 2 || list[0].FullyBooked {
		t.Fatalf("D1 snapshot wrong: %+v", list[0])
	}
	if list[1].Available != 5 || list[1].Booked != 0 {
		t.Fatalf("bookings of D1 must not count against D2: %+v", list[1])
	}
}

func TestReplaceDeparturesValidatesBeforeTouchingAnything(t *testing.T) {
	svc, mock := newTestService(t)

	entries := []DepartureEntry{
		{
			StartDate: time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), // inverted
			MaxPeople: 5,
		},
	}
	err := svc.ReplaceDepartures(context.Background(), 7, entries)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	entries = []DepartureEntry{
		{
			StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
			MaxPeople: 0,
		},
	}
	if err := svc.ReplaceDepartures(context.Background(), 7, entries); !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors for max_people, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("database was touched on invalid input: %v", err)
	}
}

func TestReplaceDeparturesSwapsWholeSet(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM packages WHERE id = \? FOR UPDATE`).
		WillReturnRows(lockRows("PER_DEPARTURE", 0))
	mock.ExpectExec(`DELETE FROM package_departures WHERE package_id`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO package_departures`).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	entries := []DepartureEntry{
		{
			StartDate: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC),
			MaxPeople: 12,
		},
	}
	if err := svc.ReplaceDepartures(context.Background(), 7, entries); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQuoteBookingComputesTotal(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM packages WHERE id = \?`).
		WillReturnRows(packageRows().
			AddRow(7, "Kazbegi Weekend", "desc", 350.0, nil, "3 days",
				"FIXED", 10, nil, nil, false, "mountain", 1, time.Now().UTC()))

	q, err := svc.QuoteBooking(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if q.TotalPrice != 1050 {
		t.Fatalf("total = %v, want 1050", q.TotalPrice)
	}

	mock.ExpectQuery(`FROM packages WHERE id = \?`).
		WillReturnRows(packageRows().
			AddRow(7, "Kazbegi Weekend", "desc", 350.0, nil, "3 days",
				"FIXED", 10, nil, nil, false, "mountain", 1, time.Now().UTC()))
	q, err = svc.QuoteBooking(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if q.Adults != 1 || q.TotalPrice != 350 {
		t.Fatalf("party size must default to one adult, got %+v", q)
	}
}
