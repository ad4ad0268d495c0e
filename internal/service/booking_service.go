// Package service implements the booking workflows on top of the
// repositories: availability reads, the transactional booking creation
// path, departure replacement and the admin operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tourbooking/internal/availability"
	"tourbooking/internal/model"
	"tourbooking/internal/queue"
	"tourbooking/internal/repository"
	"tourbooking/internal/validator"
)

// ErrDatesRequired is returned when availability of a PER_DEPARTURE
// package is requested without a date pair. Whole-package availability
// is not defined in that mode; callers must ask per departure.
var ErrDatesRequired = errors.New("start and end dates are required for this package")

// ErrNotPerDeparture is returned when the per-departure availability
// listing is requested for a FIXED capacity package.
var ErrNotPerDeparture = errors.New("package has no scheduled departures")

// CapacityError rejects a booking that would exceed the remaining
// seats. It is distinguishable from validation errors so the UI can
// show a capacity banner instead of field messages.
type CapacityError struct {
	Available int
	Requested int
}

func (e *CapacityError) Error() string {
	if e.Available <= 0 {
		return "this tour is fully booked"
	}
	return fmt.Sprintf("only %d spots available, but trying to book %d people", e.Available, e.Requested)
}

// BookingService is the only path by which bookings are created. It
// composes validation, the availability re-check and persistence into
// one transaction, then fires the confirmation event after commit.
type BookingService struct {
	packages   *repository.PackageRepo
	departures *repository.DepartureRepo
	bookings   *repository.BookingRepo
	validate   *validator.BookingValidator

	notifyTimeout time.Duration
	// publish is swapped out in tests; defaults to the RabbitMQ publisher.
	publish func(context.Context, queue.BookingConfirmedEvent) error
}

// NewBookingService constructs a BookingService. All repositories must
// be non-nil.
func NewBookingService(packages *repository.PackageRepo, departures *repository.DepartureRepo, bookings *repository.BookingRepo, notifyTimeout time.Duration) *BookingService {
	if packages == nil || departures == nil || bookings == nil {
		panic("nil repository passed to NewBookingService")
	}
	return &BookingService{
		packages:      packages,
		departures:    departures,
		bookings:      bookings,
		validate:      validator.New(),
		notifyTimeout: notifyTimeout,
		publish:       queue.PublishBookingConfirmed,
	}
}

// GetAvailability computes the capacity snapshot for a package. For
// PER_DEPARTURE packages a date pair is required and must exactly match
// one departure's range; for FIXED packages dates are ignored and every
// booking of the package counts. The result is recomputed from the
// store on every call.
func (s *BookingService) GetAvailability(ctx context.Context, packageID uint64, start, end *time.Time) (availability.Snapshot, error) {
	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		return availability.Snapshot{}, err
	}
	if pkg.CapacityMode == model.CapacityPerDeparture {
		if start == nil || end == nil {
			return availability.Snapshot{}, ErrDatesRequired
		}
		dep, err := s.findDeparture(ctx, packageID, *start, *end)
		if err != nil {
			return availability.Snapshot{}, err
		}
		booked, err := s.bookings.SumAdultsByDeparture(ctx, dep.ID)
		if err != nil {
			return availability.Snapshot{}, err
		}
		return availability.Compute(dep.MaxPeople, booked), nil
	}
	booked, err := s.bookings.SumAdultsByPackage(ctx, packageID)
	if err != nil {
		return availability.Snapshot{}, err
	}
	return availability.Compute(pkg.MaxPeople, booked), nil
}

// GetDeparturesAvailability returns one snapshot per scheduled departure
// of a PER_DEPARTURE package, ordered by start date.
func (s *BookingService) GetDeparturesAvailability(ctx context.Context, packageID uint64) ([]availability.DepartureAvailability, error) {
	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.CapacityMode != model.CapacityPerDeparture {
		return nil, ErrNotPerDeparture
	}
	departures, err := s.departures.ListByPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	out := make([]availability.DepartureAvailability, 0, len(departures))
	for _, dep := range departures {
		booked, err := s.bookings.SumAdultsByDeparture(ctx, dep.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, availability.DepartureAvailability{
			DepartureID: dep.ID,
			StartDate:   dep.StartDate.Format(time.RFC3339),
			EndDate:     dep.EndDate.Format(time.RFC3339),
			Snapshot:    availability.Compute(dep.MaxPeople, booked),
		})
	}
	return out, nil
}

// findDeparture locates a departure by exact range equality outside a
// transaction, for read-only availability.
func (s *BookingService) findDeparture(ctx context.Context, packageID uint64, start, end time.Time) (*model.Departure, error) {
	departures, err := s.departures.ListByPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	for i := range departures {
		if departures[i].StartDate.Equal(start) && departures[i].EndDate.Equal(end) {
			return &departures[i], nil
		}
	}
	return nil, repository.ErrDepartureNotFound
}

// CreateBooking runs the full booking attempt: structural validation,
// availability re-check and insert inside one transaction, then a
// fire-and-forget confirmation event after commit.
//
// The capacity row (package or departure) is locked FOR UPDATE before
// the seats are summed, so two concurrent requests for the last seat
// serialize and the loser sees the winner's booking. Failure modes are
// distinguishable by type: validator.ValidationErrors, the repository
// not-found sentinels, *CapacityError, or a wrapped storage error.
func (s *BookingService) CreateBooking(ctx context.Context, in *validator.BookingInput) (*model.Booking, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	tx, err := s.packages.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	capRow, err := s.packages.LockCapacityTx(ctx, tx, in.PackageID)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		Reference:  uuid.NewString(),
		PackageID:  in.PackageID,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		IDNumber:   in.IDNumber,
		Adults:     in.Adults,
		StartDate:  in.StartDate.UTC(),
		EndDate:    in.EndDate.UTC(),
		TotalPrice: in.TotalPrice,
	}

	var capacity, booked int
	if capRow.CapacityMode == model.CapacityPerDeparture {
		dep, err := s.departures.LockByRangeTx(ctx, tx, in.PackageID, in.StartDate, in.EndDate)
		if err != nil {
			return nil, err
		}
		capacity = dep.MaxPeople
		booked, err = s.bookings.SumAdultsByDepartureTx(ctx, tx, dep.ID)
		if err != nil {
			return nil, fmt.Errorf("sum departure bookings: %w", err)
		}
		depID := dep.ID
		booking.DepartureID = &depID
		booking.StartDate = dep.StartDate
		booking.EndDate = dep.EndDate
	} else {
		// FIXED packages with an implicit range override whatever the
		// form submitted. Without one the submitted dates are stored,
		// so they must actually be present: a zero time would not even
		// fit in a DATETIME column.
		if capRow.StartDate != nil && capRow.EndDate != nil {
			booking.StartDate = *capRow.StartDate
			booking.EndDate = *capRow.EndDate
		} else if in.StartDate.IsZero() || in.EndDate.IsZero() {
			return nil, validator.ValidationErrors{{Field: "start_date", Message: "Travel dates are required"}}
		}
		capacity = capRow.MaxPeople
		booked, err = s.bookings.SumAdultsByPackageTx(ctx, tx, in.PackageID)
		if err != nil {
			return nil, fmt.Errorf("sum package bookings: %w", err)
		}
	}

	snap := availability.Compute(capacity, booked)
	if !snap.CanFit(in.Adults) {
		return nil, &CapacityError{Available: snap.Available, Requested: in.Adults}
	}

	if err := s.bookings.CreateTx(ctx, tx, booking); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	committed = true

	go s.notifyConfirmed(*booking)
	return booking, nil
}

// notifyConfirmed publishes the confirmation event with a bounded
// timeout. It runs after the booking is committed; every failure here
// is logged and swallowed.
func (s *BookingService) notifyConfirmed(b model.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	ev := queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		Reference:   b.Reference,
		PackageID:   b.PackageID,
		Name:        b.Name,
		Email:       b.Email,
		Adults:      b.Adults,
		StartDate:   b.StartDate.Format(time.RFC3339),
		EndDate:     b.EndDate.Format(time.RFC3339),
		TotalPrice:  b.TotalPrice,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if det, err := s.packages.GetDetail(ctx, b.PackageID); err == nil {
		ev.PackageTitle = det.Title
		if det.Location != nil {
			ev.Country = det.Location.Country
			ev.City = det.Location.City
		}
	} else {
		log.Printf("booking %d: load package for notification failed: %v", b.ID, err)
	}

	if err := s.publish(ctx, ev); err != nil {
		log.Printf("booking %d: confirmation event not published: %v", b.ID, err)
	}
}

// Quote computes the server-side price for a booking form before
// submission: price per adult times the party size. The quoted total is
// what the client sends back with the booking and what gets stored.
type Quote struct {
	PackageID    uint64  `json:"package_id"`
	PackageTitle string  `json:"package_title"`
	Price        float64 `json:"price"`
	Adults       int     `json:"adults"`
	TotalPrice   float64 `json:"total_price"`
}

// QuoteBooking returns the computed total for a package and party size.
// A non-positive party size is treated as one adult.
func (s *BookingService) QuoteBooking(ctx context.Context, packageID uint64, adults int) (*Quote, error) {
	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if adults < 1 {
		adults = 1
	}
	return &Quote{
		PackageID:    pkg.ID,
		PackageTitle: pkg.Title,
		Price:        pkg.Price,
		Adults:       adults,
		TotalPrice:   pkg.Price * float64(adults),
	}, nil
}

// GetBooking returns a booking with its package/location/gallery
// snapshot for the confirmation view.
func (s *BookingService) GetBooking(ctx context.Context, id uint64) (*repository.BookingDetail, error) {
	return s.bookings.GetDetail(ctx, id)
}

// ListBookings returns every booking for the admin dashboard.
func (s *BookingService) ListBookings(ctx context.Context) ([]repository.BookingDetail, error) {
	return s.bookings.ListAll(ctx)
}

// DeleteBooking removes a booking; its seats return to the pool
// implicitly because availability is derived by counting.
func (s *BookingService) DeleteBooking(ctx context.Context, id uint64) error {
	return s.bookings.Delete(ctx, id)
}

// DepartureEntry is one element of a wholesale departure replacement.
type DepartureEntry struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	MaxPeople int       `json:"max_people"`
}

// ReplaceDepartures validates and replaces a package's entire departure
// set. Every entry is checked before anything is touched; the package
// row is locked during the swap so a concurrent booking cannot land on
// a departure that is about to disappear. Bookings referencing removed
// departures keep their dates as a historical snapshot.
func (s *BookingService) ReplaceDepartures(ctx context.Context, packageID uint64, entries []DepartureEntry) error {
	for _, e := range entries {
		if !e.EndDate.After(e.StartDate) {
			return validator.ValidationErrors{{Field: "departures", Message: "End date must be after start date"}}
		}
		if e.MaxPeople < 1 {
			return validator.ValidationErrors{{Field: "departures", Message: "Max people must be at least 1"}}
		}
	}

	tx, err := s.packages.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin departures transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.packages.LockCapacityTx(ctx, tx, packageID); err != nil {
		return err
	}

	departures := make([]model.Departure, 0, len(entries))
	for _, e := range entries {
		departures = append(departures, model.Departure{
			PackageID: packageID,
			StartDate: e.StartDate,
			EndDate:   e.EndDate,
			MaxPeople: e.MaxPeople,
		})
	}
	if err := s.departures.ReplaceAllTx(ctx, tx, packageID, departures); err != nil {
		return fmt.Errorf("replace departures: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit departures: %w", err)
	}
	committed = true
	return nil
}

// ListDepartures returns the raw departure rows of a package for the
// booking form's date picker.
func (s *BookingService) ListDepartures(ctx context.Context, packageID uint64) ([]model.Departure, error) {
	if _, err := s.packages.GetByID(ctx, packageID); err != nil {
		return nil, err
	}
	return s.departures.ListByPackage(ctx, packageID)
}
