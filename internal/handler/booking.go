package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"tourbooking/internal/repository"
	"tourbooking/internal/service"
	"tourbooking/internal/validator"
)

// BookingHandler serves the booking endpoints: availability reads,
// price quotes, booking submission and the confirmation view. All
// booking writes go through the service so capacity enforcement cannot
// be bypassed.
type BookingHandler struct {
	Service *service.BookingService
}

// NewBookingHandler constructs a BookingHandler. The service must be
// non-nil.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Service: svc}
}

// GetAvailability handles GET /v1/packages/:id/availability. For
// packages with scheduled departures, start_date and end_date query
// parameters (RFC3339) select the departure; for fixed capacity
// packages they are ignored. The snapshot is computed fresh on every
// request.
func (h *BookingHandler) GetAvailability(c echo.Context) error {
	packageID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	start, err := parseDateParam(c, "start_date")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
	}
	end, err := parseDateParam(c, "end_date")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}

	snap, err := h.Service.GetAvailability(c.Request().Context(), packageID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPackageNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		case errors.Is(err, repository.ErrDepartureNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "departure not found"})
		case errors.Is(err, service.ErrDatesRequired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute availability"})
	}
	return c.JSON(http.StatusOK, snap)
}

// GetDeparturesAvailability handles GET
// /v1/packages/:id/departures/availability. It returns one snapshot per
// scheduled departure so the booking form can grey out full dates.
func (h *BookingHandler) GetDeparturesAvailability(c echo.Context) error {
	packageID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	list, err := h.Service.GetDeparturesAvailability(c.Request().Context(), packageID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPackageNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		case errors.Is(err, service.ErrNotPerDeparture):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// Quote handles GET /v1/bookings/quote. It computes the total price
// server-side for the given package_id and adults query parameters so
// the form never has to trust client arithmetic.
func (h *BookingHandler) Quote(c echo.Context) error {
	packageID, err := strconv.ParseUint(c.QueryParam("package_id"), 10, 64)
	if err != nil || packageID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package_id"})
	}
	adults, _ := strconv.Atoi(c.QueryParam("adults"))
	quote, err := h.Service.QuoteBooking(c.Request().Context(), packageID, adults)
	if err != nil {
		if errors.Is(err, repository.ErrPackageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute quote"})
	}
	return c.JSON(http.StatusOK, quote)
}

// CreateBooking handles POST /v1/bookings. The request body is a
// booking form submission; on success it returns 201 with the stored
// booking including its confirmation reference. Validation failures
// come back as 400 with per-field messages, capacity rejections as 400
// with the remaining seat count, and an unknown package or departure
// as 404.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var in validator.BookingInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	booking, err := h.Service.CreateBooking(c.Request().Context(), &in)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":  "validation failed",
				"errors": verrs.FieldMap(),
			})
		}
		var capErr *service.CapacityError
		if errors.As(err, &capErr) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":     "capacity_exceeded",
				"message":   capErr.Error(),
				"available": capErr.Available,
			})
		}
		switch {
		case errors.Is(err, repository.ErrPackageNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		case errors.Is(err, repository.ErrDepartureNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "departure not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":          booking.ID,
		"reference":   booking.Reference,
		"package_id":  booking.PackageID,
		"adults":      booking.Adults,
		"start_date":  booking.StartDate.Format(time.RFC3339),
		"end_date":    booking.EndDate.Format(time.RFC3339),
		"total_price": booking.TotalPrice,
		"created_at":  booking.CreatedAt.Format(time.RFC3339),
	})
}

// GetBooking handles GET /v1/bookings/:id. It returns the booking with
// its package, destination and gallery for the confirmation page.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.Service.GetBooking(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parseDateParam reads an optional RFC3339 query parameter, returning
// nil when the parameter is absent.
func parseDateParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
