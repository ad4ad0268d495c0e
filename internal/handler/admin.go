package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tourbooking/internal/model"
	"tourbooking/internal/repository"
	"tourbooking/internal/service"
	"tourbooking/internal/validator"
)

// AdminHandler groups the dashboard operations: the booking list,
// booking deletion, departure schedule management and discount codes.
// All routes behind this handler require an admin token.
type AdminHandler struct {
	Service   *service.BookingService
	Discounts *repository.DiscountRepo
}

// NewAdminHandler constructs an AdminHandler. Both dependencies must be
// non-nil.
func NewAdminHandler(svc *service.BookingService, discounts *repository.DiscountRepo) *AdminHandler {
	if svc == nil || discounts == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Service: svc, Discounts: discounts}
}

// ListBookings handles GET /v1/admin/bookings. It returns every booking
// newest first with package and destination details.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	details, err := h.Service.ListBookings(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// DeleteBooking handles DELETE /v1/admin/bookings/:id. Seats held by
// the booking return to the pool implicitly. Returns 204 on success,
// 404 when the booking does not exist and 409 when other records still
// reference it.
func (h *AdminHandler) DeleteBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.Service.DeleteBooking(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is still referenced"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete booking"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ReplaceDepartures handles PUT /v1/admin/packages/:id/departures. The
// body carries the complete new departure set; the previous set is
// replaced wholesale. Bookings on removed departures keep their date
// snapshot.
func (h *AdminHandler) ReplaceDepartures(c echo.Context) error {
	packageID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	var body struct {
		Departures []service.DepartureEntry `json:"departures"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Service.ReplaceDepartures(c.Request().Context(), packageID, body.Departures); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":  "validation failed",
				"errors": verrs.FieldMap(),
			})
		}
		if errors.Is(err, repository.ErrPackageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to replace departures"})
	}
	return c.JSON(http.StatusOK, echo.Map{"replaced": len(body.Departures)})
}

// discountBody is the create/update payload for a discount code.
type discountBody struct {
	Code      string    `json:"code"`
	Amount    float64   `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (b *discountBody) check() string {
	if b.Code == "" {
		return "code is required"
	}
	if b.Amount <= 0 {
		return "amount must be positive"
	}
	if b.ExpiresAt.IsZero() {
		return "expires_at is required"
	}
	return ""
}

// CreateDiscount handles POST /v1/admin/discounts. Codes are unique;
// an existing code yields 409.
func (h *AdminHandler) CreateDiscount(c echo.Context) error {
	var body discountBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.check(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	d := &model.Discount{Code: body.Code, Amount: body.Amount, ExpiresAt: body.ExpiresAt}
	if err := h.Discounts.Create(c.Request().Context(), d); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create discount"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": d.ID, "code": d.Code})
}

// ListDiscounts handles GET /v1/admin/discounts.
func (h *AdminHandler) ListDiscounts(c echo.Context) error {
	discounts, err := h.Discounts.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load discounts"})
	}
	items := make([]echo.Map, 0, len(discounts))
	for _, d := range discounts {
		items = append(items, echo.Map{
			"id":         d.ID,
			"code":       d.Code,
			"amount":     d.Amount,
			"expires_at": d.ExpiresAt.Format(time.RFC3339),
			"created_at": d.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateDiscount handles PUT /v1/admin/discounts/:id.
func (h *AdminHandler) UpdateDiscount(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid discount id"})
	}
	var body discountBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.check(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Discounts.Update(c.Request().Context(), id, body.Code, body.Amount, body.ExpiresAt); err != nil {
		if errors.Is(err, repository.ErrDiscountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "discount not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update discount"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": id})
}

// DeleteDiscount handles DELETE /v1/admin/discounts/:id.
func (h *AdminHandler) DeleteDiscount(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid discount id"})
	}
	if err := h.Discounts.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrDiscountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "discount not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete discount"})
	}
	return c.NoContent(http.StatusNoContent)
}
