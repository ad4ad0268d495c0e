package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tourbooking/internal/repository"
	"tourbooking/internal/service"
)

// PackageHandler serves the public catalogue: package listing, package
// detail and departure dates. These endpoints are unauthenticated.
type PackageHandler struct {
	Packages *repository.PackageRepo
	Service  *service.BookingService
}

// NewPackageHandler constructs a PackageHandler. Both dependencies must
// be non-nil.
func NewPackageHandler(packages *repository.PackageRepo, svc *service.BookingService) *PackageHandler {
	if packages == nil || svc == nil {
		panic("nil dependency passed to NewPackageHandler")
	}
	return &PackageHandler{Packages: packages, Service: svc}
}

// ListPackages handles GET /v1/packages. It returns every package with
// location and gallery, newest first.
func (h *PackageHandler) ListPackages(c echo.Context) error {
	details, err := h.Packages.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load packages"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// GetPackage handles GET /v1/packages/:id.
func (h *PackageHandler) GetPackage(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	detail, err := h.Packages.GetDetail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPackageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch package"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// ListDepartures handles GET /v1/packages/:id/departures. It returns
// the raw departure rows for the booking form's date picker; the
// availability variant of this endpoint adds seat counts.
func (h *PackageHandler) ListDepartures(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	departures, err := h.Service.ListDepartures(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPackageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load departures"})
	}
	items := make([]echo.Map, 0, len(departures))
	for _, d := range departures {
		items = append(items, echo.Map{
			"id":         d.ID,
			"start_date": d.StartDate.Format(time.RFC3339),
			"end_date":   d.EndDate.Format(time.RFC3339),
			"max_people": d.MaxPeople,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
