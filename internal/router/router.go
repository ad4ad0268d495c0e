package router

import (
	"github.com/labstack/echo/v4"

	"tourbooking/internal/handler"
	"tourbooking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems probe this endpoint.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated catalogue and booking
// endpoints. The rate limiter guards booking submission only; browse
// traffic stays unthrottled.
func RegisterPublic(e *echo.Echo, p *handler.PackageHandler, b *handler.BookingHandler, limiter echo.MiddlewareFunc) {
	// Package catalogue for the landing and detail pages.
	e.GET("/v1/packages", p.ListPackages)
	e.GET("/v1/packages/:id", p.GetPackage)
	e.GET("/v1/packages/:id/departures", p.ListDepartures)

	// Availability is always computed fresh; these endpoints back the
	// booking form's seat counter and date picker.
	e.GET("/v1/packages/:id/availability", b.GetAvailability)
	e.GET("/v1/packages/:id/departures/availability", b.GetDeparturesAvailability)

	// Booking submission and the confirmation view.
	e.GET("/v1/bookings/quote", b.Quote)
	e.POST("/v1/bookings", b.CreateBooking, limiter)
	e.GET("/v1/bookings/:id", b.GetBooking)
}

// RegisterAdmin registers the login route and the protected dashboard
// routes. Everything under /v1/admin requires a valid admin token.
func RegisterAdmin(e *echo.Echo, a *handler.AuthHandler, adm *handler.AdminHandler, jwtSecret string) {
	e.POST("/v1/auth/login", a.Login)

	g := e.Group("/v1/admin")
	g.Use(middleware.AdminAuth(jwtSecret))

	g.GET("/bookings", adm.ListBookings)
	g.DELETE("/bookings/:id", adm.DeleteBooking)

	// The departure schedule is replaced wholesale, matching how the
	// dashboard edits it.
	g.PUT("/packages/:id/departures", adm.ReplaceDepartures)

	g.POST("/discounts", adm.CreateDiscount)
	g.GET("/discounts", adm.ListDiscounts)
	g.PUT("/discounts/:id", adm.UpdateDiscount)
	g.DELETE("/discounts/:id", adm.DeleteDiscount)
}
