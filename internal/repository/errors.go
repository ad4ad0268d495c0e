// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service and handlers to distinguish between failure scenarios
// without inspecting driver errors. ErrConflict signals that an
// operation cannot proceed because of dependent state (e.g. deleting a
// record another row still references).
package repository

import "errors"

// ErrPackageNotFound indicates the referenced tour package does not exist.
var ErrPackageNotFound = errors.New("package not found")

// ErrDepartureNotFound indicates that no scheduled departure of the
// package matches the requested date range.
var ErrDepartureNotFound = errors.New("departure not found")

// ErrBookingNotFound indicates the referenced booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDiscountNotFound indicates the referenced discount does not exist.
var ErrDiscountNotFound = errors.New("discount not found")

// ErrCodeExists is returned when creating a discount whose code is
// already taken. Codes are unique across the table.
var ErrCodeExists = errors.New("discount code already exists")

// ErrConflict is returned when a delete cannot be performed because of
// conflicting state. Handlers should translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
