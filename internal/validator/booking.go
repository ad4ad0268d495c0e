// Package validator rejects structurally invalid booking requests
// before any persistence attempt. Validation is pure: no I/O, the same
// input always yields the same result, and failures come back as a
// field-scoped error list the UI can attach to form inputs.
package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors aggregates every rejected field of one request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// FieldMap returns the errors keyed by field name for JSON responses.
func (v ValidationErrors) FieldMap() map[string]string {
	m := make(map[string]string, len(v))
	for _, err := range v {
		if _, ok := m[err.Field]; !ok {
			m[err.Field] = err.Message
		}
	}
	return m
}

// BookingInput is the candidate booking as submitted by the client.
// Dates are passed through untagged: in FIXED capacity mode they are
// resolved from the package itself, and in PER_DEPARTURE mode a
// non-matching pair surfaces as a not-found departure rather than a
// field error.
type BookingInput struct {
	PackageID  uint64    `json:"package_id" validate:"required"`
	Name       string    `json:"name" validate:"required"`
	Email      string    `json:"email" validate:"required,email"`
	Phone      string    `json:"phone" validate:"omitempty,max=32"`
	IDNumber   string    `json:"id_number" validate:"required,max=11"`
	Adults     int       `json:"adults" validate:"required,min=1,max=20"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	TotalPrice float64   `json:"total_price" validate:"required,gt=0"`
}

// BookingValidator wraps a configured validator instance.
type BookingValidator struct {
	validate *validator.Validate
}

// New constructs a BookingValidator.
func New() *BookingValidator {
	return &BookingValidator{validate: validator.New()}
}

// Validate checks the candidate booking and returns nil on success or a
// ValidationErrors listing every rejected field.
func (v *BookingValidator) Validate(in *BookingInput) error {
	if err := v.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return translate(fieldErrs)
		}
		return err
	}
	return nil
}

// translate converts validator/v10 errors into the field/message pairs
// the booking form displays. The messages mirror the ones the site has
// always shown.
func translate(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, fe := range errs {
		field := jsonField(fe.Field())
		out = append(out, ValidationError{Field: field, Message: messageFor(field, fe.Tag())})
	}
	return out
}

func messageFor(field, tag string) string {
	switch field {
	case "package_id":
		return "Please select a package"
	case "name":
		return "Name is required"
	case "email":
		if tag == "required" {
			return "Email is required"
		}
		return "Please enter a valid email"
	case "phone":
		return "Phone number is too long"
	case "id_number":
		if tag == "max" {
			return "ID number must be at most 11 characters"
		}
		return "ID number is required"
	case "adults":
		if tag == "max" {
			return "Maximum 20 adults allowed"
		}
		return "At least 1 adult is required"
	case "total_price":
		return "Total price must be positive"
	}
	return "Invalid value"
}

// jsonField maps the Go struct field name to its JSON name.
func jsonField(name string) string {
	switch name {
	case "PackageID":
		return "package_id"
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Phone":
		return "phone"
	case "IDNumber":
		return "id_number"
	case "Adults":
		return "adults"
	case "StartDate":
		return "start_date"
	case "EndDate":
		return "end_date"
	case "TotalPrice":
		return "total_price"
	}
	return name
}
