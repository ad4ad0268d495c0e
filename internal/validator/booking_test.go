package validator

import (
	"errors"
	"testing"
	"time"
)

func valid() BookingInput {
	return BookingInput{
		PackageID:  3,
		Name:       "Nino Beridze",
		Email:      "nino@example.com",
		Phone:      "+995 599 123456",
		IDNumber:   "01001012345",
		Adults:     2,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		TotalPrice: 700,
	}
}

func TestValidBookingPasses(t *testing.T) {
	v := New()
	in := valid()
	if err := v.Validate(&in); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestFieldRules(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*BookingInput)
		wantField string
	}{
		{"missing package", func(b *BookingInput) { b.PackageID = 0 }, "package_id"},
		{"empty name", func(b *BookingInput) { b.Name = "" }, "name"},
		{"empty email", func(b *BookingInput) { b.Email = "" }, "email"},
		{"malformed email", func(b *BookingInput) { b.Email = "not-an-email" }, "email"},
		{"empty id number", func(b *BookingInput) { b.IDNumber = "" }, "id_number"},
		{"id number too long", func(b *BookingInput) { b.IDNumber = "010010123456" }, "id_number"},
		{"zero adults", func(b *BookingInput) { b.Adults = 0 }, "adults"},
		{"negative adults", func(b *BookingInput) { b.Adults = -3 }, "adults"},
		{"too many adults", func(b *BookingInput) { b.Adults = 21 }, "adults"},
		{"zero total price", func(b *BookingInput) { b.TotalPrice = 0 }, "total_price"},
		{"negative total price", func(b *BookingInput) { b.TotalPrice = -50 }, "total_price"},
	}
	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			err := v.Validate(&in)
			if err == nil {
				t.Fatalf("expected a validation error")
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			if _, ok := verrs.FieldMap()[tt.wantField]; !ok {
				t.Fatalf("expected error on %q, got %v", tt.wantField, verrs.FieldMap())
			}
		})
	}
}

func TestPhoneIsOptional(t *testing.T) {
	v := New()
	in := valid()
	in.Phone = ""
	if err := v.Validate(&in); err != nil {
		t.Fatalf("phone must be optional, got %v", err)
	}
}

func TestBoundaryValues(t *testing.T) {
	v := New()

	in := valid()
	in.Adults = 20
	if err := v.Validate(&in); err != nil {
		t.Fatalf("20 adults must pass, got %v", err)
	}

	in = valid()
	in.IDNumber = "12345678901" // exactly 11 characters
	if err := v.Validate(&in); err != nil {
		t.Fatalf("11-char id number must pass, got %v", err)
	}
}

func TestMultipleFailuresReportEveryField(t *testing.T) {
	v := New()
	in := valid()
	in.Name = ""
	in.Email = "bad"
	in.Adults = 0
	err := v.Validate(&in)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	m := verrs.FieldMap()
	for _, f := range []string{"name", "email", "adults"} {
		if _, ok := m[f]; !ok {
			t.Fatalf("missing error for %q in %v", f, m)
		}
	}
}
