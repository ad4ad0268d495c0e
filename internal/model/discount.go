package model

import "time"

// Discount is a flat promotional code managed from the admin dashboard.
// Codes are unique.  They exist as records only and are not applied
// anywhere in the booking flow.
type Discount struct {
	ID        uint64
	Code      string
	Amount    float64
	ExpiresAt time.Time
	CreatedAt time.Time
}
