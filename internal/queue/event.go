// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published after a booking transaction commits.
// It carries enough information for downstream consumers to send the
// receipt email and write audit logs without querying the primary
// database.
type BookingConfirmedEvent struct {
	BookingID    uint64  `json:"booking_id"`
	Reference    string  `json:"reference"`
	PackageID    uint64  `json:"package_id"`
	PackageTitle string  `json:"package_title"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Adults       int     `json:"adults"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	TotalPrice   float64 `json:"total_price"`
	Country      string  `json:"country,omitempty"`
	City         string  `json:"city,omitempty"`
	ConfirmedAt  string  `json:"confirmed_at"`
}
