// Package availability holds the pure capacity math for tour packages.
// A Snapshot is computed from the store's current state on every call;
// nothing here is cached, so a booking attempt always re-reads before
// writing.
package availability

// Snapshot describes the remaining capacity of a package or of one
// scheduled departure at the moment it was computed.
type Snapshot struct {
	Capacity    int  `json:"capacity"`
	Booked      int  `json:"booked"`
	Available   int  `json:"available"`
	FullyBooked bool `json:"fully_booked"`
}

// Compute derives a Snapshot from a seat pool size and the number of
// seats already taken.  Available is clamped at zero: historical data
// may hold more booked seats than capacity (the old site wrote bookings
// without any locking), and a negative availability must never leak to
// clients.
func Compute(capacity, booked int) Snapshot {
	available := capacity - booked
	fully := available <= 0
	if available < 0 {
		available = 0
	}
	return Snapshot{
		Capacity:    capacity,
		Booked:      booked,
		Available:   available,
		FullyBooked: fully,
	}
}

// CanFit reports whether a party of the given size fits in the
// remaining seats.
func (s Snapshot) CanFit(adults int) bool {
	return adults > 0 && adults <= s.Available
}

// DepartureAvailability pairs one departure with its Snapshot.  It is
// the element type of the per-departure availability listing for
// PER_DEPARTURE packages.
type DepartureAvailability struct {
	DepartureID uint64 `json:"departure_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Snapshot
}
