package model

import "time"

// Booking records one confirmed reservation of seats on a package.  The
// date range and total price are snapshots taken at submission time:
// TotalPrice is never recomputed from the current package price, and the
// dates survive even if the departure they were booked against is later
// replaced (DepartureID then becomes nil).
//
// Fields:
//  ID          – primary key identifier.
//  Reference   – opaque confirmation handle returned to the client.
//  PackageID   – booked package.
//  DepartureID – departure booked against; nil in FIXED mode or after
//                the departure set has been replaced.
//  Name        – traveller name.
//  Email       – contact email; receives the confirmation receipt.
//  Phone       – optional contact phone, unconstrained format.
//  IDNumber    – traveller identity document number.
//  Adults      – number of travellers, at least 1.
//  StartDate   – booked range start (UTC).
//  EndDate     – booked range end (UTC).
//  TotalPrice  – price locked at submission time.
//  CreatedAt   – creation timestamp.
type Booking struct {
	ID          uint64
	Reference   string
	PackageID   uint64
	DepartureID *uint64
	Name        string
	Email       string
	Phone       string
	IDNumber    string
	Adults      int
	StartDate   time.Time
	EndDate     time.Time
	TotalPrice  float64
	CreatedAt   time.Time
}
