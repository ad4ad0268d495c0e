package model

import "time"

// Departure is one scheduled date range of a PER_DEPARTURE package with
// its own seat pool.  The whole set for a package is replaced wholesale
// by the admin dashboard rather than patched row by row.
//
// Fields:
//  ID        – primary key identifier.
//  PackageID – owning package.
//  StartDate – departure start (UTC).
//  EndDate   – departure end; strictly after StartDate.
//  MaxPeople – seat pool for this departure, at least 1.
type Departure struct {
	ID        uint64
	PackageID uint64
	StartDate time.Time
	EndDate   time.Time
	MaxPeople int
}
