package model

import "time"

// CapacityMode selects which capacity rule governs a package.  The
// original data model overloaded a boolean transport flag for this;
// the mode is now an explicit tagged value so that readers never have
// to know that "bus" implies per-departure capacity.
type CapacityMode string

const (
	// CapacityFixed means the package carries a single capacity in
	// MaxPeople that applies to every booking regardless of dates.
	CapacityFixed CapacityMode = "FIXED"
	// CapacityPerDeparture means capacity is defined per scheduled
	// departure; MaxPeople on the package itself is not authoritative.
	CapacityPerDeparture CapacityMode = "PER_DEPARTURE"
)

// Package represents a tour package offered on the site.  A package in
// FIXED mode has one implicit date range and a single seat pool.  A
// package in PER_DEPARTURE mode owns a set of Departure rows, each with
// its own seat pool.
//
// Fields:
//  ID           – primary key identifier.
//  Title        – display name of the tour.
//  Description  – long-form marketing text.
//  Price        – price per adult in the site currency.
//  SalePrice    – optional discounted price per adult.
//  Duration     – human readable duration (FIXED mode only).
//  CapacityMode – FIXED or PER_DEPARTURE.
//  MaxPeople    – seat pool size; authoritative only in FIXED mode.
//  StartDate    – implicit range start (FIXED mode, optional).
//  EndDate      – implicit range end (FIXED mode, optional).
//  Popular      – whether the package is featured on the landing page.
//  Category     – free-form category label.
//  LocationID   – destination location reference.
//  CreatedAt    – creation timestamp.
type Package struct {
	ID           uint64
	Title        string
	Description  string
	Price        float64
	SalePrice    *float64
	Duration     string
	CapacityMode CapacityMode
	MaxPeople    int
	StartDate    *time.Time
	EndDate      *time.Time
	Popular      bool
	Category     string
	LocationID   uint64
	CreatedAt    time.Time
}
