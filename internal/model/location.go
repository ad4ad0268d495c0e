package model

// Location is a travel destination referenced by packages.  It is read
// alongside a package when building booking confirmations.
type Location struct {
	ID      uint64
	Country string
	City    string
}
