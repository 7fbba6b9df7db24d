// Package types holds the small value objects shared across modules.
package types

import "github.com/google/uuid"

// ID identifies an entity (ride, driver, customer, vehicle, ...).
type ID string

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Zero reports whether the point carries no coordinate.
func (p Point) Zero() bool {
	return p.Lat == 0 && p.Lng == 0
}
