package domain

import "errors"

// Represents a travel route between two endpoints as reported by the
// directions provider: an ordered coordinate sequence plus the total travel
// duration over it. A Route is immutable result data owned transiently by one
// resolution pass and contains no side effects.
type Route struct {
	Geometry        []Coordinates
	DurationSeconds float64
}

// Validate checks the structural invariants the resolver relies on.
func (r Route) Validate() error {
	if len(r.Geometry) == 0 {
		return errors.New("route geometry must be non-empty")
	}
	if r.DurationSeconds < 0 {
		return errors.New("route duration must be non-negative")
	}
	return nil
}
