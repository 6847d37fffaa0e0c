package domain

import "math"

// A route point under evaluation as the meeting point, annotated with the
// travel time from the start endpoint to it and from it to the end endpoint.
// Candidates are created and discarded within a single resolution pass; the
// winning one becomes the resolved midpoint.
type Candidate struct {
	Point       Coordinates
	SampleIndex int
	// Seconds for each leg. A leg whose duration query failed holds the
	// degraded value assigned by the resolver's failure policy.
	StartDuration float64
	EndDuration   float64
}

// TimeDifference is the travel-time asymmetry between the two legs.
// Ranking uses plain floating-point comparison: ties require identical values.
func (c Candidate) TimeDifference() float64 {
	return math.Abs(c.StartDuration - c.EndDuration)
}

// TotalTime is the combined travel time over both legs.
func (c Candidate) TotalTime() float64 {
	return c.StartDuration + c.EndDuration
}
