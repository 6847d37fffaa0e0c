package services

import (
	"errors"
	"fmt"

	"meeting-point-service/internal/domain"
)

// DefaultSampleCount is the number of candidate points drawn from a route
// geometry when the caller does not override it.
const DefaultSampleCount = 100

// ErrInvalidRoute reports a route geometry that cannot be sampled.
var ErrInvalidRoute = errors.New("invalid route geometry")

// SampleRoute selects exactly count representative points from an ordered
// route geometry by index position: sample i maps to index
// floor(i*len/count). Coverage is uniform over indices, not over arc length
// or travel time, so slow segments are represented like fast ones; this is a
// deliberate simplification. When the geometry has fewer points than count,
// duplicates appear in the sample. Runs in O(count) regardless of geometry
// length.
func SampleRoute(geometry []domain.Coordinates, count int) ([]domain.Coordinates, error) {
	if len(geometry) == 0 {
		return nil, fmt.Errorf("sample route: %w: empty geometry", ErrInvalidRoute)
	}
	if count <= 0 {
		return nil, fmt.Errorf("sample route: count must be positive, got %d", count)
	}

	total := len(geometry)
	out := make([]domain.Coordinates, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, geometry[i*total/count])
	}
	return out, nil
}
