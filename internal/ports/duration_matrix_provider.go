package ports

import (
	"context"

	"meeting-point-service/internal/domain"
)

// Optional extension of DurationProvider that supports batched lookups
// against a matrix endpoint. Results are keyed by the queried point; a point
// missing from the map means the provider could not produce a duration for
// it (the caller's failure policy decides what happens then).
type DurationMatrixProvider interface {
	DurationProvider
	// Return travel times in seconds from one origin to many targets.
	TravelTimesFrom(ctx context.Context, origin domain.Coordinates, targets []domain.Coordinates, mode domain.TransportMode) (map[domain.Coordinates]float64, error)
	// Return travel times in seconds from many sources to one destination.
	TravelTimesTo(ctx context.Context, sources []domain.Coordinates, destination domain.Coordinates, mode domain.TransportMode) (map[domain.Coordinates]float64, error)
}
