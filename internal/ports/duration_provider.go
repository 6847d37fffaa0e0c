package ports

import (
	"context"

	"meeting-point-service/internal/domain"
)

// Contract for retrieving the travel time between two points.
type DurationProvider interface {
	// Return the estimated travel duration in seconds from origin to
	// destination for the given mode.
	GetTravelTime(ctx context.Context, origin, destination domain.Coordinates, mode domain.TransportMode) (float64, error)
}
