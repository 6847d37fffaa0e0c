package ports

import (
	"context"

	"meeting-point-service/internal/domain"
)

// Contract for finding points of interest around a location.
type PlaceFinder interface {
	// Return up to limit places of the given category near point. An empty
	// result is a valid answer, not an error.
	FindNearby(ctx context.Context, point domain.Coordinates, category domain.Category, limit int) ([]domain.POI, error)
}
