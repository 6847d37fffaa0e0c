package ports

import (
	"context"

	"meeting-point-service/internal/domain"
)

// TravelPair identifies one directed origin-to-destination query.
type TravelPair struct {
	From domain.Coordinates
	To   domain.Coordinates
}

// TravelTimeCache persists provider-reported travel times keyed by travel
// pair and mode, so repeated resolutions over the same endpoints avoid
// re-querying the external API.
type TravelTimeCache interface {
	// Fetch cached durations for the given pairs. Pairs without a cached
	// value are absent from the result.
	GetMany(ctx context.Context, pairs []TravelPair, mode domain.TransportMode) (map[TravelPair]float64, error)
	// Store durations for many pairs at once.
	PutMany(ctx context.Context, durations map[TravelPair]float64, mode domain.TransportMode) error
}
