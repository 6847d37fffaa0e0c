package ports

import (
	"context"
	"errors"

	"meeting-point-service/internal/domain"
)

// ErrNoRoute is returned by providers when no route exists between two
// endpoints for the requested mode (as opposed to a transport failure).
var ErrNoRoute = errors.New("no route found")

// Contract for retrieving a full travel route between two endpoints.
type RouteProvider interface {
	// Return the route geometry and its total travel duration, or
	// ErrNoRoute when the provider knows of no connection.
	GetRoute(ctx context.Context, start, end domain.Coordinates, mode domain.TransportMode) (domain.Route, error)
}
