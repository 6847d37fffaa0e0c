package directions

import (
	"context"
	"fmt"

	"meeting-point-service/internal/domain"
)

// Great-circle speeds in meters per second used by the constant-speed mock.
var mockSpeeds = map[domain.TransportMode]float64{
	domain.ModeDriving: 13.9,
	domain.ModeWalking: 1.4,
	domain.ModeCycling: 4.2,
	domain.ModeTransit: 8.3,
}

// ConstantSpeedProvider is an offline RouteProvider/DurationProvider that
// reports straight-line routes and durations proportional to great-circle
// distance at a fixed per-mode speed. It is used by tests and local
// development runs without an API key.
type ConstantSpeedProvider struct {
	// PointCount is the number of geometry points per route, endpoints
	// included. Defaults to 101.
	PointCount int
}

func NewConstantSpeedProvider() *ConstantSpeedProvider {
	return &ConstantSpeedProvider{PointCount: 101}
}

func (p *ConstantSpeedProvider) pointCount() int {
	if p.PointCount < 2 {
		return 101
	}
	return p.PointCount
}

func (p *ConstantSpeedProvider) GetRoute(
	ctx context.Context,
	start, end domain.Coordinates,
	mode domain.TransportMode,
) (domain.Route, error) {
	if err := ctx.Err(); err != nil {
		return domain.Route{}, err
	}

	n := p.pointCount()
	geometry := make([]domain.Coordinates, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		geometry = append(geometry, domain.Coordinates{
			Lon: start.Lon + (end.Lon-start.Lon)*t,
			Lat: start.Lat + (end.Lat-start.Lat)*t,
		})
	}

	seconds, err := p.GetTravelTime(ctx, start, end, mode)
	if err != nil {
		return domain.Route{}, err
	}

	return domain.Route{Geometry: geometry, DurationSeconds: seconds}, nil
}

func (p *ConstantSpeedProvider) GetTravelTime(
	ctx context.Context,
	origin, destination domain.Coordinates,
	mode domain.TransportMode,
) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	speed, ok := mockSpeeds[mode]
	if !ok {
		return 0, fmt.Errorf("constant speed provider: unsupported mode %q", mode)
	}

	return origin.DistanceMeters(destination) / speed, nil
}
