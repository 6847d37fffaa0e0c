package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/platform/obs"
	"meeting-point-service/internal/ports"
)

// ORSRouteProvider implements RouteProvider and DurationMatrixProvider using
// OpenRouteService.
//
// It coordinates:
//   - Directions lookups for the route geometry
//   - Batched duration matrix calls for the leg queries
//   - Persistent travel time caching
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSRouteProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	cache   ports.TravelTimeCache
}

func NewORSRouteProvider(apiKey string, cache ports.TravelTimeCache) (*ORSRouteProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSRouteProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		cache:   cache,
	}

	return provider, nil
}

// orsProfile maps a transport mode onto the ORS routing profile of the same
// intent.
func orsProfile(mode domain.TransportMode) string {
	switch mode {
	case domain.ModeWalking:
		return "foot-walking"
	case domain.ModeCycling:
		return "cycling-regular"
	case domain.ModeTransit:
		return "public-transport"
	default:
		return "driving-car"
	}
}

func coordParam(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// GetRoute fetches the route geometry between two points from the ORS
// directions endpoint. A 404 from ORS means the points cannot be connected
// and surfaces as ports.ErrNoRoute.
func (p *ORSRouteProvider) GetRoute(
	ctx context.Context,
	start, end domain.Coordinates,
	mode domain.TransportMode,
) (_ domain.Route, err error) {
	defer obs.Time(ctx, "ors.GetRoute")(&err)

	query := url.Values{}
	query.Set("start", coordParam(start))
	query.Set("end", coordParam(end))
	endpoint := fmt.Sprintf("%s/v2/directions/%s?%s", p.baseURL, orsProfile(mode), query.Encode())

	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		return p.newRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			return domain.Route{}, fmt.Errorf("ors directions: %w: %v", ports.ErrNoRoute, err)
		}
		return domain.Route{}, fmt.Errorf("ors directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.Route{}, fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Features) == 0 {
		return domain.Route{}, fmt.Errorf("ors directions: %w", ports.ErrNoRoute)
	}

	feature := dr.Features[0]
	geometry := make([]domain.Coordinates, 0, len(feature.Geometry.Coordinates))
	for _, pair := range feature.Geometry.Coordinates {
		if len(pair) < 2 {
			return domain.Route{}, fmt.Errorf("directions geometry has malformed coordinate pair %v", pair)
		}
		geometry = append(geometry, domain.Coordinates{Lon: pair[0], Lat: pair[1]})
	}

	route := domain.Route{
		Geometry:        geometry,
		DurationSeconds: feature.Properties.Summary.Duration,
	}
	if err := route.Validate(); err != nil {
		return domain.Route{}, fmt.Errorf("ors directions returned unusable route: %w", err)
	}

	return route, nil
}

// GetTravelTime answers a single origin->destination duration through the
// batched matrix path so it shares the travel time cache.
func (p *ORSRouteProvider) GetTravelTime(
	ctx context.Context,
	origin, destination domain.Coordinates,
	mode domain.TransportMode,
) (float64, error) {
	times, err := p.TravelTimesFrom(ctx, origin, []domain.Coordinates{destination}, mode)
	if err != nil {
		return 0, fmt.Errorf("get travel time: %w", err)
	}

	seconds, ok := times[destination]
	if !ok {
		return 0, fmt.Errorf("get travel time: no duration for destination %v", destination)
	}
	return seconds, nil
}
