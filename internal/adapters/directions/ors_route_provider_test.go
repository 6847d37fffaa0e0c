package directions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/ports"
)

// memoryCache is an in-process TravelTimeCache for provider tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[domain.TransportMode]map[ports.TravelPair]float64
	puts    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[domain.TransportMode]map[ports.TravelPair]float64{}}
}

func (m *memoryCache) GetMany(_ context.Context, pairs []ports.TravelPair, mode domain.TransportMode) (map[ports.TravelPair]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := map[ports.TravelPair]float64{}
	for _, p := range pairs {
		if seconds, ok := m.entries[mode][p]; ok {
			out[p] = seconds
		}
	}
	return out, nil
}

func (m *memoryCache) PutMany(_ context.Context, durations map[ports.TravelPair]float64, mode domain.TransportMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.entries[mode] == nil {
		m.entries[mode] = map[ports.TravelPair]float64{}
	}
	for p, seconds := range durations {
		m.entries[mode][p] = seconds
	}
	return nil
}

func newTestProvider(t *testing.T, handler http.Handler, c ports.TravelTimeCache) *ORSRouteProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewORSRouteProvider("test-key", c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.baseURL = srv.URL
	p.session = srv.Client()
	return p
}

func directionsJSON(duration float64, coords ...[]float64) map[string]any {
	return map[string]any{
		"features": []map[string]any{{
			"geometry":   map[string]any{"coordinates": coords},
			"properties": map[string]any{"summary": map[string]any{"distance": 1000.0, "duration": duration}},
		}},
	}
}

func TestGetRouteParsesGeometryAndDuration(t *testing.T) {
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/directions/foot-walking" {
			t.Errorf("path = %s, want the walking profile", r.URL.Path)
		}
		if got := r.URL.Query().Get("start"); got != "2.35,48.85" {
			t.Errorf("start = %q", got)
		}
		if got := r.URL.Query().Get("end"); got != "2.29,48.86" {
			t.Errorf("end = %q", got)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("missing api key header")
		}
		json.NewEncoder(w).Encode(directionsJSON(1800, []float64{2.35, 48.85}, []float64{2.32, 48.855}, []float64{2.29, 48.86}))
	}), nil)

	route, err := provider.GetRoute(context.Background(),
		domain.Coordinates{Lon: 2.35, Lat: 48.85},
		domain.Coordinates{Lon: 2.29, Lat: 48.86},
		domain.ModeWalking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(route.Geometry) != 3 {
		t.Fatalf("geometry has %d points, want 3", len(route.Geometry))
	}
	if route.Geometry[1] != (domain.Coordinates{Lon: 2.32, Lat: 48.855}) {
		t.Fatalf("middle point = %+v", route.Geometry[1])
	}
	if route.DurationSeconds != 1800 {
		t.Fatalf("duration = %f, want 1800", route.DurationSeconds)
	}
}

func TestGetRouteNoRoute(t *testing.T) {
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":2009,"message":"route could not be found"}}`, http.StatusNotFound)
	}), nil)

	_, err := provider.GetRoute(context.Background(), domain.Coordinates{Lon: 0, Lat: 0}, domain.Coordinates{Lon: 1, Lat: 1}, domain.ModeDriving)
	if !errors.Is(err, ports.ErrNoRoute) {
		t.Fatalf("error = %v, want ports.ErrNoRoute", err)
	}
}

func TestGetRouteEmptyFeaturesMeansNoRoute(t *testing.T) {
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"features": []any{}})
	}), nil)

	_, err := provider.GetRoute(context.Background(), domain.Coordinates{Lon: 0, Lat: 0}, domain.Coordinates{Lon: 1, Lat: 1}, domain.ModeDriving)
	if !errors.Is(err, ports.ErrNoRoute) {
		t.Fatalf("error = %v, want ports.ErrNoRoute", err)
	}
}

func TestGetRouteRetriesTransientFailures(t *testing.T) {
	attempts := 0
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(directionsJSON(600, []float64{0, 0}, []float64{1, 1}))
	}), nil)

	route, err := provider.GetRoute(context.Background(), domain.Coordinates{Lon: 0, Lat: 0}, domain.Coordinates{Lon: 1, Lat: 1}, domain.ModeDriving)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if route.DurationSeconds != 600 {
		t.Fatalf("duration = %f, want 600", route.DurationSeconds)
	}
}

func TestTravelTimesFromSkipsUnreachableTargets(t *testing.T) {
	var got matrixRequest
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/matrix/driving-car" || r.Method != http.MethodPost {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		a, b := 120.5, 300.0
		json.NewEncoder(w).Encode(map[string]any{
			// The middle target has no connection: a null entry.
			"durations": [][]*float64{{&a, nil, &b}},
		})
	}), nil)

	origin := domain.Coordinates{Lon: 0, Lat: 0}
	targets := []domain.Coordinates{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}, {Lon: 3, Lat: 3}}

	times, err := provider.TravelTimesFrom(context.Background(), origin, targets, domain.ModeDriving)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Locations) != 4 || got.Sources[0] != 0 || len(got.Destinations) != 3 {
		t.Fatalf("matrix request shape = %+v", got)
	}
	if got.Metrics[0] != "duration" {
		t.Fatalf("metrics = %v", got.Metrics)
	}

	if len(times) != 2 {
		t.Fatalf("got %d durations, want 2", len(times))
	}
	if times[targets[0]] != 120.5 || times[targets[2]] != 300 {
		t.Fatalf("times = %v", times)
	}
	if _, ok := times[targets[1]]; ok {
		t.Fatal("unreachable target should be absent, not zero")
	}
}

func TestTravelTimesToMirrorsSources(t *testing.T) {
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got matrixRequest
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// Destination sits at location 0; each source is its own row.
		if len(got.Destinations) != 1 || got.Destinations[0] != 0 {
			t.Errorf("destinations = %v", got.Destinations)
		}
		if len(got.Sources) != 2 {
			t.Errorf("sources = %v", got.Sources)
		}
		a, b := 60.0, 90.0
		json.NewEncoder(w).Encode(map[string]any{"durations": [][]*float64{{&a}, {&b}}})
	}), nil)

	sources := []domain.Coordinates{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}}
	times, err := provider.TravelTimesTo(context.Background(), sources, domain.Coordinates{Lon: 9, Lat: 9}, domain.ModeDriving)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if times[sources[0]] != 60 || times[sources[1]] != 90 {
		t.Fatalf("times = %v", times)
	}
}

func TestTravelTimesServeCachedPairsWithoutCalls(t *testing.T) {
	origin := domain.Coordinates{Lon: 0, Lat: 0}
	cached := domain.Coordinates{Lon: 1, Lat: 1}
	fresh := domain.Coordinates{Lon: 2, Lat: 2}

	c := newMemoryCache()
	if err := c.PutMany(context.Background(), map[ports.TravelPair]float64{
		{From: origin, To: cached}: 111,
	}, domain.ModeCycling); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := 0
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var got matrixRequest
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// Only the uncached target goes over the wire.
		if len(got.Locations) != 2 {
			t.Errorf("locations = %v, want origin plus single miss", got.Locations)
		}
		v := 222.0
		json.NewEncoder(w).Encode(map[string]any{"durations": [][]*float64{{&v}}})
	}), c)

	times, err := provider.TravelTimesFrom(context.Background(), origin, []domain.Coordinates{cached, fresh}, domain.ModeCycling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("matrix calls = %d, want 1", calls)
	}
	if times[cached] != 111 || times[fresh] != 222 {
		t.Fatalf("times = %v", times)
	}

	// The fresh duration was written through for the next resolution.
	stored, err := c.GetMany(context.Background(), []ports.TravelPair{{From: origin, To: fresh}}, domain.ModeCycling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored[ports.TravelPair{From: origin, To: fresh}] != 222 {
		t.Fatalf("cache after fetch = %v", stored)
	}

	// A second lookup is now fully cache-served.
	times, err = provider.TravelTimesFrom(context.Background(), origin, []domain.Coordinates{cached, fresh}, domain.ModeCycling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("matrix calls = %d, want still 1", calls)
	}
	if len(times) != 2 {
		t.Fatalf("times = %v", times)
	}
}

func TestGetTravelTimeUsesMatrixPath(t *testing.T) {
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/matrix/driving-car" {
			t.Errorf("path = %s, want the matrix endpoint", r.URL.Path)
		}
		v := 432.1
		json.NewEncoder(w).Encode(map[string]any{"durations": [][]*float64{{&v}}})
	}), nil)

	seconds, err := provider.GetTravelTime(context.Background(), domain.Coordinates{Lon: 0, Lat: 0}, domain.Coordinates{Lon: 1, Lat: 1}, domain.ModeDriving)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seconds != 432.1 {
		t.Fatalf("seconds = %f, want 432.1", seconds)
	}
}

func TestGetTravelTimeUnreachableDestination(t *testing.T) {
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"durations": [][]*float64{{nil}}})
	}), nil)

	_, err := provider.GetTravelTime(context.Background(), domain.Coordinates{Lon: 0, Lat: 0}, domain.Coordinates{Lon: 1, Lat: 1}, domain.ModeDriving)
	if err == nil {
		t.Fatal("expected error for unreachable destination")
	}
}

func TestOrsProfileMapping(t *testing.T) {
	cases := map[domain.TransportMode]string{
		domain.ModeDriving: "driving-car",
		domain.ModeWalking: "foot-walking",
		domain.ModeCycling: "cycling-regular",
		domain.ModeTransit: "public-transport",
	}
	for mode, want := range cases {
		if got := orsProfile(mode); got != want {
			t.Fatalf("profile for %s = %q, want %q", mode, got, want)
		}
	}
}
