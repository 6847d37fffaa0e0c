package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/ports"
	"meeting-point-service/internal/services"
	"meeting-point-service/internal/session"
)

type stubRoutes struct {
	fn func(ctx context.Context, start, end domain.Coordinates, mode domain.TransportMode) (domain.Route, error)
}

func (s *stubRoutes) GetRoute(ctx context.Context, start, end domain.Coordinates, mode domain.TransportMode) (domain.Route, error) {
	return s.fn(ctx, start, end, mode)
}

type stubDurations struct {
	fn func(ctx context.Context, origin, destination domain.Coordinates, mode domain.TransportMode) (float64, error)
}

func (s *stubDurations) GetTravelTime(ctx context.Context, origin, destination domain.Coordinates, mode domain.TransportMode) (float64, error) {
	return s.fn(ctx, origin, destination, mode)
}

type stubPlaces struct {
	fn func(ctx context.Context, point domain.Coordinates, category domain.Category, limit int) ([]domain.POI, error)
}

func (s *stubPlaces) FindNearby(ctx context.Context, point domain.Coordinates, category domain.Category, limit int) ([]domain.POI, error) {
	return s.fn(ctx, point, category, limit)
}

func c(lon, lat float64) domain.Coordinates { return domain.Coordinates{Lon: lon, Lat: lat} }

// fixtureGeometry is a four-point route whose second point wins the
// equidistant search under fixtureDurations.
var fixtureGeometry = []domain.Coordinates{c(1, 1), c(2, 2), c(3, 3), c(4, 4)}

func fixtureDurations(start domain.Coordinates) *stubDurations {
	startLegs := map[domain.Coordinates]float64{
		fixtureGeometry[0]: 100, fixtureGeometry[1]: 240, fixtureGeometry[2]: 500, fixtureGeometry[3]: 700,
	}
	endLegs := map[domain.Coordinates]float64{
		fixtureGeometry[0]: 700, fixtureGeometry[1]: 260, fixtureGeometry[2]: 90, fixtureGeometry[3]: 80,
	}
	return &stubDurations{fn: func(_ context.Context, from, to domain.Coordinates, _ domain.TransportMode) (float64, error) {
		if from == start {
			return startLegs[to], nil
		}
		return endLegs[from], nil
	}}
}

func newTestHandler(routes ports.RouteProvider, durations ports.DurationProvider, places ports.PlaceFinder) (*MeetingHandler, *session.MapSession) {
	mapSession := session.NewMapSession()
	planner := &services.MeetingPlanner{
		Routes:    routes,
		Durations: durations,
		Places:    places,
		Session:   mapSession,
		Resolve:   services.ResolveOptions{SampleCount: len(fixtureGeometry)},
	}
	return &MeetingHandler{Planner: planner}, mapSession
}

func postMeetingPoint(t *testing.T, h *MeetingHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/meeting-point", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)
	return rec
}

func TestResolveHappyPath(t *testing.T) {
	start, end := c(0, 0), c(9, 9)
	routes := &stubRoutes{fn: func(_ context.Context, s, e domain.Coordinates, mode domain.TransportMode) (domain.Route, error) {
		if s != start || e != end {
			t.Errorf("route queried for %+v -> %+v", s, e)
		}
		if mode != domain.ModeCycling {
			t.Errorf("mode = %q, want cycling", mode)
		}
		return domain.Route{Geometry: fixtureGeometry, DurationSeconds: 620}, nil
	}}
	places := &stubPlaces{fn: func(_ context.Context, p domain.Coordinates, cat domain.Category, limit int) ([]domain.POI, error) {
		if limit != 3 {
			t.Errorf("poi limit = %d, want 3", limit)
		}
		return []domain.POI{{Point: p, Name: "By the " + string(cat), Category: cat, Address: "12 Main St"}}, nil
	}}
	h, mapSession := newTestHandler(routes, fixtureDurations(start), places)

	rec := postMeetingPoint(t, h, `{
		"start": {"lon": 0, "lat": 0},
		"end": {"lon": 9, "lat": 9},
		"mode": "cycling",
		"categories": ["park"],
		"poi_limit": 3
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Midpoint struct {
			Coordinates           struct{ Lon, Lat float64 } `json:"coordinates"`
			SampleIndex           int                        `json:"sample_index"`
			TimeDifferenceSeconds float64                    `json:"time_difference_seconds"`
			TotalTimeSeconds      float64                    `json:"total_time_seconds"`
		} `json:"midpoint"`
		Route struct {
			Geometry        []struct{ Lon, Lat float64 } `json:"geometry"`
			DurationSeconds float64                      `json:"duration_seconds"`
		} `json:"route"`
		POIs []struct {
			Name     string `json:"name"`
			Category string `json:"category"`
			Icon     string `json:"icon"`
			Color    string `json:"color"`
		} `json:"pois"`
		Superseded bool  `json:"superseded"`
		Generation int64 `json:"generation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if res.Midpoint.SampleIndex != 1 || res.Midpoint.Coordinates.Lon != 2 {
		t.Fatalf("midpoint = %+v", res.Midpoint)
	}
	if res.Midpoint.TimeDifferenceSeconds != 20 || res.Midpoint.TotalTimeSeconds != 500 {
		t.Fatalf("midpoint timings = %+v", res.Midpoint)
	}
	if len(res.Route.Geometry) != 4 || res.Route.DurationSeconds != 620 {
		t.Fatalf("route = %+v", res.Route)
	}
	if len(res.POIs) != 1 || res.POIs[0].Category != "park" {
		t.Fatalf("pois = %+v", res.POIs)
	}
	if res.POIs[0].Icon == "" || res.POIs[0].Color == "" {
		t.Fatalf("poi rendering hints missing: %+v", res.POIs[0])
	}
	if res.Superseded || res.Generation == 0 {
		t.Fatalf("superseded=%v generation=%d", res.Superseded, res.Generation)
	}

	snap := mapSession.Snapshot()
	if snap.Midpoint == nil || *snap.Midpoint != fixtureGeometry[1] {
		t.Fatalf("session midpoint = %+v", snap.Midpoint)
	}
}

func TestResolveRejectsMalformedBodies(t *testing.T) {
	h, mapSession := newTestHandler(&stubRoutes{fn: func(context.Context, domain.Coordinates, domain.Coordinates, domain.TransportMode) (domain.Route, error) {
		t.Error("planner reached with malformed body")
		return domain.Route{}, nil
	}}, &stubDurations{}, nil)

	bodies := map[string]string{
		"not json":      `{"start": `,
		"unknown field": `{"start": {"lon": 0, "lat": 0}, "end": {"lon": 1, "lat": 1}, "midpoint_hint": true}`,
		"two objects":   `{"start": {"lon": 0, "lat": 0}, "end": {"lon": 1, "lat": 1}} {}`,
		"wrong shape":   `{"start": [0, 0], "end": [1, 1]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := postMeetingPoint(t, h, body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}

	if snap := mapSession.Snapshot(); snap.RouteLine != nil {
		t.Fatal("session mutated by malformed request")
	}
}

func TestResolveMissingInput(t *testing.T) {
	h, _ := newTestHandler(&stubRoutes{fn: func(context.Context, domain.Coordinates, domain.Coordinates, domain.TransportMode) (domain.Route, error) {
		t.Error("planner fetched a route without a start")
		return domain.Route{}, nil
	}}, &stubDurations{}, nil)

	rec := postMeetingPoint(t, h, `{"end": {"lon": 1, "lat": 1}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Fatalf("body = %s, want a json error", rec.Body.String())
	}
}

func TestResolveRouteNotFound(t *testing.T) {
	h, _ := newTestHandler(&stubRoutes{fn: func(context.Context, domain.Coordinates, domain.Coordinates, domain.TransportMode) (domain.Route, error) {
		return domain.Route{}, ports.ErrNoRoute
	}}, &stubDurations{}, nil)

	rec := postMeetingPoint(t, h, `{"start": {"lon": 0, "lat": 0}, "end": {"lon": 1, "lat": 1}}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestResolveNoMidpoint(t *testing.T) {
	routes := &stubRoutes{fn: func(context.Context, domain.Coordinates, domain.Coordinates, domain.TransportMode) (domain.Route, error) {
		return domain.Route{Geometry: fixtureGeometry, DurationSeconds: 600}, nil
	}}
	durations := &stubDurations{fn: func(context.Context, domain.Coordinates, domain.Coordinates, domain.TransportMode) (float64, error) {
		return 0, errors.New("oracle down")
	}}
	h, _ := newTestHandler(routes, durations, nil)

	rec := postMeetingPoint(t, h, `{"start": {"lon": 0, "lat": 0}, "end": {"lon": 1, "lat": 1}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestResolveInternalError(t *testing.T) {
	h, _ := newTestHandler(&stubRoutes{fn: func(context.Context, domain.Coordinates, domain.Coordinates, domain.TransportMode) (domain.Route, error) {
		return domain.Route{}, errors.New("tls handshake broke")
	}}, &stubDurations{}, nil)

	rec := postMeetingPoint(t, h, `{"start": {"lon": 0, "lat": 0}, "end": {"lon": 1, "lat": 1}}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "tls") {
		t.Fatal("internal error details leaked to the client")
	}
}
