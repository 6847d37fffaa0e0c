package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/platform/metrics"
	"meeting-point-service/internal/ports"
	"meeting-point-service/internal/session"
)

var (
	ErrMissingInput  = errors.New("missing or invalid input")
	ErrRouteNotFound = errors.New("route not found")
)

const (
	defaultPOILimit             = 5
	defaultPOILookupConcurrency = 4
)

// MeetingRequest carries the two participant locations and the optional
// knobs of a single resolution.
type MeetingRequest struct {
	Start      *domain.Coordinates
	End        *domain.Coordinates
	Mode       domain.TransportMode
	Categories []domain.Category
	POILimit   int
}

// MeetingResult is the outcome of one full resolution pass. Superseded is
// set when a newer resolution claimed the session before this one could
// publish, in which case the map state was left untouched.
type MeetingResult struct {
	Midpoint         domain.Candidate
	Route            domain.Route
	POIs             []domain.POI
	FailedCategories []domain.Category
	Superseded       bool
	Generation       int64
}

// MeetingPlanner wires the route, duration and place providers to a map
// session and runs the resolve pipeline end to end.
type MeetingPlanner struct {
	Routes  ports.RouteProvider
	Places  ports.PlaceFinder
	Session *session.MapSession

	// Durations answers the 2×N leg queries. When nil, Routes is used and
	// must also implement ports.DurationProvider.
	Durations ports.DurationProvider

	Resolve ResolveOptions
}

func (p *MeetingPlanner) durations() ports.DurationProvider {
	if p.Durations != nil {
		return p.Durations
	}
	return p.Routes.(ports.DurationProvider)
}

// PlanMeetingPoint resolves the fair meeting point between req.Start and
// req.End and publishes route, midpoint and nearby places to the session.
// A request that starts after this one always wins the session; the older
// pass still returns its own result, flagged Superseded.
func (p *MeetingPlanner) PlanMeetingPoint(ctx context.Context, req MeetingRequest) (*MeetingResult, error) {
	started := time.Now()

	mode, categories, err := p.validate(req)
	if err != nil {
		metrics.Resolutions.WithLabelValues("invalid").Inc()
		return nil, err
	}

	// Claim a generation before any network work so that a later request
	// supersedes this one even while both are still in flight.
	gen := p.Session.NewGeneration()

	route, err := p.Routes.GetRoute(ctx, *req.Start, *req.End, mode)
	if err != nil {
		if errors.Is(err, ports.ErrNoRoute) {
			metrics.Resolutions.WithLabelValues("no_route").Inc()
			return nil, fmt.Errorf("plan meeting point: %w: %v", ErrRouteNotFound, err)
		}
		metrics.Resolutions.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("plan meeting point: get route: %w", err)
	}

	mid, err := ResolveEquidistant(ctx, route, *req.Start, *req.End, mode, p.durations(), p.Resolve)
	if err != nil {
		if errors.Is(err, ErrNoResolvableMidpoint) {
			metrics.Resolutions.WithLabelValues("no_midpoint").Inc()
		} else {
			metrics.Resolutions.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("plan meeting point: %w", err)
	}

	result := &MeetingResult{
		Midpoint:   *mid,
		Route:      route,
		Generation: gen,
	}

	if !p.Session.ApplyResolution(gen, route.Geometry, mid.Point) {
		// A newer resolution owns the map now. Looking up places for a
		// midpoint nobody will see is wasted work.
		metrics.Resolutions.WithLabelValues("superseded").Inc()
		log.Printf("op=plan_meeting_point gen=%d superseded=true", gen)
		result.Superseded = true
		return result, nil
	}

	result.POIs, result.FailedCategories = p.findPlaces(ctx, mid.Point, categories, req.POILimit)
	if !p.Session.ApplyPOIMarkers(gen, result.POIs) {
		metrics.Resolutions.WithLabelValues("superseded").Inc()
		log.Printf("op=plan_meeting_point gen=%d superseded=true", gen)
		result.Superseded = true
		return result, nil
	}

	metrics.Resolutions.WithLabelValues("ok").Inc()
	metrics.ResolutionSeconds.WithLabelValues(string(mode)).Observe(time.Since(started).Seconds())
	log.Printf("op=plan_meeting_point gen=%d mode=%s sample_index=%d diff_s=%.1f pois=%d dur=%dms",
		gen, mode, mid.SampleIndex, mid.TimeDifference(), len(result.POIs), time.Since(started).Milliseconds())
	return result, nil
}

func (p *MeetingPlanner) validate(req MeetingRequest) (domain.TransportMode, []domain.Category, error) {
	if req.Start == nil || req.End == nil {
		return "", nil, fmt.Errorf("plan meeting point: %w: start and end are required", ErrMissingInput)
	}
	if err := req.Start.Validate(); err != nil {
		return "", nil, fmt.Errorf("plan meeting point: %w: start: %v", ErrMissingInput, err)
	}
	if err := req.End.Validate(); err != nil {
		return "", nil, fmt.Errorf("plan meeting point: %w: end: %v", ErrMissingInput, err)
	}

	mode := domain.ModeDriving
	if req.Mode != "" {
		m, err := domain.ParseTransportMode(string(req.Mode))
		if err != nil {
			return "", nil, fmt.Errorf("plan meeting point: %w: %v", ErrMissingInput, err)
		}
		mode = m
	}

	categories := req.Categories
	if len(categories) == 0 {
		categories = domain.DefaultCategories()
	}
	for _, c := range categories {
		if _, err := domain.ParseCategory(string(c)); err != nil {
			return "", nil, fmt.Errorf("plan meeting point: %w: %v", ErrMissingInput, err)
		}
	}

	return mode, categories, nil
}

// findPlaces fans out one lookup per category around the midpoint. A failed
// category never fails the resolution; it is reported back so the caller can
// surface a notice.
func (p *MeetingPlanner) findPlaces(
	ctx context.Context,
	midpoint domain.Coordinates,
	categories []domain.Category,
	limit int,
) ([]domain.POI, []domain.Category) {
	if p.Places == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultPOILimit
	}

	perCategory := make([][]domain.POI, len(categories))
	failed := make([]bool, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultPOILookupConcurrency)
	for i, cat := range categories {
		i, cat := i, cat
		g.Go(func() error {
			pois, err := p.Places.FindNearby(gctx, midpoint, cat, limit)
			if err != nil {
				log.Printf("op=poi_lookup category=%s err=%v", cat, err)
				failed[i] = true
				return nil
			}
			perCategory[i] = pois
			return nil
		})
	}
	// Lookups only ever return nil; Wait is a barrier here.
	_ = g.Wait()

	var out []domain.POI
	var failedCategories []domain.Category
	for i, cat := range categories {
		if failed[i] {
			failedCategories = append(failedCategories, cat)
			continue
		}
		out = append(out, perCategory[i]...)
	}
	return out, failedCategories
}
