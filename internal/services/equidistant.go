package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/platform/metrics"
	"meeting-point-service/internal/ports"
)

// ErrNoResolvableMidpoint reports that no sampled candidate produced a usable
// pair of travel times, so no midpoint can be chosen.
var ErrNoResolvableMidpoint = errors.New("no resolvable midpoint")

// LegFailurePolicy controls what happens to a candidate when one of its two
// duration queries fails.
type LegFailurePolicy int

const (
	// LegFailureZero substitutes a zero duration for the failed leg and
	// keeps the candidate in play. This biases selection toward points
	// whose real travel time is unknown: a candidate with both legs
	// failed scores a perfect asymmetry of 0.
	LegFailureZero LegFailurePolicy = iota
	// LegFailureDiscard drops any candidate with a failed leg from
	// consideration.
	LegFailureDiscard
)

const defaultDurationQueryConcurrency = 8

// ResolveOptions tunes one resolution pass. The zero value selects the
// defaults: 100 samples, zero-substitution on leg failure, bounded fan-out.
type ResolveOptions struct {
	SampleCount int
	LegFailure  LegFailurePolicy
	// Concurrency bounds the number of in-flight duration queries on the
	// per-pair path; matrix-capable providers are queried in two calls
	// regardless.
	Concurrency int
}

func (o ResolveOptions) sampleCount() int {
	if o.SampleCount <= 0 {
		return DefaultSampleCount
	}
	return o.SampleCount
}

func (o ResolveOptions) concurrency() int {
	if o.Concurrency <= 0 {
		return defaultDurationQueryConcurrency
	}
	return o.Concurrency
}

// legResult carries one duration query outcome. Failures stay explicit here;
// the degrade policy is applied in a single step once all legs have settled.
type legResult struct {
	seconds float64
	err     error
}

type candidateLegs struct {
	point domain.Coordinates
	start legResult
	end   legResult
}

// ResolveEquidistant picks the sampled route point whose travel times from
// start and to end are closest to equal. All 2×N duration queries settle
// before selection (wait-all); individual failures are degraded per
// opts.LegFailure rather than aborting the pass. Ties on asymmetry go to the
// candidate closest to the route start. Returns ErrNoResolvableMidpoint when
// no candidate produced at least one successful leg.
func ResolveEquidistant(
	ctx context.Context,
	route domain.Route,
	start, end domain.Coordinates,
	mode domain.TransportMode,
	provider ports.DurationProvider,
	opts ResolveOptions,
) (*domain.Candidate, error) {
	points, err := SampleRoute(route.Geometry, opts.sampleCount())
	if err != nil {
		return nil, fmt.Errorf("resolve equidistant: %w", err)
	}

	var legs []candidateLegs
	if mp, ok := provider.(ports.DurationMatrixProvider); ok {
		legs = fetchLegsMatrix(ctx, mp, points, start, end, mode)
	} else {
		legs = fetchLegsPairwise(ctx, provider, points, start, end, mode, opts.concurrency())
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve equidistant: %w", err)
	}

	// Degrade step: convert explicit leg failures into candidates according
	// to the configured policy.
	candidates := make([]domain.Candidate, 0, len(legs))
	failedLegs := 0
	okLegs := 0
	anyKnown := false
	for i, l := range legs {
		for _, r := range []legResult{l.start, l.end} {
			if r.err != nil {
				failedLegs++
			} else {
				okLegs++
				anyKnown = true
			}
		}

		// Under LegFailureZero even a candidate with both legs failed stays
		// in, scoring a perfect asymmetry of 0.
		if opts.LegFailure == LegFailureDiscard && (l.start.err != nil || l.end.err != nil) {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			Point:         l.point,
			SampleIndex:   i,
			StartDuration: degradeToZero(l.start),
			EndDuration:   degradeToZero(l.end),
		})
	}

	metrics.DurationQueries.WithLabelValues("ok").Add(float64(okLegs))
	metrics.DurationQueries.WithLabelValues("failed").Add(float64(failedLegs))
	if failedLegs > 0 {
		log.Printf("op=resolve mode=%s degraded_legs=%d total_legs=%d policy=%d",
			mode, failedLegs, okLegs+failedLegs, opts.LegFailure)
	}

	// With every single query failed there is nothing to disambiguate:
	// callers treat this as a resolution failure.
	if len(candidates) == 0 || !anyKnown {
		return nil, fmt.Errorf("resolve equidistant: %w", ErrNoResolvableMidpoint)
	}

	// Selection: minimal asymmetry wins; on exactly equal asymmetry the
	// earlier sample index wins, so iteration order settles ties.
	best := candidates[0]
	minDiff := best.TimeDifference()
	for _, c := range candidates[1:] {
		if d := c.TimeDifference(); d < minDiff {
			minDiff = d
			best = c
		}
	}

	return &best, nil
}

func degradeToZero(r legResult) float64 {
	if r.err != nil {
		return 0
	}
	return r.seconds
}

// fetchLegsMatrix resolves all legs with two batched matrix calls, issued
// concurrently. A point missing from a matrix response, or a failed call,
// marks the affected legs as failed.
func fetchLegsMatrix(
	ctx context.Context,
	provider ports.DurationMatrixProvider,
	points []domain.Coordinates,
	start, end domain.Coordinates,
	mode domain.TransportMode,
) []candidateLegs {
	var (
		wg        sync.WaitGroup
		fromTimes map[domain.Coordinates]float64
		toTimes   map[domain.Coordinates]float64
		fromErr   error
		toErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		fromTimes, fromErr = provider.TravelTimesFrom(ctx, start, points, mode)
	}()
	go func() {
		defer wg.Done()
		toTimes, toErr = provider.TravelTimesTo(ctx, points, end, mode)
	}()
	wg.Wait()

	legs := make([]candidateLegs, 0, len(points))
	for _, p := range points {
		legs = append(legs, candidateLegs{
			point: p,
			start: matrixLeg(fromTimes, fromErr, p, "start"),
			end:   matrixLeg(toTimes, toErr, p, "end"),
		})
	}
	return legs
}

func matrixLeg(times map[domain.Coordinates]float64, callErr error, p domain.Coordinates, kind string) legResult {
	if callErr != nil {
		return legResult{err: fmt.Errorf("%s leg matrix query: %w", kind, callErr)}
	}
	s, ok := times[p]
	if !ok {
		return legResult{err: fmt.Errorf("%s leg missing from matrix response", kind)}
	}
	if s < 0 || math.IsNaN(s) {
		return legResult{err: fmt.Errorf("%s leg duration %v is not usable", kind, s)}
	}
	return legResult{seconds: s}
}

// fetchLegsPairwise issues 2×N individual duration queries through a bounded
// worker fan-out and waits for all of them to settle.
func fetchLegsPairwise(
	ctx context.Context,
	provider ports.DurationProvider,
	points []domain.Coordinates,
	start, end domain.Coordinates,
	mode domain.TransportMode,
	concurrency int,
) []candidateLegs {
	type legAnswer struct {
		idx     int
		isStart bool
		result  legResult
	}

	sem := make(chan struct{}, concurrency)
	results := make(chan legAnswer, 2*len(points))
	var wg sync.WaitGroup

	query := func(idx int, isStart bool, from, to domain.Coordinates) {
		defer wg.Done()
		sem <- struct{}{}
		defer func() { <-sem }()

		seconds, err := provider.GetTravelTime(ctx, from, to, mode)
		if err == nil && (seconds < 0 || math.IsNaN(seconds)) {
			err = fmt.Errorf("duration %v is not usable", seconds)
		}
		results <- legAnswer{idx: idx, isStart: isStart, result: legResult{seconds: seconds, err: err}}
	}

	for i, p := range points {
		wg.Add(2)
		go query(i, true, start, p)
		go query(i, false, p, end)
	}

	wg.Wait()
	close(results)

	legs := make([]candidateLegs, len(points))
	for i, p := range points {
		legs[i].point = p
	}
	for a := range results {
		if a.isStart {
			legs[a.idx].start = a.result
		} else {
			legs[a.idx].end = a.result
		}
	}
	return legs
}
