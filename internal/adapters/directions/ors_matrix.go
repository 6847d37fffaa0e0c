package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/platform/obs"
	"meeting-point-service/internal/ports"
)

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Sources      []int       `json:"sources"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
}

type matrixResponse struct {
	Durations [][]*float64 `json:"durations"`
}

// TravelTimesFrom returns travel durations from one origin to many targets
// using the OpenRouteService matrix endpoint. Cached pairs are served
// without an API call; targets the provider cannot reach are absent from
// the result rather than an error, so the resolver's leg failure policy
// decides their fate.
func (p *ORSRouteProvider) TravelTimesFrom(
	ctx context.Context,
	origin domain.Coordinates,
	targets []domain.Coordinates,
	mode domain.TransportMode,
) (_ map[domain.Coordinates]float64, err error) {
	defer obs.Time(ctx, "ors.TravelTimesFrom")(&err)

	uniq := uniquePoints(targets)
	if len(uniq) == 0 {
		return map[domain.Coordinates]float64{}, nil
	}

	pairFor := func(t domain.Coordinates) ports.TravelPair {
		return ports.TravelPair{From: origin, To: t}
	}

	hits, err := p.cachedTimes(ctx, uniq, pairFor, mode)
	if err != nil {
		return nil, fmt.Errorf("travel times from: %w", err)
	}

	misses := make([]domain.Coordinates, 0, len(uniq))
	for _, t := range uniq {
		if _, ok := hits[t]; !ok {
			misses = append(misses, t)
		}
	}
	if len(misses) == 0 {
		return hits, nil
	}

	// One matrix row: origin at index 0, misses behind it.
	locations := make([][]float64, 0, 1+len(misses))
	locations = append(locations, origin.CoordsToList())
	destIdx := make([]int, 0, len(misses))
	for i, t := range misses {
		locations = append(locations, t.CoordsToList())
		destIdx = append(destIdx, i+1)
	}

	durations, err := p.fetchMatrix(ctx, mode, locations, []int{0}, destIdx)
	if err != nil {
		return nil, fmt.Errorf("travel times from: %w", err)
	}
	if len(durations) != 1 || len(durations[0]) != len(misses) {
		return nil, fmt.Errorf(
			"travel times from: matrix shape mismatch: rows=%d targets=%d",
			len(durations), len(misses),
		)
	}

	fresh := make(map[domain.Coordinates]float64, len(misses))
	for i, t := range misses {
		// A null matrix entry means the provider found no connection for
		// this pair; leave it out.
		if secondsPtr := durations[0][i]; secondsPtr != nil {
			fresh[t] = *secondsPtr
		}
	}

	p.storeTimes(ctx, fresh, pairFor, mode)

	out := make(map[domain.Coordinates]float64, len(hits)+len(fresh))
	for k, v := range hits {
		out[k] = v
	}
	for k, v := range fresh {
		out[k] = v
	}

	return out, nil
}

// TravelTimesTo returns travel durations from many sources to one
// destination, the mirror of TravelTimesFrom.
func (p *ORSRouteProvider) TravelTimesTo(
	ctx context.Context,
	sources []domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TransportMode,
) (_ map[domain.Coordinates]float64, err error) {
	defer obs.Time(ctx, "ors.TravelTimesTo")(&err)

	uniq := uniquePoints(sources)
	if len(uniq) == 0 {
		return map[domain.Coordinates]float64{}, nil
	}

	pairFor := func(s domain.Coordinates) ports.TravelPair {
		return ports.TravelPair{From: s, To: destination}
	}

	hits, err := p.cachedTimes(ctx, uniq, pairFor, mode)
	if err != nil {
		return nil, fmt.Errorf("travel times to: %w", err)
	}

	misses := make([]domain.Coordinates, 0, len(uniq))
	for _, s := range uniq {
		if _, ok := hits[s]; !ok {
			misses = append(misses, s)
		}
	}
	if len(misses) == 0 {
		return hits, nil
	}

	// One matrix column: destination at index 0, misses behind it.
	locations := make([][]float64, 0, 1+len(misses))
	locations = append(locations, destination.CoordsToList())
	srcIdx := make([]int, 0, len(misses))
	for i, s := range misses {
		locations = append(locations, s.CoordsToList())
		srcIdx = append(srcIdx, i+1)
	}

	durations, err := p.fetchMatrix(ctx, mode, locations, srcIdx, []int{0})
	if err != nil {
		return nil, fmt.Errorf("travel times to: %w", err)
	}
	if len(durations) != len(misses) {
		return nil, fmt.Errorf(
			"travel times to: matrix shape mismatch: rows=%d sources=%d",
			len(durations), len(misses),
		)
	}

	fresh := make(map[domain.Coordinates]float64, len(misses))
	for i, s := range misses {
		if len(durations[i]) != 1 {
			return nil, fmt.Errorf(
				"travel times to: matrix row %d has %d entries, want 1",
				i, len(durations[i]),
			)
		}
		if secondsPtr := durations[i][0]; secondsPtr != nil {
			fresh[s] = *secondsPtr
		}
	}

	p.storeTimes(ctx, fresh, pairFor, mode)

	out := make(map[domain.Coordinates]float64, len(hits)+len(fresh))
	for k, v := range hits {
		out[k] = v
	}
	for k, v := range fresh {
		out[k] = v
	}

	return out, nil
}

// fetchMatrix posts one duration matrix request and returns the raw rows.
// Entries are nullable; the callers decide what a missing duration means.
func (p *ORSRouteProvider) fetchMatrix(
	ctx context.Context,
	mode domain.TransportMode,
	locations [][]float64,
	sources []int,
	destinations []int,
) ([][]*float64, error) {
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", p.baseURL, orsProfile(mode))

	bodyObj := matrixRequest{
		Locations:    locations,
		Sources:      sources,
		Destinations: destinations,
		Metrics:      []string{"duration"},
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		body := bytes.NewReader(payload)
		return p.newRequest(ctx, http.MethodPost, endpoint, body)
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	return mr.Durations, nil
}

// cachedTimes maps cached durations back onto their query points. A nil
// cache hits nothing.
func (p *ORSRouteProvider) cachedTimes(
	ctx context.Context,
	points []domain.Coordinates,
	pairFor func(domain.Coordinates) ports.TravelPair,
	mode domain.TransportMode,
) (map[domain.Coordinates]float64, error) {
	out := make(map[domain.Coordinates]float64, len(points))
	if p.cache == nil {
		return out, nil
	}

	pairs := make([]ports.TravelPair, 0, len(points))
	for _, pt := range points {
		pairs = append(pairs, pairFor(pt))
	}

	cached, err := p.cache.GetMany(ctx, pairs, mode)
	if err != nil {
		return nil, fmt.Errorf("travel time cache read: %w", err)
	}

	for _, pt := range points {
		if seconds, ok := cached[pairFor(pt)]; ok {
			out[pt] = seconds
		}
	}
	return out, nil
}

// storeTimes writes freshly fetched durations through to the cache. Write
// failures only cost future hits, so they are logged and swallowed.
func (p *ORSRouteProvider) storeTimes(
	ctx context.Context,
	times map[domain.Coordinates]float64,
	pairFor func(domain.Coordinates) ports.TravelPair,
	mode domain.TransportMode,
) {
	if p.cache == nil || len(times) == 0 {
		return
	}

	durations := make(map[ports.TravelPair]float64, len(times))
	for pt, seconds := range times {
		durations[pairFor(pt)] = seconds
	}

	if err := p.cache.PutMany(ctx, durations, mode); err != nil {
		log.Printf("travel time cache write failed: %v", err)
	}
}

func uniquePoints(points []domain.Coordinates) []domain.Coordinates {
	seen := make(map[domain.Coordinates]struct{}, len(points))
	uniq := make([]domain.Coordinates, 0, len(points))
	for _, pt := range points {
		if _, ok := seen[pt]; ok {
			continue
		}
		seen[pt] = struct{}{}
		uniq = append(uniq, pt)
	}
	return uniq
}
