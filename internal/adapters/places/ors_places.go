package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/platform/obs"
)

// DefaultSearchRadiusMeters is the buffer applied around the midpoint when
// the caller does not override it.
const DefaultSearchRadiusMeters = 500

// poiFilter translates one category of the closed domain set onto the
// openpoiservice taxonomy: either specific category ids or whole group ids.
type poiFilter struct {
	CategoryIDs []int
	GroupIDs    []int
}

// categoryFilters is the fixed dispatch table from domain categories to
// provider filters. Categories are matched structurally here, never by
// free-text fields from the provider.
var categoryFilters = map[domain.Category]poiFilter{
	domain.CategoryCafe:       {CategoryIDs: []int{564}}, // sustenance/cafe
	domain.CategoryRestaurant: {CategoryIDs: []int{570}}, // sustenance/restaurant
	domain.CategoryPark:       {CategoryIDs: []int{267}}, // leisure_and_entertainment/park
	domain.CategoryShopping:   {GroupIDs: []int{420}},    // shops group
	domain.CategoryVenue:      {GroupIDs: []int{620}},    // tourism group
}

// ORSPlaceFinder implements PlaceFinder using the OpenRouteService POI
// endpoint.
//
// It coordinates:
//   - Category translation onto the provider's POI taxonomy
//   - Proximity search around the resolved midpoint
//   - External API calls with retry/backoff
//
// The finder is safe for concurrent use.
type ORSPlaceFinder struct {
	session *http.Client
	apiKey  string
	baseURL string
	// Search radius in meters around the query point.
	radius int
}

func NewORSPlaceFinder(apiKey string) (*ORSPlaceFinder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	finder := &ORSPlaceFinder{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		radius:  DefaultSearchRadiusMeters,
	}

	return finder, nil
}

type poisRequest struct {
	Request  string      `json:"request"`
	Geometry poisGeom    `json:"geometry"`
	Filters  poisFilters `json:"filters"`
	Limit    int         `json:"limit"`
	SortBy   string      `json:"sortby"`
}

type poisGeom struct {
	GeoJSON poisPoint `json:"geojson"`
	Buffer  int       `json:"buffer"`
}

type poisPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type poisFilters struct {
	CategoryIDs      []int `json:"category_ids,omitempty"`
	CategoryGroupIDs []int `json:"category_group_ids,omitempty"`
}

type poisResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			OSMTags map[string]string `json:"osm_tags"`
		} `json:"properties"`
	} `json:"features"`
}

// FindNearby returns up to limit named places of the given category around
// point. An empty result is a valid answer; only transport or decode
// problems surface as errors, which callers degrade to "zero places found".
func (f *ORSPlaceFinder) FindNearby(
	ctx context.Context,
	point domain.Coordinates,
	category domain.Category,
	limit int,
) (_ []domain.POI, err error) {
	defer obs.Time(ctx, "ors.FindNearby")(&err)

	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("find nearby places: %w", err)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("find nearby places: limit must be positive, got %d", limit)
	}
	filter, ok := categoryFilters[category]
	if !ok {
		return nil, fmt.Errorf("find nearby places: no provider filter for category %q", category)
	}

	bodyObj := poisRequest{
		Request: "pois",
		Geometry: poisGeom{
			GeoJSON: poisPoint{Type: "Point", Coordinates: point.CoordsToList()},
			Buffer:  f.radius,
		},
		Filters: poisFilters{
			CategoryIDs:      filter.CategoryIDs,
			CategoryGroupIDs: filter.GroupIDs,
		},
		Limit:  limit,
		SortBy: "distance",
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return nil, fmt.Errorf("marshal pois request: %w", err)
	}

	endpoint := f.baseURL + "/pois"
	resp, err := f.doWithRetry(ctx, func() (*http.Request, error) {
		return f.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("ors pois request failed: %w", err)
	}
	defer resp.Body.Close()

	var pr poisResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode pois response: %w", err)
	}

	out := make([]domain.POI, 0, len(pr.Features))
	for _, feature := range pr.Features {
		coords := feature.Geometry.Coordinates
		if len(coords) < 2 {
			return nil, fmt.Errorf("pois feature has malformed coordinate pair %v", coords)
		}

		// Unnamed entries make useless markers; skip them rather than
		// labeling markers with raw OSM ids.
		name := feature.Properties.OSMTags["name"]
		if name == "" {
			continue
		}

		out = append(out, domain.POI{
			Point:    domain.Coordinates{Lon: coords[0], Lat: coords[1]},
			Name:     name,
			Category: category,
			Address:  feature.Properties.OSMTags["address"],
		})
		// Cap locally in case the provider returns more rows than asked.
		if len(out) == limit {
			break
		}
	}

	return out, nil
}
