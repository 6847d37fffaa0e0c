package dto

type CoordinatesDTO struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type MeetingPointRequest struct {
	Start      *CoordinatesDTO `json:"start"`
	End        *CoordinatesDTO `json:"end"`
	Mode       string          `json:"mode"`
	Categories []string        `json:"categories"`
	POILimit   int             `json:"poi_limit"`
}

type MidpointResponse struct {
	Coordinates           CoordinatesDTO `json:"coordinates"`
	SampleIndex           int            `json:"sample_index"`
	StartDurationSeconds  float64        `json:"start_duration_seconds"`
	EndDurationSeconds    float64        `json:"end_duration_seconds"`
	TimeDifferenceSeconds float64        `json:"time_difference_seconds"`
	TotalTimeSeconds      float64        `json:"total_time_seconds"`
}

type RouteResponse struct {
	Geometry        []CoordinatesDTO `json:"geometry"`
	DurationSeconds float64          `json:"duration_seconds"`
}

// POIResponse carries the marker rendering hints alongside the place so the
// presentation layer never re-derives icons from category strings.
type POIResponse struct {
	Coordinates CoordinatesDTO `json:"coordinates"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Address     string         `json:"address,omitempty"`
	Icon        string         `json:"icon"`
	Color       string         `json:"color"`
}

type MeetingPointResponse struct {
	Midpoint            MidpointResponse `json:"midpoint"`
	Route               RouteResponse    `json:"route"`
	POIs                []POIResponse    `json:"pois"`
	FailedPOICategories []string         `json:"failed_poi_categories,omitempty"`
	Superseded          bool             `json:"superseded"`
	Generation          int64            `json:"generation"`
}

type MapStateResponse struct {
	RouteLine  []CoordinatesDTO `json:"route_line"`
	Midpoint   *CoordinatesDTO  `json:"midpoint,omitempty"`
	POIMarkers []POIResponse    `json:"poi_markers"`
	Generation int64            `json:"generation"`
}
