package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"meeting-point-service/internal/api/dto"
	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/services"
)

type MeetingHandler struct {
	Planner *services.MeetingPlanner
}

// Resolve runs one full meeting-point resolution: route fetch, equidistant
// search, map session update and POI lookup. Input checking beyond JSON
// shape lives in the planner so the two stay in agreement.
func (h *MeetingHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req dto.MeetingPointRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	svcReq := services.MeetingRequest{
		Mode:     domain.TransportMode(req.Mode),
		POILimit: req.POILimit,
	}
	if req.Start != nil {
		svcReq.Start = &domain.Coordinates{Lon: req.Start.Lon, Lat: req.Start.Lat}
	}
	if req.End != nil {
		svcReq.End = &domain.Coordinates{Lon: req.End.Lon, Lat: req.End.Lat}
	}
	for _, c := range req.Categories {
		svcReq.Categories = append(svcReq.Categories, domain.Category(c))
	}

	res, err := h.Planner.PlanMeetingPoint(r.Context(), svcReq)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrRouteNotFound):
			writeError(w, r, http.StatusNotFound, "no route between start and end")
		case errors.Is(err, services.ErrNoResolvableMidpoint):
			writeError(w, r, http.StatusUnprocessableEntity, "no resolvable midpoint")
		default:
			log.Printf("plan meeting point failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, meetingPointResponse(res))
}

func meetingPointResponse(res *services.MeetingResult) dto.MeetingPointResponse {
	out := dto.MeetingPointResponse{
		Midpoint: dto.MidpointResponse{
			Coordinates:           coordinatesDTO(res.Midpoint.Point),
			SampleIndex:           res.Midpoint.SampleIndex,
			StartDurationSeconds:  res.Midpoint.StartDuration,
			EndDurationSeconds:    res.Midpoint.EndDuration,
			TimeDifferenceSeconds: res.Midpoint.TimeDifference(),
			TotalTimeSeconds:      res.Midpoint.TotalTime(),
		},
		Route: dto.RouteResponse{
			Geometry:        make([]dto.CoordinatesDTO, 0, len(res.Route.Geometry)),
			DurationSeconds: res.Route.DurationSeconds,
		},
		POIs:       make([]dto.POIResponse, 0, len(res.POIs)),
		Superseded: res.Superseded,
		Generation: res.Generation,
	}

	for _, c := range res.Route.Geometry {
		out.Route.Geometry = append(out.Route.Geometry, coordinatesDTO(c))
	}
	for _, p := range res.POIs {
		out.POIs = append(out.POIs, poiResponse(p))
	}
	for _, c := range res.FailedCategories {
		out.FailedPOICategories = append(out.FailedPOICategories, c.String())
	}

	return out
}

func coordinatesDTO(c domain.Coordinates) dto.CoordinatesDTO {
	return dto.CoordinatesDTO{Lon: c.Lon, Lat: c.Lat}
}

func poiResponse(p domain.POI) dto.POIResponse {
	hint := p.Category.Hint()
	return dto.POIResponse{
		Coordinates: coordinatesDTO(p.Point),
		Name:        p.Name,
		Category:    p.Category.String(),
		Address:     p.Address,
		Icon:        hint.Icon,
		Color:       hint.Color,
	}
}
