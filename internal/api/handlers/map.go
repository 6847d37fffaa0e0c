package handlers

import (
	"net/http"

	"meeting-point-service/internal/api/dto"
	"meeting-point-service/internal/session"
)

// MapHandler exposes the current map visual state to the presentation layer.
type MapHandler struct {
	Session *session.MapSession
}

// State returns the visuals of the most recent successful resolution.
func (h *MapHandler) State(w http.ResponseWriter, r *http.Request) {
	snap := h.Session.Snapshot()

	res := dto.MapStateResponse{
		RouteLine:  make([]dto.CoordinatesDTO, 0, len(snap.RouteLine)),
		POIMarkers: make([]dto.POIResponse, 0, len(snap.POIMarkers)),
		Generation: snap.Generation,
	}
	for _, c := range snap.RouteLine {
		res.RouteLine = append(res.RouteLine, coordinatesDTO(c))
	}
	if snap.Midpoint != nil {
		mid := coordinatesDTO(*snap.Midpoint)
		res.Midpoint = &mid
	}
	for _, p := range snap.POIMarkers {
		res.POIMarkers = append(res.POIMarkers, poiResponse(p))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Clear wipes the route line, midpoint marker and POI markers. Clearing an
// already empty map succeeds.
func (h *MapHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.Session.Clear()
	w.WriteHeader(http.StatusNoContent)
}
