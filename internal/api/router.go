package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"meeting-point-service/internal/api/handlers"
	"meeting-point-service/internal/platform/metrics"
	"meeting-point-service/internal/services"
	"meeting-point-service/internal/session"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(planner *services.MeetingPlanner, mapSession *session.MapSession) http.Handler {
	r := mux.NewRouter()

	meetingHandler := &handlers.MeetingHandler{Planner: planner}
	mapHandler := &handlers.MapHandler{Session: mapSession}

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.HandleFunc("/meeting-point", meetingHandler.Resolve).Methods(http.MethodPost)
	r.HandleFunc("/map", mapHandler.State).Methods(http.MethodGet)
	r.HandleFunc("/map", mapHandler.Clear).Methods(http.MethodDelete)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	return loggingMiddleware(r)
}
