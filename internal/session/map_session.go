package session

import (
	"sync"

	"go.uber.org/atomic"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/ports"
)

// MapSession owns the single mutable map visual state for this feature: one
// route line, at most one midpoint marker, and the current POI marker set.
// It is the only writer of that state. Draw operations replace the previous
// element of their kind, never append, so observers never see stale visuals
// next to fresh ones.
//
// Overlapping resolutions are serialized by a monotonically increasing
// generation counter: a resolution takes a generation up front and the
// Apply* methods discard mutations carrying a stale generation, so the
// newest request wins regardless of network completion order.
//
// A rendering surface may be attached at any time; until then operations
// update the authoritative state only, and Attach replays it, which covers
// surfaces that finish initializing after the first resolution.
type MapSession struct {
	mu       sync.Mutex
	renderer ports.Renderer
	gen      atomic.Int64

	routeLine []domain.Coordinates
	midpoint  *domain.Coordinates
	pois      []domain.POI
}

func NewMapSession() *MapSession {
	return &MapSession{}
}

// Snapshot is a defensive copy of the visual state for observers.
type Snapshot struct {
	RouteLine  []domain.Coordinates
	Midpoint   *domain.Coordinates
	POIMarkers []domain.POI
	Generation int64
}

// NewGeneration allocates the generation token for one resolution attempt.
func (s *MapSession) NewGeneration() int64 {
	return s.gen.Inc()
}

// Attach binds the rendering surface and replays the current state onto it.
func (s *MapSession) Attach(r ports.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.renderer = r
	if r == nil {
		return
	}

	r.RemoveRouteLine()
	r.RemoveMidpointMarker()
	r.RemovePOIMarkers()
	if s.routeLine != nil {
		r.DrawRouteLine(s.routeLine)
	}
	if s.midpoint != nil {
		r.PlaceMidpointMarker(*s.midpoint)
	}
	if len(s.pois) > 0 {
		r.PlacePOIMarkers(s.pois)
	}
}

// Clear removes the route line, midpoint marker and POI markers. Calling it
// with nothing drawn is a no-op, not an error.
func (s *MapSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// DrawRoute replaces the route line only; other layers are untouched.
func (s *MapSession) DrawRoute(coords []domain.Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawRouteLocked(coords)
}

// SetMidpointMarker replaces the midpoint marker.
func (s *MapSession) SetMidpointMarker(point domain.Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMidpointLocked(point)
}

// SetPOIMarkers replaces the POI marker set.
func (s *MapSession) SetPOIMarkers(pois []domain.POI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPOIsLocked(pois)
}

// ApplyResolution atomically replaces all prior visuals with the given route
// line and midpoint marker, provided gen is still current. It reports
// whether the mutation was applied; a false return means a newer resolution
// superseded this one and nothing changed.
func (s *MapSession) ApplyResolution(gen int64, routeLine []domain.Coordinates, midpoint domain.Coordinates) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen.Load() {
		return false
	}

	s.clearLocked()
	s.drawRouteLocked(routeLine)
	s.setMidpointLocked(midpoint)
	return true
}

// ApplyPOIMarkers installs POI markers for the resolution identified by gen,
// discarding them when a newer resolution has taken over.
func (s *MapSession) ApplyPOIMarkers(gen int64, pois []domain.POI) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen.Load() {
		return false
	}

	s.setPOIsLocked(pois)
	return true
}

// Snapshot returns a copy of the current visual state.
func (s *MapSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Generation: s.gen.Load()}
	if s.routeLine != nil {
		snap.RouteLine = append([]domain.Coordinates(nil), s.routeLine...)
	}
	if s.midpoint != nil {
		m := *s.midpoint
		snap.Midpoint = &m
	}
	if s.pois != nil {
		snap.POIMarkers = append([]domain.POI(nil), s.pois...)
	}
	return snap
}

func (s *MapSession) clearLocked() {
	if s.routeLine != nil {
		s.routeLine = nil
		if s.renderer != nil {
			s.renderer.RemoveRouteLine()
		}
	}
	if s.midpoint != nil {
		s.midpoint = nil
		if s.renderer != nil {
			s.renderer.RemoveMidpointMarker()
		}
	}
	if s.pois != nil {
		s.pois = nil
		if s.renderer != nil {
			s.renderer.RemovePOIMarkers()
		}
	}
}

func (s *MapSession) drawRouteLocked(coords []domain.Coordinates) {
	if s.routeLine != nil && s.renderer != nil {
		s.renderer.RemoveRouteLine()
	}
	s.routeLine = append([]domain.Coordinates(nil), coords...)
	if s.renderer != nil {
		s.renderer.DrawRouteLine(s.routeLine)
	}
}

func (s *MapSession) setMidpointLocked(point domain.Coordinates) {
	if s.midpoint != nil && s.renderer != nil {
		s.renderer.RemoveMidpointMarker()
	}
	s.midpoint = &point
	if s.renderer != nil {
		s.renderer.PlaceMidpointMarker(point)
	}
}

func (s *MapSession) setPOIsLocked(pois []domain.POI) {
	if s.pois != nil && s.renderer != nil {
		s.renderer.RemovePOIMarkers()
	}
	s.pois = append([]domain.POI(nil), pois...)
	if len(s.pois) > 0 && s.renderer != nil {
		s.renderer.PlacePOIMarkers(s.pois)
	}
}
