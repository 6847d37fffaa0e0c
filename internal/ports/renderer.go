package ports

import "meeting-point-service/internal/domain"

// Renderer is the boundary to the actual map drawing surface owned by the
// presentation layer. Implementations operate purely on local rendering
// state and must tolerate removals of elements that were never drawn.
type Renderer interface {
	DrawRouteLine(coords []domain.Coordinates)
	RemoveRouteLine()
	PlaceMidpointMarker(point domain.Coordinates)
	RemoveMidpointMarker()
	PlacePOIMarkers(pois []domain.POI)
	RemovePOIMarkers()
}
