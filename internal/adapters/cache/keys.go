package cache

import (
	"strconv"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/ports"
)

// pairKey renders a directed origin->destination pair as a stable cache key.
// Coordinates use the shortest round-trip float formatting, so two pairs
// share a key exactly when their coordinate bits match.
func pairKey(p ports.TravelPair) string {
	return coordKey(p.From) + ">" + coordKey(p.To)
}

func coordKey(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}
