package domain

import "fmt"

// Transport mode used for every duration query within one resolution.
type TransportMode string

const (
	ModeDriving TransportMode = "driving"
	ModeWalking TransportMode = "walking"
	ModeCycling TransportMode = "cycling"
	ModeTransit TransportMode = "transit"
)

// ParseTransportMode validates a caller-supplied mode string.
func ParseTransportMode(s string) (TransportMode, error) {
	switch TransportMode(s) {
	case ModeDriving, ModeWalking, ModeCycling, ModeTransit:
		return TransportMode(s), nil
	}
	return "", fmt.Errorf("unsupported transport mode: %q", s)
}

func (m TransportMode) String() string { return string(m) }
