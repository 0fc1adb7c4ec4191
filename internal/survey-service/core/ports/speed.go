package ports

import "time"

// ISpeedModel converts a straight-line segment distance into travel time
// when the client supplies no GPS timestamps. A known approximation:
// swap the fixed-average implementation for a GPS feed without touching
// the ledger logic.
type ISpeedModel interface {
	TravelTime(distanceKm float64) time.Duration
}
