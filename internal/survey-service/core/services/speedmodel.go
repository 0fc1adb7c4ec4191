package services

import (
	"time"

	"transit-mapper/internal/survey-service/core/ports"
)

const DefaultSpeedKmh = 20

// FixedSpeedModel assumes one constant average speed for every segment.
// A deliberate simplification in lieu of live GPS timestamps: stop
// arrival times synthesized from it are approximations, not measurements.
type FixedSpeedModel struct {
	SpeedKmh float64
}

func NewFixedSpeedModel(speedKmh float64) ports.ISpeedModel {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return &FixedSpeedModel{SpeedKmh: speedKmh}
}

func (m *FixedSpeedModel) TravelTime(distanceKm float64) time.Duration {
	if distanceKm <= 0 {
		return 0
	}
	hours := distanceKm / m.SpeedKmh
	return time.Duration(hours * float64(time.Hour))
}
