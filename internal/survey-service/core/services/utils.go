package services

import (
	"fmt"
	"time"

	"transit-mapper/internal/geo"
	"transit-mapper/internal/survey-service/core/domain/model"
	"transit-mapper/internal/survey-service/core/myerrors"
)

const (
	counterTrips = "trips"
	counterStops = "stops"

	tripNumberPrefix = "T"
	stopNumberPrefix = "S"
)

func indexOfStop(stops []model.Stop, stopID string) int {
	for i := range stops {
		if stops[i].StopID == stopID {
			return i
		}
	}
	return -1
}

func cloneStops(stops []model.Stop) []model.Stop {
	out := make([]model.Stop, len(stops))
	copy(out, stops)
	return out
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "; " + note
}

func validateCoordinates(coords []float64) error {
	if len(coords) != 2 {
		return fmt.Errorf("%w: coordinates must be a [lng, lat] pair", myerrors.ErrInvalidInput)
	}
	if !geo.ValidLatLng(coords[1], coords[0]) {
		return fmt.Errorf("%w: coordinates [%v, %v] out of range", myerrors.ErrInvalidInput, coords[0], coords[1])
	}
	return nil
}

func validateNonNegative(name string, v *int) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%w: %s must not be negative", myerrors.ErrInvalidInput, name)
	}
	return nil
}

func validateNonNegativeFloat(name string, v *float64) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%w: %s must not be negative", myerrors.ErrInvalidInput, name)
	}
	return nil
}
