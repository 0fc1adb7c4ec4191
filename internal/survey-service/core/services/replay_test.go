package services

import (
	"testing"
	"time"

	"transit-mapper/internal/survey-service/core/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledgerStop(in, out int, fare, lat, lng float64) model.Stop {
	return model.Stop{
		PassengersIn:  in,
		PassengersOut: out,
		FareAmount:    fare,
		Lat:           lat,
		Lng:           lng,
	}
}

func timedLedger(stops []model.Stop, start time.Time, gapMin, dwellMin float64) {
	arrive := start
	for i := range stops {
		if i > 0 {
			arrive = stops[i-1].DepartTime.Add(time.Duration(gapMin * float64(time.Minute)))
		}
		stops[i].ArriveTime = arrive
		stops[i].DwellTimeMin = dwellMin
		stops[i].DepartTime = arrive.Add(time.Duration(dwellMin * float64(time.Minute)))
	}
}

func TestReplay_RunningLoad(t *testing.T) {
	trip := model.Trip{TotalPassengerAtFirstStop: 0}
	stops := []model.Stop{
		ledgerStop(10, 0, 0, 33.5898, -7.6116),
		ledgerStop(5, 8, 0, 33.5950, -7.6180),
	}
	timedLedger(stops, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 4, 1)

	Replay(&trip, stops, 0)

	assert.Equal(t, 10, stops[0].CurrentPassengers)
	assert.Equal(t, 7, stops[1].CurrentPassengers)
	assert.Equal(t, 10, stops[0].CumPassengers)
	assert.Equal(t, 15, stops[1].CumPassengers)
}

func TestReplay_LoadNeverNegative(t *testing.T) {
	trip := model.Trip{}
	stops := []model.Stop{
		ledgerStop(2, 0, 0, 33.58, -7.61),
		ledgerStop(0, 9, 0, 33.59, -7.62),
		ledgerStop(3, 0, 0, 33.60, -7.63),
	}
	timedLedger(stops, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 3, 0.5)

	Replay(&trip, stops, 0)

	assert.Equal(t, 0, stops[1].CurrentPassengers)
	// Recovery restarts from the clamped value, not the raw arithmetic.
	assert.Equal(t, 3, stops[2].CurrentPassengers)
}

func TestReplay_SeedPassengers(t *testing.T) {
	trip := model.Trip{TotalPassengerAtFirstStop: 6}
	stops := []model.Stop{
		ledgerStop(4, 2, 0, 33.58, -7.61),
	}
	timedLedger(stops, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 0, 1)

	Replay(&trip, stops, 0)

	assert.Equal(t, 8, stops[0].CurrentPassengers)
}

func TestReplay_MidSequenceEditCascades(t *testing.T) {
	trip := model.Trip{}
	stops := []model.Stop{
		ledgerStop(10, 0, 0, 33.58, -7.61),
		ledgerStop(5, 0, 0, 33.59, -7.62),
		ledgerStop(0, 7, 0, 33.60, -7.63),
	}
	timedLedger(stops, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 4, 1)
	Replay(&trip, stops, 0)
	require.Equal(t, 8, stops[2].CurrentPassengers)

	// Edit the middle stop and replay only from there.
	stops[1].PassengersIn = 2
	Replay(&trip, stops, 1)

	assert.Equal(t, 10, stops[0].CurrentPassengers)
	assert.Equal(t, 12, stops[1].CurrentPassengers)
	assert.Equal(t, 5, stops[2].CurrentPassengers)
	assert.Equal(t, 12, stops[2].CumPassengers)
}

func TestReplay_Revenue(t *testing.T) {
	trip := model.Trip{}
	stops := []model.Stop{
		ledgerStop(3, 0, 2.0, 33.58, -7.61),
		ledgerStop(4, 1, 3.0, 33.59, -7.62),
	}
	timedLedger(stops, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 4, 1)

	Replay(&trip, stops, 0)

	// Revenue counts boarding passengers only.
	assert.InDelta(t, 6.0, stops[0].CumRevenue, 1e-9)
	assert.InDelta(t, 18.0, stops[1].CumRevenue, 1e-9)
}

func TestReplay_TravelTimeAndSpeed(t *testing.T) {
	trip := model.Trip{}
	stops := []model.Stop{
		ledgerStop(1, 0, 0, 33.5898, -7.6116),
		ledgerStop(1, 0, 0, 33.5998, -7.6116), // ~1.11 km due north
	}
	timedLedger(stops, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 6, 0)

	Replay(&trip, stops, 0)

	assert.InDelta(t, 6.0, stops[1].CumTravelTimeMin, 1e-9)
	assert.InDelta(t, 1.11, stops[1].CumDistanceKm, 0.02)
	// ~1.11 km in 6 min is ~11.1 km/h.
	assert.InDelta(t, 11.1, stops[1].SpeedKmh, 0.3)
	assert.Zero(t, stops[0].SpeedKmh)
}

func TestRenumber(t *testing.T) {
	stops := []model.Stop{
		{StopNumber: 1},
		{StopNumber: 3},
		{StopNumber: 7},
	}

	Renumber(stops)

	for i, s := range stops {
		assert.Equal(t, i+1, s.StopNumber)
	}
}

func TestRecomputeAggregates(t *testing.T) {
	trip := model.Trip{TotalPassengerAtFirstStop: 2}
	stops := []model.Stop{
		ledgerStop(10, 0, 1.5, 33.58, -7.61),
		ledgerStop(5, 8, 2.0, 33.59, -7.62),
	}
	stops[0].StopID, stops[1].StopID = "S20250601_001", "S20250601_002"
	timedLedger(stops, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 4, 1)
	Replay(&trip, stops, 0)

	RecomputeAggregates(&trip, stops)

	assert.Equal(t, 2, trip.TotalStops)
	assert.Equal(t, 2, trip.CurrentStop)
	assert.Equal(t, 15, trip.TotalPassengersPickedUp)
	assert.Equal(t, 8, trip.TotalPassengersDroppedOff)
	assert.InDelta(t, 25.0, trip.TotalFareCollection, 1e-9)
	assert.Equal(t, stops[1].CurrentPassengers, trip.FinalPassengerCount)
	assert.Equal(t, []string{"S20250601_001", "S20250601_002"}, trip.TripStops)
	require.NotNil(t, trip.StartCoordinates)
	require.NotNil(t, trip.EndCoordinates)
	assert.Equal(t, 33.58, trip.StartCoordinates.Lat)
	assert.Equal(t, 33.59, trip.EndCoordinates.Lat)
}

func TestRecomputeAggregates_EmptyLedger(t *testing.T) {
	trip := model.Trip{TotalPassengerAtFirstStop: 4, TripStops: []string{"S1"}}

	RecomputeAggregates(&trip, nil)

	assert.Zero(t, trip.TotalStops)
	assert.Equal(t, 4, trip.FinalPassengerCount)
	assert.Empty(t, trip.TripStops)
	assert.Nil(t, trip.StartCoordinates)
	assert.Nil(t, trip.EndCoordinates)
}
