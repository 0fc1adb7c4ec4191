package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"transit-mapper/internal/mylogger"
	"transit-mapper/internal/survey-service/core/domain/dto"
	"transit-mapper/internal/survey-service/core/domain/model"
	"transit-mapper/internal/survey-service/core/myerrors"
	"transit-mapper/internal/survey-service/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapper = "mapper-1"

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func testLogger(t *testing.T) mylogger.Logger {
	t.Helper()
	log, err := mylogger.New("ERROR")
	require.NoError(t, err)
	return log
}

func newLedgerFixture(t *testing.T) (*fakeTripsRepo, ports.ILedgerService) {
	t.Helper()
	repo := newFakeTripsRepo()
	ls := NewLedgerService(testLogger(t), repo, newFakeCounters(), NewFixedSpeedModel(20), nil, nil)
	return repo, ls
}

func seedTrip(repo *fakeTripsRepo, status string) model.Trip {
	return repo.put(model.Trip{
		TripNumber: "T20250601_001",
		MapperID:   testMapper,
		RouteID:    "route-1",
		Status:     status,
		TripStops:  []string{},
		CreatedAt:  time.Now().UTC(),
	}, nil)
}

func entry(lng, lat float64, in, out int, fare float64) dto.StopEntry {
	return dto.StopEntry{
		Coordinates:   []float64{lng, lat},
		PassengersIn:  intPtr(in),
		PassengersOut: intPtr(out),
		FareAmount:    floatPtr(fare),
		DwellTimeMin:  floatPtr(1),
	}
}

func TestAddStops_AppendsAndAggregates(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	res, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{
			entry(-7.6116, 33.5898, 10, 0, 2),
			entry(-7.6180, 33.5950, 5, 8, 2),
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Stops, 2)
	assert.Equal(t, "S20250601_001", res.Stops[0].StopID)
	assert.Equal(t, "S20250601_002", res.Stops[1].StopID)
	assert.Equal(t, 1, res.Stops[0].StopNumber)
	assert.Equal(t, 2, res.Stops[1].StopNumber)
	assert.Equal(t, 10, res.Stops[0].CurrentPassengers)
	assert.Equal(t, 7, res.Stops[1].CurrentPassengers)

	assert.Equal(t, 2, res.Trip.TotalStops)
	assert.Equal(t, 15, res.Trip.TotalPassengersPickedUp)
	assert.Equal(t, 8, res.Trip.TotalPassengersDroppedOff)
	assert.Equal(t, 7, res.Trip.FinalPassengerCount)
	assert.InDelta(t, 30.0, res.Trip.TotalFareCollection, 1e-9)
	assert.Equal(t, []string{"S20250601_001", "S20250601_002"}, res.Trip.TripStops)
}

func TestAddStops_SynthesizesTimesFromSpeedModel(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	res, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{
			entry(-7.6116, 33.5898, 2, 0, 0),
			entry(-7.6116, 33.5998, 1, 0, 0), // ~1.11 km north
		},
	})
	require.NoError(t, err)

	first, err0 := time.Parse(time.RFC3339, res.Stops[0].DepartTime)
	require.NoError(t, err0)
	second, err1 := time.Parse(time.RFC3339, res.Stops[1].ArriveTime)
	require.NoError(t, err1)

	// ~1.11 km at 20 km/h is a bit over three minutes.
	gap := second.Sub(first)
	assert.Greater(t, gap, 2*time.Minute)
	assert.Less(t, gap, 5*time.Minute)
}

func TestAddStops_SeedOnEmptyLedger(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	res, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops:          []dto.StopEntry{entry(-7.61, 33.58, 4, 2, 0)},
		SeedPassengers: intPtr(6),
	})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Trip.TotalPassengerAtFirstStop)
	assert.Equal(t, 8, res.Stops[0].CurrentPassengers)
}

func TestAddStops_SeedIgnoredOnNonEmptyLedger(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	_, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{entry(-7.61, 33.58, 1, 0, 0)},
	})
	require.NoError(t, err)

	res, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops:          []dto.StopEntry{entry(-7.62, 33.59, 1, 0, 0)},
		SeedPassengers: intPtr(50),
	})
	require.NoError(t, err)

	assert.Zero(t, res.Trip.TotalPassengerAtFirstStop)
}

func TestAddStops_Validation(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	tests := []struct {
		name string
		req  dto.AddStopsRequest
	}{
		{"no stops", dto.AddStopsRequest{}},
		{"missing coordinates", dto.AddStopsRequest{Stops: []dto.StopEntry{{PassengersIn: intPtr(1)}}}},
		{"latitude out of range", dto.AddStopsRequest{Stops: []dto.StopEntry{entry(-7.61, 95, 1, 0, 0)}}},
		{"negative passengers_in", dto.AddStopsRequest{Stops: []dto.StopEntry{entry(-7.61, 33.58, -1, 0, 0)}}},
		{"negative fare", dto.AddStopsRequest{Stops: []dto.StopEntry{entry(-7.61, 33.58, 1, 0, -2)}}},
		{"negative seed", dto.AddStopsRequest{Stops: []dto.StopEntry{entry(-7.61, 33.58, 1, 0, 0)}, SeedPassengers: intPtr(-1)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ls.AddStops(context.Background(), testMapper, trip.TripID, tc.req)
			assert.ErrorIs(t, err, myerrors.ErrInvalidInput)
		})
	}
}

func TestAddStops_ConcurrentMintsDistinctIDs(t *testing.T) {
	repo, ls := newLedgerFixture(t)

	const n = 32
	tripIDs := make([]string, n)
	for i := range tripIDs {
		tripIDs[i] = repo.put(model.Trip{
			MapperID:  testMapper,
			Status:    model.StatusInProgress,
			TripStops: []string{},
		}, nil).TripID
	}

	var wg sync.WaitGroup
	idCh := make(chan string, n)
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(tripID string) {
			defer wg.Done()
			res, err := ls.AddStops(context.Background(), testMapper, tripID, dto.AddStopsRequest{
				Stops: []dto.StopEntry{entry(-7.61, 33.58, 1, 0, 0)},
			})
			if err != nil {
				errCh <- err
				return
			}
			idCh <- res.Stops[0].StopID
		}(tripIDs[i])
	}
	wg.Wait()
	close(idCh)
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	seen := make(map[string]bool, n)
	for id := range idCh {
		assert.False(t, seen[id], "stop id %s minted twice", id)
		seen[id] = true
	}
	require.Len(t, seen, n)
}

func TestAddStops_PreviousStopRefreshReplaysSuccessors(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	added, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{
			entry(-7.61, 33.58, 5, 0, 0),
			entry(-7.61, 33.68, 0, 2, 0), // ~11 km north, ~33 min at 20 km/h
		},
	})
	require.NoError(t, err)
	first := added.Stops[0]

	arrive, err := time.Parse(time.RFC3339, first.ArriveTime)
	require.NoError(t, err)

	// Stall the first stop for an hour; the second stop's segment
	// collapses to the zero clamp.
	_, err = ls.UpdateStop(context.Background(), testMapper, trip.TripID, first.StopID, dto.UpdateStopRequest{
		DepartTime: strPtr(arrive.Add(time.Hour).Format(time.RFC3339)),
	})
	require.NoError(t, err)

	_, stops, err := repo.GetTripWithStops(context.Background(), trip.TripID)
	require.NoError(t, err)
	require.InDelta(t, 0, stops[1].CumTravelTimeMin, 1e-9)

	// Chaining a new stop off the first one restores its departure;
	// the second stop's running totals must follow.
	_, err = ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{{
			Coordinates:    []float64{-7.61, 33.60},
			PassengersIn:   intPtr(1),
			PassengersOut:  intPtr(0),
			FareAmount:     floatPtr(0),
			DwellTimeMin:   floatPtr(1),
			PreviousStopID: first.StopID,
		}},
	})
	require.NoError(t, err)

	_, stops, err = repo.GetTripWithStops(context.Background(), trip.TripID)
	require.NoError(t, err)
	require.Len(t, stops, 3)
	assert.Greater(t, stops[1].CumTravelTimeMin, 30.0)
	assert.Greater(t, stops[1].SpeedKmh, 0.0)
}

func TestAddStops_OwnershipAndExistence(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)
	req := dto.AddStopsRequest{Stops: []dto.StopEntry{entry(-7.61, 33.58, 1, 0, 0)}}

	_, err := ls.AddStops(context.Background(), "someone-else", trip.TripID, req)
	assert.ErrorIs(t, err, myerrors.ErrNotTripOwner)

	_, err = ls.AddStops(context.Background(), testMapper, "missing-trip", req)
	assert.ErrorIs(t, err, myerrors.ErrTripNotFound)
}

func TestUpdateStop_CascadesDownstream(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	added, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{
			entry(-7.61, 33.58, 10, 0, 0),
			entry(-7.62, 33.59, 5, 0, 0),
			entry(-7.63, 33.60, 0, 7, 0),
		},
	})
	require.NoError(t, err)
	require.Equal(t, 8, added.Trip.FinalPassengerCount)

	res, err := ls.UpdateStop(context.Background(), testMapper, trip.TripID, added.Stops[1].StopID, dto.UpdateStopRequest{
		PassengersIn: intPtr(2),
	})
	require.NoError(t, err)

	assert.Equal(t, 12, res.Stop.CurrentPassengers)
	assert.Equal(t, 5, res.Trip.FinalPassengerCount)
	assert.Equal(t, 12, res.Trip.TotalPassengersPickedUp)
}

func TestUpdateStop_AllowedOnCompletedTrip(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	added, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{entry(-7.61, 33.58, 3, 0, 0)},
	})
	require.NoError(t, err)

	stored, _ := repo.GetTrip(context.Background(), trip.TripID)
	stored.Status = model.StatusCompleted
	repo.put(stored, repo.stops[trip.TripID])

	res, err := ls.UpdateStop(context.Background(), testMapper, trip.TripID, added.Stops[0].StopID, dto.UpdateStopRequest{
		PassengersIn: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Stop.PassengersIn)
}

func TestUpdateStop_InvalidTimes(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	added, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{entry(-7.61, 33.58, 3, 0, 0)},
	})
	require.NoError(t, err)
	stopID := added.Stops[0].StopID

	_, err = ls.UpdateStop(context.Background(), testMapper, trip.TripID, stopID, dto.UpdateStopRequest{
		ArriveTime: strPtr("yesterday"),
	})
	assert.ErrorIs(t, err, myerrors.ErrInvalidInput)

	_, err = ls.UpdateStop(context.Background(), testMapper, trip.TripID, stopID, dto.UpdateStopRequest{
		ArriveTime: strPtr("2025-06-01T09:00:00Z"),
		DepartTime: strPtr("2025-06-01T08:00:00Z"),
	})
	assert.ErrorIs(t, err, myerrors.ErrInvalidInput)
}

func TestUpdateStop_ArriveBeforePreviousDeparture(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	added, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{
			entry(-7.61, 33.58, 3, 0, 0),
			entry(-7.62, 33.59, 1, 0, 0),
		},
	})
	require.NoError(t, err)

	// An arrival predating the previous stop's departure breaks the
	// ledger's time ordering and is rejected, not clamped.
	_, err = ls.UpdateStop(context.Background(), testMapper, trip.TripID, added.Stops[1].StopID, dto.UpdateStopRequest{
		ArriveTime: strPtr("2000-01-01T00:00:00Z"),
	})
	assert.ErrorIs(t, err, myerrors.ErrInvalidInput)
}

func TestUpdateStop_UnknownStop(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	_, err := ls.UpdateStop(context.Background(), testMapper, trip.TripID, "S20250601_999", dto.UpdateStopRequest{
		PassengersIn: intPtr(1),
	})
	assert.ErrorIs(t, err, myerrors.ErrStopNotFound)
}

func TestDeleteStop_RenumbersAndReplays(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	added, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{
			entry(-7.61, 33.58, 10, 0, 1),
			entry(-7.62, 33.59, 5, 2, 1),
			entry(-7.63, 33.60, 0, 7, 1),
		},
	})
	require.NoError(t, err)

	res, err := ls.DeleteStop(context.Background(), testMapper, trip.TripID, added.Stops[1].StopID)
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalStops)
	assert.Equal(t, 10, res.TotalPassengersPickedUp)
	assert.Equal(t, 3, res.FinalPassengerCount)

	_, stops, err := repo.GetTripWithStops(context.Background(), trip.TripID)
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, 1, stops[0].StopNumber)
	assert.Equal(t, 2, stops[1].StopNumber)
}

func TestDeleteStop_ForbiddenOnCompletedTrip(t *testing.T) {
	repo, ls := newLedgerFixture(t)
	trip := seedTrip(repo, model.StatusInProgress)

	added, err := ls.AddStops(context.Background(), testMapper, trip.TripID, dto.AddStopsRequest{
		Stops: []dto.StopEntry{entry(-7.61, 33.58, 3, 0, 0)},
	})
	require.NoError(t, err)

	stored, _ := repo.GetTrip(context.Background(), trip.TripID)
	stored.Status = model.StatusCompleted
	repo.put(stored, repo.stops[trip.TripID])

	_, err = ls.DeleteStop(context.Background(), testMapper, trip.TripID, added.Stops[0].StopID)
	assert.ErrorIs(t, err, myerrors.ErrInvalidStateTransition)
}
