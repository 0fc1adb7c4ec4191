package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"transit-mapper/internal/geo"
	"transit-mapper/internal/metrics"
	"transit-mapper/internal/mylogger"
	"transit-mapper/internal/survey-service/core/domain/dto"
	"transit-mapper/internal/survey-service/core/domain/model"
	websocketdto "transit-mapper/internal/survey-service/core/domain/websocket_dto"
	"transit-mapper/internal/survey-service/core/myerrors"
	"transit-mapper/internal/survey-service/core/ports"
)

// LedgerService owns the ordered stop sequence of a trip: append, edit
// with downstream cascade, delete with renumber and full replay. Every
// mutation runs with the trip row locked, so per-trip operations are
// serialized while different trips proceed in parallel.
type LedgerService struct {
	mylog     mylogger.Logger
	tripsRepo ports.ITripsRepo
	counters  ports.ICountersRepo
	speed     ports.ISpeedModel
	feed      ports.ITripFeed
	mtr       *metrics.Collector
}

func NewLedgerService(
	log mylogger.Logger,
	tripsRepo ports.ITripsRepo,
	counters ports.ICountersRepo,
	speed ports.ISpeedModel,
	feed ports.ITripFeed,
	mtr *metrics.Collector,
) ports.ILedgerService {
	return &LedgerService{
		mylog:     log,
		tripsRepo: tripsRepo,
		counters:  counters,
		speed:     speed,
		feed:      feed,
		mtr:       mtr,
	}
}

func (ls *LedgerService) AddStops(ctx context.Context, mapperID, tripID string, req dto.AddStopsRequest) (dto.AddStopsResponseDto, error) {
	log := ls.mylog.Action("AddStops")

	if len(req.Stops) == 0 {
		return dto.AddStopsResponseDto{}, fmt.Errorf("%w: no stops supplied", myerrors.ErrInvalidInput)
	}
	for i, entry := range req.Stops {
		if err := validateStopEntry(entry); err != nil {
			return dto.AddStopsResponseDto{}, fmt.Errorf("stop %d: %w", i+1, err)
		}
	}
	if req.SeedPassengers != nil && *req.SeedPassengers < 0 {
		return dto.AddStopsResponseDto{}, fmt.Errorf("%w: seed passenger count must not be negative", myerrors.ErrInvalidInput)
	}

	// Minting before the ledger transaction: an aborted mutation leaves a
	// gap in the sequence, never a duplicate id.
	ids, err := ls.counters.NextNumbers(ctx, counterStops, stopNumberPrefix, len(req.Stops))
	if err != nil {
		log.Error("cannot mint stop ids", err, "trip_id", tripID)
		return dto.AddStopsResponseDto{}, fmt.Errorf("%w: mint stop ids: %v", myerrors.ErrPersistence, err)
	}

	var created []model.Stop
	trip, _, err := ls.tripsRepo.MutateLedger(ctx, tripID, func(trip *model.Trip, stops []model.Stop) ([]model.Stop, error) {
		if trip.MapperID != mapperID {
			return nil, myerrors.ErrNotTripOwner
		}

		if len(stops) == 0 && req.SeedPassengers != nil {
			trip.TotalPassengerAtFirstStop = *req.SeedPassengers
		}

		firstNew := len(stops)
		replayFrom := firstNew
		now := time.Now().UTC()

		for k, entry := range req.Stops {
			s := model.Stop{
				StopID:        ids[k],
				TripID:        trip.TripID,
				StopNumber:    len(stops) + 1,
				PassengersIn:  intOrZero(entry.PassengersIn),
				PassengersOut: intOrZero(entry.PassengersOut),
				FareAmount:    floatOrZero(entry.FareAmount),
				DwellTimeMin:  floatOrZero(entry.DwellTimeMin),
				Lng:           entry.Coordinates[0],
				Lat:           entry.Coordinates[1],
			}

			if len(stops) == 0 {
				s.ArriveTime = now
			} else {
				prevIdx := len(stops) - 1
				if entry.PreviousStopID != "" {
					// Out-of-order batch insert: chain times off the
					// referenced stop and refresh its departure. Its
					// successors see a new segment, so the replay has
					// to start there too.
					prevIdx = indexOfStop(stops, entry.PreviousStopID)
					if prevIdx < 0 {
						return nil, fmt.Errorf("%w: previous stop %s", myerrors.ErrStopNotFound, entry.PreviousStopID)
					}
					stops[prevIdx].DepartTime = stops[prevIdx].ArriveTime.Add(minutes(stops[prevIdx].DwellTimeMin))
					if prevIdx+1 < replayFrom {
						replayFrom = prevIdx + 1
					}
				}
				prev := stops[prevIdx]
				dist := geo.HaversineKm(prev.Lat, prev.Lng, s.Lat, s.Lng)
				s.ArriveTime = prev.DepartTime.Add(ls.speed.TravelTime(dist))
			}
			s.DepartTime = s.ArriveTime.Add(minutes(s.DwellTimeMin))

			stops = append(stops, s)
		}

		Replay(trip, stops, replayFrom)
		RecomputeAggregates(trip, stops)

		created = cloneStops(stops[firstNew:])
		return stops, nil
	})
	if err != nil {
		return dto.AddStopsResponseDto{}, err
	}

	if ls.mtr != nil {
		ls.mtr.StopsRecorded.Add(float64(len(created)))
	}
	ls.broadcastStop(trip, created[len(created)-1])

	log.Info("stops recorded", "trip_id", trip.TripID, "count", len(created), "total_stops", trip.TotalStops)
	return dto.AddStopsResponseDto{
		Stops: dto.FromStops(created),
		Trip:  dto.FromTrip(trip),
	}, nil
}

func (ls *LedgerService) UpdateStop(ctx context.Context, mapperID, tripID, stopID string, req dto.UpdateStopRequest) (dto.UpdateStopResponseDto, error) {
	log := ls.mylog.Action("UpdateStop")

	if req.Coordinates != nil {
		if err := validateCoordinates(req.Coordinates); err != nil {
			return dto.UpdateStopResponseDto{}, err
		}
	}
	if err := validateNonNegative("passengers_in", req.PassengersIn); err != nil {
		return dto.UpdateStopResponseDto{}, err
	}
	if err := validateNonNegative("passengers_out", req.PassengersOut); err != nil {
		return dto.UpdateStopResponseDto{}, err
	}
	if err := validateNonNegativeFloat("fare_amount", req.FareAmount); err != nil {
		return dto.UpdateStopResponseDto{}, err
	}
	if err := validateNonNegativeFloat("dwell_time", req.DwellTimeMin); err != nil {
		return dto.UpdateStopResponseDto{}, err
	}

	var updated model.Stop
	var cascade int
	trip, _, err := ls.tripsRepo.MutateLedger(ctx, tripID, func(trip *model.Trip, stops []model.Stop) ([]model.Stop, error) {
		if trip.MapperID != mapperID {
			return nil, myerrors.ErrNotTripOwner
		}

		// Field edits stay allowed after completion; only structural
		// changes (deletion) are locked. Observed behavior, kept as-is.

		idx := indexOfStop(stops, stopID)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", myerrors.ErrStopNotFound, stopID)
		}

		if err := applyStopPatch(&stops[idx], req); err != nil {
			return nil, err
		}
		if req.ArriveTime != nil && idx > 0 && stops[idx].ArriveTime.Before(stops[idx-1].DepartTime) {
			return nil, fmt.Errorf("%w: arrive_time before previous stop departure", myerrors.ErrInvalidInput)
		}

		// The central correctness property of the ledger: a mid-sequence
		// edit recomputes every downstream running total.
		cascade = len(stops) - idx
		Replay(trip, stops, idx)
		RecomputeAggregates(trip, stops)

		updated = stops[idx]
		return stops, nil
	})
	if err != nil {
		return dto.UpdateStopResponseDto{}, err
	}

	if ls.mtr != nil {
		ls.mtr.StopsUpdated.Inc()
		ls.mtr.CascadeLength.Observe(float64(cascade))
	}

	log.Info("stop updated", "trip_id", trip.TripID, "stop_id", stopID, "cascaded", cascade)
	return dto.UpdateStopResponseDto{
		Stop: dto.FromStop(updated),
		Trip: dto.FromTrip(trip),
	}, nil
}

func (ls *LedgerService) DeleteStop(ctx context.Context, mapperID, tripID, stopID string) (dto.TripResponseDto, error) {
	log := ls.mylog.Action("DeleteStop")

	var remaining int
	trip, _, err := ls.tripsRepo.MutateLedger(ctx, tripID, func(trip *model.Trip, stops []model.Stop) ([]model.Stop, error) {
		if trip.MapperID != mapperID {
			return nil, myerrors.ErrNotTripOwner
		}
		if trip.Status == model.StatusCompleted {
			return nil, fmt.Errorf("%w: cannot delete a stop of a completed trip", myerrors.ErrInvalidStateTransition)
		}

		idx := indexOfStop(stops, stopID)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", myerrors.ErrStopNotFound, stopID)
		}

		stops = append(stops[:idx], stops[idx+1:]...)

		// Correctness over performance: renumber and replay the whole
		// remaining ledger instead of patching deltas.
		Renumber(stops)
		Replay(trip, stops, 0)
		RecomputeAggregates(trip, stops)

		remaining = len(stops)
		return stops, nil
	})
	if err != nil {
		return dto.TripResponseDto{}, err
	}

	if ls.mtr != nil {
		ls.mtr.StopsDeleted.Inc()
		ls.mtr.CascadeLength.Observe(float64(remaining))
	}

	log.Info("stop deleted", "trip_id", trip.TripID, "stop_id", stopID, "remaining", remaining)
	return dto.FromTrip(trip), nil
}

func (ls *LedgerService) broadcastStop(trip model.Trip, stop model.Stop) {
	if ls.feed == nil {
		return
	}
	data, err := json.Marshal(websocketdto.StopRecordedDto{
		TripID:            trip.TripID,
		StopID:            stop.StopID,
		StopNumber:        stop.StopNumber,
		CurrentPassengers: stop.CurrentPassengers,
		TotalStops:        trip.TotalStops,
		TotalFare:         trip.TotalFareCollection,
	})
	if err != nil {
		return
	}
	ls.feed.Broadcast(trip.TripID, websocketdto.Event{Type: "stop_recorded", Data: data})
}

func validateStopEntry(entry dto.StopEntry) error {
	if err := validateCoordinates(entry.Coordinates); err != nil {
		return err
	}
	if err := validateNonNegative("passengers_in", entry.PassengersIn); err != nil {
		return err
	}
	if err := validateNonNegative("passengers_out", entry.PassengersOut); err != nil {
		return err
	}
	if err := validateNonNegativeFloat("fare_amount", entry.FareAmount); err != nil {
		return err
	}
	return validateNonNegativeFloat("dwell_time", entry.DwellTimeMin)
}

func applyStopPatch(s *model.Stop, req dto.UpdateStopRequest) error {
	if req.Coordinates != nil {
		s.Lng = req.Coordinates[0]
		s.Lat = req.Coordinates[1]
	}
	if req.PassengersIn != nil {
		s.PassengersIn = *req.PassengersIn
	}
	if req.PassengersOut != nil {
		s.PassengersOut = *req.PassengersOut
	}
	if req.FareAmount != nil {
		s.FareAmount = *req.FareAmount
	}

	timesTouched := false
	if req.ArriveTime != nil {
		t, err := time.Parse(time.RFC3339, *req.ArriveTime)
		if err != nil {
			return fmt.Errorf("%w: arrive_time: %v", myerrors.ErrInvalidInput, err)
		}
		s.ArriveTime = t
		timesTouched = true
	}
	if req.DwellTimeMin != nil {
		s.DwellTimeMin = *req.DwellTimeMin
		timesTouched = true
	}
	if req.DepartTime != nil {
		t, err := time.Parse(time.RFC3339, *req.DepartTime)
		if err != nil {
			return fmt.Errorf("%w: depart_time: %v", myerrors.ErrInvalidInput, err)
		}
		s.DepartTime = t
	} else if timesTouched {
		s.DepartTime = s.ArriveTime.Add(minutes(s.DwellTimeMin))
	}

	if s.DepartTime.Before(s.ArriveTime) {
		return fmt.Errorf("%w: depart_time before arrive_time", myerrors.ErrInvalidInput)
	}
	return nil
}
