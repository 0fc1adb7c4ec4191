package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"transit-mapper/internal/geo"
	"transit-mapper/internal/metrics"
	"transit-mapper/internal/mylogger"
	"transit-mapper/internal/survey-service/core/domain/dto"
	"transit-mapper/internal/survey-service/core/domain/event"
	"transit-mapper/internal/survey-service/core/domain/model"
	"transit-mapper/internal/survey-service/core/myerrors"
	"transit-mapper/internal/survey-service/core/ports"
)

// SplitService reconstructs self-consistent trips out of an existing
// one: Duplicate produces one copy with overrides, Split partitions a
// ledger into two trips around a shared boundary stop. Both run as a
// single all-or-nothing transaction over the source trip and every new
// document.
type SplitService struct {
	mylog     mylogger.Logger
	tripsRepo ports.ITripsRepo
	counters  ports.ICountersRepo
	speed     ports.ISpeedModel
	broker    ports.ITripEventsBroker
	mtr       *metrics.Collector
}

func NewSplitService(
	log mylogger.Logger,
	tripsRepo ports.ITripsRepo,
	counters ports.ICountersRepo,
	speed ports.ISpeedModel,
	broker ports.ITripEventsBroker,
	mtr *metrics.Collector,
) ports.ISplitService {
	return &SplitService{
		mylog:     log,
		tripsRepo: tripsRepo,
		counters:  counters,
		speed:     speed,
		broker:    broker,
		mtr:       mtr,
	}
}

func (ss *SplitService) SplitTrip(ctx context.Context, mapperID, tripID string, req dto.SplitTripRequestDto) (dto.SplitTripResponseDto, error) {
	log := ss.mylog.Action("SplitTrip")

	if req.SplitStopID == "" {
		return dto.SplitTripResponseDto{}, fmt.Errorf("%w: split_stop_id is required", myerrors.ErrInvalidInput)
	}

	src, succTrips, succStops, err := ss.tripsRepo.TransformTrip(ctx, tripID, func(src *model.Trip, stops []model.Stop) ([]model.Trip, [][]model.Stop, error) {
		if src.MapperID != mapperID {
			return nil, nil, myerrors.ErrNotTripOwner
		}
		if src.Invalidated {
			return nil, nil, fmt.Errorf("%w: trip %s is already invalidated", myerrors.ErrInvalidOperation, src.TripNumber)
		}
		if len(stops) < 2 {
			return nil, nil, fmt.Errorf("%w: ledger too short to split", myerrors.ErrInvalidOperation)
		}

		idx := indexOfStop(stops, req.SplitStopID)
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: %s", myerrors.ErrStopNotFound, req.SplitStopID)
		}
		// A split must produce two non-trivial trips.
		if idx == 0 || idx == len(stops)-1 {
			return nil, nil, fmt.Errorf("%w: split point must be an interior stop", myerrors.ErrInvalidOperation)
		}

		numbers, err := ss.counters.NextNumbers(ctx, counterTrips, tripNumberPrefix, 2)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: mint trip numbers: %v", myerrors.ErrPersistence, err)
		}
		// The boundary stop lives in both successors, hence len+1 ids.
		stopIDs, err := ss.counters.NextNumbers(ctx, counterStops, stopNumberPrefix, len(stops)+1)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: mint stop ids: %v", myerrors.ErrPersistence, err)
		}

		first := cloneTripShell(*src, numbers[0])
		second := cloneTripShell(*src, numbers[1])

		ledgerA := cloneStops(stops[:idx+1])
		ledgerB := cloneStops(stops[idx:])
		for i := range ledgerA {
			ledgerA[i].StopID = stopIDs[i]
			ledgerA[i].TripID = ""
		}
		for i := range ledgerB {
			ledgerB[i].StopID = stopIDs[len(ledgerA)+i]
			ledgerB[i].TripID = ""
		}

		first.TotalPassengerAtFirstStop = src.TotalPassengerAtFirstStop
		Renumber(ledgerA)
		Replay(&first, ledgerA, 0)
		RecomputeAggregates(&first, ledgerA)
		setTripTimesFromLedger(&first, ledgerA)

		// The shared boundary stop opens trip B: its boarding was already
		// counted in trip A, its alighting was not.
		ledgerB[0].PassengersIn = 0
		second.TotalPassengerAtFirstStop = ledgerA[len(ledgerA)-1].CurrentPassengers
		Renumber(ledgerB)
		Replay(&second, ledgerB, 0)
		RecomputeAggregates(&second, ledgerB)
		setTripTimesFromLedger(&second, ledgerB)

		src.Invalidated = true
		src.Notes = appendNote(src.Notes, fmt.Sprintf("split into %s and %s", numbers[0], numbers[1]))

		return []model.Trip{first, second}, [][]model.Stop{ledgerA, ledgerB}, nil
	})
	if err != nil {
		return dto.SplitTripResponseDto{}, err
	}

	if ss.mtr != nil {
		ss.mtr.TripsSplit.Inc()
	}
	ss.publishEvent(ctx, event.TypeTripSplit, src, []string{succTrips[0].TripNumber, succTrips[1].TripNumber})

	log.Info("trip split",
		"source_trip", src.TripNumber,
		"first_trip", succTrips[0].TripNumber, "first_stops", len(succStops[0]),
		"second_trip", succTrips[1].TripNumber, "second_stops", len(succStops[1]),
	)
	return dto.SplitTripResponseDto{
		SourceTripNumber: src.TripNumber,
		First: dto.TripWithStopsResponseDto{
			Trip:  dto.FromTrip(succTrips[0]),
			Stops: dto.FromStops(succStops[0]),
		},
		Second: dto.TripWithStopsResponseDto{
			Trip:  dto.FromTrip(succTrips[1]),
			Stops: dto.FromStops(succStops[1]),
		},
	}, nil
}

func (ss *SplitService) DuplicateTrip(ctx context.Context, mapperID, tripID string, req dto.DuplicateTripRequestDto) (dto.DuplicateTripResponseDto, error) {
	log := ss.mylog.Action("DuplicateTrip")

	for i, entry := range req.Stops {
		if err := validateCoordinates(entry.Coordinates); err != nil {
			return dto.DuplicateTripResponseDto{}, fmt.Errorf("stop %d: %w", i+1, err)
		}
	}

	src, succTrips, succStops, err := ss.tripsRepo.TransformTrip(ctx, tripID, func(src *model.Trip, stops []model.Stop) ([]model.Trip, [][]model.Stop, error) {
		if src.MapperID != mapperID {
			return nil, nil, myerrors.ErrNotTripOwner
		}
		if len(req.Stops) == 0 && len(stops) == 0 {
			return nil, nil, fmt.Errorf("%w: source ledger is empty and no replacement stops supplied", myerrors.ErrInvalidOperation)
		}

		numbers, err := ss.counters.NextNumbers(ctx, counterTrips, tripNumberPrefix, 1)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: mint trip number: %v", myerrors.ErrPersistence, err)
		}

		dup := cloneTripShell(*src, numbers[0])
		// A duplicate always starts over, whatever the source's state was.
		dup.Status = model.StatusNew
		dup.StartTime = nil
		dup.EndTime = nil
		dup.ActualDurationSec = 0
		dup.LicensePlate = ""
		dup.Uploaded = false
		if req.RouteID != nil {
			dup.RouteID = *req.RouteID
		}
		dup.TotalPassengerAtFirstStop = src.TotalPassengerAtFirstStop
		if req.StartingLoad != nil {
			dup.TotalPassengerAtFirstStop = *req.StartingLoad
		}

		var ledger []model.Stop
		if len(req.Stops) > 0 {
			ledger, err = ss.buildReplacementLedger(src, stops, req.Stops)
			if err != nil {
				return nil, nil, err
			}
		} else {
			ledger = cloneStops(stops)
			if req.Noise {
				jitterStops(ledger)
			}
		}

		stopIDs, err := ss.counters.NextNumbers(ctx, counterStops, stopNumberPrefix, len(ledger))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: mint stop ids: %v", myerrors.ErrPersistence, err)
		}
		for i := range ledger {
			ledger[i].StopID = stopIDs[i]
			ledger[i].TripID = ""
		}

		Renumber(ledger)
		Replay(&dup, ledger, 0)

		if req.EndingLoad != nil && len(ledger) > 0 {
			forceEndingLoad(&dup, ledger, *req.EndingLoad)
		}

		RecomputeAggregates(&dup, ledger)

		// Source stays exactly as it was; only split invalidates it.
		return []model.Trip{dup}, [][]model.Stop{ledger}, nil
	})
	if err != nil {
		return dto.DuplicateTripResponseDto{}, err
	}

	if ss.mtr != nil {
		ss.mtr.TripsDuplicated.Inc()
	}
	ss.publishEvent(ctx, event.TypeTripDuplicated, src, []string{succTrips[0].TripNumber})

	log.Info("trip duplicated", "source_trip", src.TripNumber, "new_trip", succTrips[0].TripNumber, "stops", len(succStops[0]))
	return dto.DuplicateTripResponseDto{
		Trip:  dto.FromTrip(succTrips[0]),
		Stops: dto.FromStops(succStops[0]),
	}, nil
}

// buildReplacementLedger turns caller-supplied entries into stops with
// concrete timestamps. An entry time is either a full RFC3339 timestamp
// or a bare HH:MM:SS offset relative to the source trip's start; absent
// times are synthesized from the previous stop and the speed model.
func (ss *SplitService) buildReplacementLedger(src *model.Trip, srcStops []model.Stop, entries []dto.ReplayStopEntry) ([]model.Stop, error) {
	base := time.Now().UTC()
	if src.StartTime != nil {
		base = *src.StartTime
	} else if len(srcStops) > 0 {
		base = srcStops[0].ArriveTime
	}

	ledger := make([]model.Stop, 0, len(entries))
	for i, entry := range entries {
		s := model.Stop{
			PassengersIn:  intOrZero(entry.PassengersIn),
			PassengersOut: intOrZero(entry.PassengersOut),
			FareAmount:    floatOrZero(entry.FareAmount),
			DwellTimeMin:  floatOrZero(entry.DwellTimeMin),
			Lng:           entry.Coordinates[0],
			Lat:           entry.Coordinates[1],
		}

		switch {
		case entry.Time != "":
			t, err := parseReplayTime(entry.Time, base)
			if err != nil {
				return nil, fmt.Errorf("stop %d: %w", i+1, err)
			}
			s.ArriveTime = t
		case i == 0:
			s.ArriveTime = base
		default:
			prev := ledger[i-1]
			dist := geo.HaversineKm(prev.Lat, prev.Lng, s.Lat, s.Lng)
			s.ArriveTime = prev.DepartTime.Add(ss.speed.TravelTime(dist))
		}
		s.DepartTime = s.ArriveTime.Add(minutes(s.DwellTimeMin))

		ledger = append(ledger, s)
	}
	return ledger, nil
}

func (ss *SplitService) publishEvent(ctx context.Context, typ string, trip model.Trip, successors []string) {
	if ss.broker == nil {
		return
	}
	ev := event.TripEvent{
		Type:                 typ,
		TripID:               trip.TripID,
		TripNumber:           trip.TripNumber,
		MapperID:             trip.MapperID,
		RouteID:              trip.RouteID,
		Status:               trip.Status,
		Timestamp:            time.Now().UTC().Format(time.RFC3339),
		SuccessorTripNumbers: successors,
	}
	if err := ss.broker.PublishTripEvent(ctx, ev); err != nil {
		ss.mylog.Action("publishEvent").Error("failed to publish trip event", err, "type", typ, "trip_id", trip.TripID)
		if ss.mtr != nil {
			ss.mtr.EventPublishErrs.Inc()
		}
		return
	}
	if ss.mtr != nil {
		ss.mtr.EventsPublished.Inc()
	}
}

// cloneTripShell copies a trip's references but none of its ledger or
// aggregate state.
func cloneTripShell(src model.Trip, tripNumber string) model.Trip {
	return model.Trip{
		TripNumber:    tripNumber,
		MapperID:      src.MapperID,
		RouteID:       src.RouteID,
		CompanyID:     src.CompanyID,
		VehicleTypeID: src.VehicleTypeID,
		ProjectID:     src.ProjectID,
		Status:        src.Status,
		LicensePlate:  src.LicensePlate,
		Uploaded:      src.Uploaded,
		TripStops:     []string{},
		CreatedAt:     time.Now().UTC(),
	}
}

func setTripTimesFromLedger(trip *model.Trip, stops []model.Stop) {
	if len(stops) == 0 {
		return
	}
	start := stops[0].ArriveTime
	end := stops[len(stops)-1].DepartTime
	trip.StartTime = &start
	trip.EndTime = &end
	trip.ActualDurationSec = int64(end.Sub(start).Seconds())
}

// forceEndingLoad adjusts the last stop's alighting count so the trip
// ends at the requested residual load, then replays the tail.
func forceEndingLoad(trip *model.Trip, stops []model.Stop, endingLoad int) {
	if endingLoad < 0 {
		endingLoad = 0
	}
	last := len(stops) - 1
	base := trip.TotalPassengerAtFirstStop
	if last > 0 {
		base = stops[last-1].CurrentPassengers
	}
	out := base + stops[last].PassengersIn - endingLoad
	if out < 0 {
		out = 0
	}
	stops[last].PassengersOut = out
	Replay(trip, stops, last)
}

func parseReplayTime(s string, base time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	clock, err := time.Parse("15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q is neither RFC3339 nor HH:MM:SS", myerrors.ErrInvalidInput, s)
	}
	offset := time.Duration(clock.Hour())*time.Hour +
		time.Duration(clock.Minute())*time.Minute +
		time.Duration(clock.Second())*time.Second
	return base.Add(offset), nil
}

// jitterStops nudges copied coordinates by roughly ten meters so a
// duplicated trip does not overlay its source pixel-perfectly.
func jitterStops(stops []model.Stop) {
	for i := range stops {
		stops[i].Lat += (rand.Float64() - 0.5) * 2e-4
		stops[i].Lng += (rand.Float64() - 0.5) * 2e-4
	}
}
