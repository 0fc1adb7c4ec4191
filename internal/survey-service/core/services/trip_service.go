package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"transit-mapper/internal/metrics"
	"transit-mapper/internal/mylogger"
	"transit-mapper/internal/survey-service/core/domain/dto"
	"transit-mapper/internal/survey-service/core/domain/event"
	"transit-mapper/internal/survey-service/core/domain/model"
	websocketdto "transit-mapper/internal/survey-service/core/domain/websocket_dto"
	"transit-mapper/internal/survey-service/core/myerrors"
	"transit-mapper/internal/survey-service/core/ports"
)

// TripService creates trips and drives their lifecycle state machine:
// new -> in-progress -> completed, with cancellation from the two
// non-terminal states. Every transition is a capability check against
// the trip's owning mapper.
type TripService struct {
	mylog      mylogger.Logger
	tripsRepo  ports.ITripsRepo
	routesRepo ports.IRoutesRepo
	counters   ports.ICountersRepo
	broker     ports.ITripEventsBroker
	feed       ports.ITripFeed
	mtr        *metrics.Collector
}

func NewTripService(
	log mylogger.Logger,
	tripsRepo ports.ITripsRepo,
	routesRepo ports.IRoutesRepo,
	counters ports.ICountersRepo,
	broker ports.ITripEventsBroker,
	feed ports.ITripFeed,
	mtr *metrics.Collector,
) ports.ITripService {
	return &TripService{
		mylog:      log,
		tripsRepo:  tripsRepo,
		routesRepo: routesRepo,
		counters:   counters,
		broker:     broker,
		feed:       feed,
		mtr:        mtr,
	}
}

func (ts *TripService) CreateTrip(ctx context.Context, mapperID string, req dto.CreateTripRequestDto) (dto.TripResponseDto, error) {
	log := ts.mylog.Action("CreateTrip")

	for name, val := range map[string]string{
		"route_id":        req.RouteID,
		"company_id":      req.CompanyID,
		"vehicle_type_id": req.VehicleTypeID,
		"project_id":      req.ProjectID,
	} {
		if strings.TrimSpace(val) == "" {
			return dto.TripResponseDto{}, fmt.Errorf("%w: %s is required", myerrors.ErrInvalidInput, name)
		}
	}

	route, err := ts.routesRepo.GetRoute(ctx, req.RouteID)
	if err != nil {
		return dto.TripResponseDto{}, err
	}
	if len(route.ForwardStops) == 0 {
		return dto.TripResponseDto{}, fmt.Errorf("%w: route %s has no forward stops", myerrors.ErrInvalidOperation, route.Code)
	}

	number, err := ts.counters.NextNumber(ctx, counterTrips, tripNumberPrefix)
	if err != nil {
		log.Error("cannot mint trip number", err)
		return dto.TripResponseDto{}, fmt.Errorf("%w: mint trip number: %v", myerrors.ErrPersistence, err)
	}

	trip := model.Trip{
		TripNumber:    number,
		MapperID:      mapperID,
		RouteID:       req.RouteID,
		CompanyID:     req.CompanyID,
		VehicleTypeID: req.VehicleTypeID,
		ProjectID:     req.ProjectID,
		Status:        model.StatusNew,
		TripStops:     []string{},
		CreatedAt:     time.Now().UTC(),
	}

	created, err := ts.tripsRepo.CreateTrip(ctx, trip)
	if err != nil {
		log.Error("cannot persist trip", err, "trip_number", number)
		return dto.TripResponseDto{}, err
	}

	if ts.mtr != nil {
		ts.mtr.TripsCreated.Inc()
	}
	log.Info("trip created", "trip_id", created.TripID, "trip_number", created.TripNumber, "mapper_id", mapperID)
	return dto.FromTrip(created), nil
}

func (ts *TripService) GetTrip(ctx context.Context, tripID string) (dto.TripWithStopsResponseDto, error) {
	trip, stops, err := ts.tripsRepo.GetTripWithStops(ctx, tripID)
	if err != nil {
		return dto.TripWithStopsResponseDto{}, err
	}
	return dto.TripWithStopsResponseDto{
		Trip:  dto.FromTrip(trip),
		Stops: dto.FromStops(stops),
	}, nil
}

func (ts *TripService) ListTrips(ctx context.Context, mapperID string) ([]dto.TripResponseDto, error) {
	// Invalidated trips (e.g. split sources) stay out of the healthy set.
	trips, err := ts.tripsRepo.ListByMapper(ctx, mapperID, false)
	if err != nil {
		return nil, err
	}
	res := make([]dto.TripResponseDto, 0, len(trips))
	for _, t := range trips {
		res = append(res, dto.FromTrip(t))
	}
	return res, nil
}

func (ts *TripService) StartTrip(ctx context.Context, mapperID, tripID string, req dto.StartTripRequestDto) (dto.TripResponseDto, error) {
	log := ts.mylog.Action("StartTrip")

	trip, _, err := ts.tripsRepo.MutateLedger(ctx, tripID, func(trip *model.Trip, stops []model.Stop) ([]model.Stop, error) {
		if trip.MapperID != mapperID {
			return nil, myerrors.ErrNotTripOwner
		}
		if trip.Status != model.StatusNew {
			return nil, fmt.Errorf("%w: cannot start a %s trip", myerrors.ErrInvalidStateTransition, trip.Status)
		}

		now := time.Now().UTC()
		trip.Status = model.StatusInProgress
		trip.StartTime = &now
		if req.GPSAccuracy != nil {
			trip.GPSAccuracy = req.GPSAccuracy
		}
		trip.DistanceHintKm = req.DistanceHintKm
		trip.DurationHintSec = req.DurationHintSec
		return nil, nil
	})
	if err != nil {
		return dto.TripResponseDto{}, err
	}

	ts.publishEvent(ctx, event.TypeTripStarted, trip, nil)
	ts.broadcastStatus(trip)
	log.Info("trip started", "trip_id", trip.TripID, "trip_number", trip.TripNumber)
	return dto.FromTrip(trip), nil
}

func (ts *TripService) CompleteTrip(ctx context.Context, mapperID, tripID string, req dto.CompleteTripRequestDto) (dto.TripResponseDto, error) {
	log := ts.mylog.Action("CompleteTrip")

	// A trip cannot be finalized without identifying the vehicle.
	plate := strings.TrimSpace(req.LicensePlate)
	if plate == "" {
		return dto.TripResponseDto{}, fmt.Errorf("%w: license plate is required to complete a trip", myerrors.ErrInvalidInput)
	}

	trip, _, err := ts.tripsRepo.MutateLedger(ctx, tripID, func(trip *model.Trip, stops []model.Stop) ([]model.Stop, error) {
		if trip.MapperID != mapperID {
			return nil, myerrors.ErrNotTripOwner
		}
		if trip.Status != model.StatusInProgress {
			return nil, fmt.Errorf("%w: cannot complete a %s trip", myerrors.ErrInvalidStateTransition, trip.Status)
		}

		now := time.Now().UTC()
		trip.Status = model.StatusCompleted
		trip.EndTime = &now
		if trip.StartTime != nil {
			trip.ActualDurationSec = int64(now.Sub(*trip.StartTime).Seconds())
		}
		trip.LicensePlate = plate
		trip.Uploaded = true
		return nil, nil
	})
	if err != nil {
		return dto.TripResponseDto{}, err
	}

	if ts.mtr != nil {
		ts.mtr.TripsCompleted.Inc()
	}
	ts.publishEvent(ctx, event.TypeTripCompleted, trip, nil)
	ts.broadcastStatus(trip)
	log.Info("trip completed", "trip_id", trip.TripID, "trip_number", trip.TripNumber, "duration_sec", trip.ActualDurationSec)
	return dto.FromTrip(trip), nil
}

func (ts *TripService) CancelTrip(ctx context.Context, mapperID, tripID string, req dto.CancelTripRequestDto) (dto.TripResponseDto, error) {
	log := ts.mylog.Action("CancelTrip")

	trip, _, err := ts.tripsRepo.MutateLedger(ctx, tripID, func(trip *model.Trip, stops []model.Stop) ([]model.Stop, error) {
		if trip.MapperID != mapperID {
			return nil, myerrors.ErrNotTripOwner
		}
		if trip.IsTerminal() {
			return nil, fmt.Errorf("%w: cannot cancel a %s trip", myerrors.ErrInvalidStateTransition, trip.Status)
		}

		now := time.Now().UTC()
		trip.Status = model.StatusCancelled
		trip.EndTime = &now
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			trip.Notes = appendNote(trip.Notes, "cancelled: "+reason)
		}
		return nil, nil
	})
	if err != nil {
		return dto.TripResponseDto{}, err
	}

	if ts.mtr != nil {
		ts.mtr.TripsCancelled.Inc()
	}
	ts.publishEvent(ctx, event.TypeTripCancelled, trip, nil)
	ts.broadcastStatus(trip)
	log.Info("trip cancelled", "trip_id", trip.TripID, "trip_number", trip.TripNumber)
	return dto.FromTrip(trip), nil
}

// publishEvent is best effort: a broker outage must not fail the
// mutation that already committed.
func (ts *TripService) publishEvent(ctx context.Context, typ string, trip model.Trip, successors []string) {
	if ts.broker == nil {
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
	if err := ts.broker.PublishTripEvent(ctx, ev); err != nil {
		ts.mylog.Action("publishEvent").Error("failed to publish trip event", err, "type", typ, "trip_id", trip.TripID)
		if ts.mtr != nil {
			ts.mtr.EventPublishErrs.Inc()
		}
		return
	}
	if ts.mtr != nil {
		ts.mtr.EventsPublished.Inc()
	}
}

func (ts *TripService) broadcastStatus(trip model.Trip) {
	if ts.feed == nil {
		return
	}
	data, err := json.Marshal(websocketdto.TripStatusUpdateDto{
		TripID:     trip.TripID,
		TripNumber: trip.TripNumber,
		Status:     trip.Status,
	})
	if err != nil {
		return
	}
	ts.feed.Broadcast(trip.TripID, websocketdto.Event{Type: "trip_status_update", Data: data})
}
