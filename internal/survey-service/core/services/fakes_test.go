package services

import (
	"context"
	"fmt"
	"sync"

	"transit-mapper/internal/survey-service/core/domain/event"
	"transit-mapper/internal/survey-service/core/domain/model"
	"transit-mapper/internal/survey-service/core/myerrors"
	"transit-mapper/internal/survey-service/core/ports"
)

// fakeTripsRepo keeps everything in memory and runs the same
// callback contract as the real repository, minus the locking.
type fakeTripsRepo struct {
	mu     sync.Mutex
	trips  map[string]model.Trip
	stops  map[string][]model.Stop
	nextID int
}

func newFakeTripsRepo() *fakeTripsRepo {
	return &fakeTripsRepo{
		trips: make(map[string]model.Trip),
		stops: make(map[string][]model.Stop),
	}
}

func (fr *fakeTripsRepo) put(t model.Trip, stops []model.Stop) model.Trip {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if t.TripID == "" {
		fr.nextID++
		t.TripID = fmt.Sprintf("trip-%d", fr.nextID)
	}
	fr.trips[t.TripID] = t
	fr.stops[t.TripID] = stops
	return t
}

func (fr *fakeTripsRepo) CreateTrip(ctx context.Context, t model.Trip) (model.Trip, error) {
	return fr.put(t, nil), nil
}

func (fr *fakeTripsRepo) GetTrip(ctx context.Context, tripID string) (model.Trip, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	t, ok := fr.trips[tripID]
	if !ok {
		return model.Trip{}, fmt.Errorf("%w: %s", myerrors.ErrTripNotFound, tripID)
	}
	return t, nil
}

func (fr *fakeTripsRepo) GetTripWithStops(ctx context.Context, tripID string) (model.Trip, []model.Stop, error) {
	t, err := fr.GetTrip(ctx, tripID)
	if err != nil {
		return model.Trip{}, nil, err
	}
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return t, cloneStops(fr.stops[tripID]), nil
}

func (fr *fakeTripsRepo) ListByMapper(ctx context.Context, mapperID string, includeInvalidated bool) ([]model.Trip, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	var res []model.Trip
	for _, t := range fr.trips {
		if t.MapperID != mapperID {
			continue
		}
		if t.Invalidated && !includeInvalidated {
			continue
		}
		res = append(res, t)
	}
	return res, nil
}

func (fr *fakeTripsRepo) MutateLedger(ctx context.Context, tripID string, fn ports.LedgerMutation) (model.Trip, []model.Stop, error) {
	trip, stops, err := fr.GetTripWithStops(ctx, tripID)
	if err != nil {
		return model.Trip{}, nil, err
	}

	newStops, err := fn(&trip, stops)
	if err != nil {
		return model.Trip{}, nil, err
	}
	if newStops == nil {
		newStops = stops
	}

	fr.put(trip, newStops)
	return trip, newStops, nil
}

func (fr *fakeTripsRepo) TransformTrip(ctx context.Context, sourceTripID string, fn ports.TripTransform) (model.Trip, []model.Trip, [][]model.Stop, error) {
	src, stops, err := fr.GetTripWithStops(ctx, sourceTripID)
	if err != nil {
		return model.Trip{}, nil, nil, err
	}

	succTrips, succStops, err := fn(&src, stops)
	if err != nil {
		return model.Trip{}, nil, nil, err
	}

	fr.put(src, stops)
	for i := range succTrips {
		succTrips[i] = fr.put(succTrips[i], succStops[i])
		for j := range succStops[i] {
			succStops[i][j].TripID = succTrips[i].TripID
		}
	}
	return src, succTrips, succStops, nil
}

type fakeCounters struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{seqs: make(map[string]int64)}
}

func (fc *fakeCounters) NextNumber(ctx context.Context, name, prefix string) (string, error) {
	numbers, err := fc.NextNumbers(ctx, name, prefix, 1)
	if err != nil {
		return "", err
	}
	return numbers[0], nil
}

func (fc *fakeCounters) NextNumbers(ctx context.Context, name, prefix string, n int) ([]string, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	numbers := make([]string, 0, n)
	for i := 0; i < n; i++ {
		fc.seqs[name]++
		numbers = append(numbers, fmt.Sprintf("%s20250601_%03d", prefix, fc.seqs[name]))
	}
	return numbers, nil
}

type fakeRoutesRepo struct {
	routes map[string]model.Route
}

func (fr *fakeRoutesRepo) GetRoute(ctx context.Context, routeID string) (model.Route, error) {
	r, ok := fr.routes[routeID]
	if !ok {
		return model.Route{}, fmt.Errorf("%w: %s", myerrors.ErrRouteNotFound, routeID)
	}
	return r, nil
}

type fakeBroker struct {
	mu     sync.Mutex
	events []event.TripEvent
}

func (fb *fakeBroker) PublishTripEvent(ctx context.Context, ev event.TripEvent) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.events = append(fb.events, ev)
	return nil
}

func (fb *fakeBroker) IsAlive() bool { return true }

func (fb *fakeBroker) Close() error { return nil }

func (fb *fakeBroker) published() []event.TripEvent {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]event.TripEvent(nil), fb.events...)
}
