package ports

import (
	"context"

	"transit-mapper/internal/survey-service/core/domain/model"
)

// LedgerMutation rewrites one trip and its stop ledger. It runs with the
// trip row locked, so two mutations of the same trip never interleave.
// Returning a nil slice leaves the stop rows untouched (lifecycle-only
// mutations); returning a non-nil slice (possibly empty) replaces the
// whole ledger.
type LedgerMutation func(trip *model.Trip, stops []model.Stop) ([]model.Stop, error)

// TripTransform consumes one locked source trip and produces successor
// trips with fresh ledgers (split, duplicate). Mutations to src are
// persisted together with the successors; any error aborts everything.
type TripTransform func(src *model.Trip, stops []model.Stop) ([]model.Trip, [][]model.Stop, error)

type ITripsRepo interface {
	CreateTrip(ctx context.Context, t model.Trip) (model.Trip, error)
	GetTrip(ctx context.Context, tripID string) (model.Trip, error)
	GetTripWithStops(ctx context.Context, tripID string) (model.Trip, []model.Stop, error)
	ListByMapper(ctx context.Context, mapperID string, includeInvalidated bool) ([]model.Trip, error)

	MutateLedger(ctx context.Context, tripID string, fn LedgerMutation) (model.Trip, []model.Stop, error)
	TransformTrip(ctx context.Context, sourceTripID string, fn TripTransform) (model.Trip, []model.Trip, [][]model.Stop, error)
}

type IRoutesRepo interface {
	GetRoute(ctx context.Context, routeID string) (model.Route, error)
}

// ICountersRepo mints globally unique date-stamped numbers. Increments
// are atomic upsert-increments on the persisted counter row: concurrent
// callers never observe the same value, restarts never reuse one.
type ICountersRepo interface {
	NextNumber(ctx context.Context, name, prefix string) (string, error)
	NextNumbers(ctx context.Context, name, prefix string, n int) ([]string, error)
}
