package db

import (
	"context"
	"errors"
	"fmt"

	"transit-mapper/internal/survey-service/core/domain/model"
	"transit-mapper/internal/survey-service/core/myerrors"
	"transit-mapper/internal/survey-service/core/ports"

	"github.com/jackc/pgx/v5"
)

// RoutesRepo is a read-only view; route CRUD lives in the project
// administration surfaces outside this service.
type RoutesRepo struct {
	db *DB
}

func NewRoutesRepo(db *DB) ports.IRoutesRepo {
	return &RoutesRepo{
		db: db,
	}
}

func (rr *RoutesRepo) GetRoute(ctx context.Context, routeID string) (model.Route, error) {
	q := `SELECT route_id, code, name, forward_stops FROM routes WHERE route_id = $1`

	var r model.Route
	row := rr.db.pool.QueryRow(ctx, q, routeID)
	if err := row.Scan(&r.RouteID, &r.Code, &r.Name, &r.ForwardStops); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Route{}, fmt.Errorf("%w: %s", myerrors.ErrRouteNotFound, routeID)
		}
		return model.Route{}, fmt.Errorf("%w: fetch route: %v", myerrors.ErrPersistence, err)
	}
	return r, nil
}
