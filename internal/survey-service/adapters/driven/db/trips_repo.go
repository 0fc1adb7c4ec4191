package db

import (
	"context"
	"errors"
	"fmt"

	"transit-mapper/internal/survey-service/core/domain/model"
	"transit-mapper/internal/survey-service/core/myerrors"
	"transit-mapper/internal/survey-service/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type TripsRepo struct {
	db *DB
}

func NewTripsRepo(db *DB) ports.ITripsRepo {
	return &TripsRepo{
		db: db,
	}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const tripColumns = `
		trip_id, trip_number, mapper_id, route_id, company_id, vehicle_type_id, project_id,
		status, start_time, end_time, actual_duration_sec,
		start_lat, start_lng, end_lat, end_lng,
		total_stops, current_stop,
		total_passengers_picked_up, total_passengers_dropped_off, final_passenger_count,
		total_fare_collection, total_passenger_at_first_stop, trip_stops,
		license_plate, notes, gps_accuracy, distance_hint_km, duration_hint_sec,
		invalidated, uploaded, created_at`

const stopColumns = `
		stop_id, trip_id, stop_number,
		passengers_in, passengers_out, current_passengers, fare_amount,
		lat, lng, original_lat, original_lng, snapped_to_road,
		arrive_time, depart_time, dwell_time_min,
		cum_passengers, cum_travel_time_min, cum_distance_km, cum_revenue, speed_kmh`

func (tr *TripsRepo) CreateTrip(ctx context.Context, t model.Trip) (model.Trip, error) {
	q := `INSERT INTO trips(
			trip_number, mapper_id, route_id, company_id, vehicle_type_id, project_id,
			status, total_passenger_at_first_stop, trip_stops, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING trip_id`

	row := tr.db.pool.QueryRow(ctx, q,
		t.TripNumber,
		t.MapperID,
		t.RouteID,
		t.CompanyID,
		t.VehicleTypeID,
		t.ProjectID,
		t.Status,
		t.TotalPassengerAtFirstStop,
		t.TripStops,
		t.Notes,
		t.CreatedAt,
	)
	if err := row.Scan(&t.TripID); err != nil {
		return model.Trip{}, fmt.Errorf("%w: insert trip: %v", myerrors.ErrPersistence, err)
	}
	return t, nil
}

func (tr *TripsRepo) GetTrip(ctx context.Context, tripID string) (model.Trip, error) {
	return getTrip(ctx, tr.db.pool, tripID, false)
}

func (tr *TripsRepo) GetTripWithStops(ctx context.Context, tripID string) (model.Trip, []model.Stop, error) {
	trip, err := getTrip(ctx, tr.db.pool, tripID, false)
	if err != nil {
		return model.Trip{}, nil, err
	}
	stops, err := getStops(ctx, tr.db.pool, tripID)
	if err != nil {
		return model.Trip{}, nil, err
	}
	return trip, stops, nil
}

func (tr *TripsRepo) ListByMapper(ctx context.Context, mapperID string, includeInvalidated bool) ([]model.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE mapper_id = $1`
	if !includeInvalidated {
		q += ` AND invalidated = false`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := tr.db.pool.Query(ctx, q, mapperID)
	if err != nil {
		return nil, fmt.Errorf("%w: list trips: %v", myerrors.ErrPersistence, err)
	}
	defer rows.Close()

	var trips []model.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan trip: %v", myerrors.ErrPersistence, err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// MutateLedger serializes mutations per trip: the trip row is locked FOR
// UPDATE for the whole transaction, the ledger is read at that snapshot,
// and the callback's result replaces both atomically.
func (tr *TripsRepo) MutateLedger(ctx context.Context, tripID string, fn ports.LedgerMutation) (model.Trip, []model.Stop, error) {
	tx, err := tr.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Trip{}, nil, fmt.Errorf("%w: begin: %v", myerrors.ErrPersistence, err)
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	trip, err := getTrip(ctx, tx, tripID, true)
	if err != nil {
		return model.Trip{}, nil, err
	}
	stops, err := getStops(ctx, tx, tripID)
	if err != nil {
		return model.Trip{}, nil, err
	}

	newStops, err := fn(&trip, stops)
	if err != nil {
		return model.Trip{}, nil, err
	}

	if newStops != nil {
		if err := replaceStops(ctx, tx, tripID, newStops); err != nil {
			return model.Trip{}, nil, err
		}
	} else {
		newStops = stops
	}

	if err := updateTrip(ctx, tx, trip); err != nil {
		return model.Trip{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Trip{}, nil, fmt.Errorf("%w: commit: %v", myerrors.ErrPersistence, err)
	}
	return trip, newStops, nil
}

// TransformTrip runs split/duplicate: the source is locked and re-read,
// the callback plans successor trips, and everything commits together
// or not at all.
func (tr *TripsRepo) TransformTrip(ctx context.Context, sourceTripID string, fn ports.TripTransform) (model.Trip, []model.Trip, [][]model.Stop, error) {
	tx, err := tr.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Trip{}, nil, nil, fmt.Errorf("%w: begin: %v", myerrors.ErrPersistence, err)
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	src, err := getTrip(ctx, tx, sourceTripID, true)
	if err != nil {
		return model.Trip{}, nil, nil, err
	}
	stops, err := getStops(ctx, tx, sourceTripID)
	if err != nil {
		return model.Trip{}, nil, nil, err
	}

	succTrips, succStops, err := fn(&src, stops)
	if err != nil {
		return model.Trip{}, nil, nil, err
	}
	if len(succTrips) != len(succStops) {
		return model.Trip{}, nil, nil, fmt.Errorf("%w: transform produced %d trips but %d ledgers", myerrors.ErrPersistence, len(succTrips), len(succStops))
	}

	if err := updateTrip(ctx, tx, src); err != nil {
		return model.Trip{}, nil, nil, err
	}

	for i := range succTrips {
		q := `INSERT INTO trips(
				trip_number, mapper_id, route_id, company_id, vehicle_type_id, project_id,
				status, start_time, end_time, actual_duration_sec,
				start_lat, start_lng, end_lat, end_lng,
				total_stops, current_stop,
				total_passengers_picked_up, total_passengers_dropped_off, final_passenger_count,
				total_fare_collection, total_passenger_at_first_stop, trip_stops,
				license_plate, notes, uploaded, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
			RETURNING trip_id`

		var startLat, startLng, endLat, endLng *float64
		if succTrips[i].StartCoordinates != nil {
			startLat = &succTrips[i].StartCoordinates.Lat
			startLng = &succTrips[i].StartCoordinates.Lng
		}
		if succTrips[i].EndCoordinates != nil {
			endLat = &succTrips[i].EndCoordinates.Lat
			endLng = &succTrips[i].EndCoordinates.Lng
		}

		row := tx.QueryRow(ctx, q,
			succTrips[i].TripNumber,
			succTrips[i].MapperID,
			succTrips[i].RouteID,
			succTrips[i].CompanyID,
			succTrips[i].VehicleTypeID,
			succTrips[i].ProjectID,
			succTrips[i].Status,
			succTrips[i].StartTime,
			succTrips[i].EndTime,
			succTrips[i].ActualDurationSec,
			startLat,
			startLng,
			endLat,
			endLng,
			succTrips[i].TotalStops,
			succTrips[i].CurrentStop,
			succTrips[i].TotalPassengersPickedUp,
			succTrips[i].TotalPassengersDroppedOff,
			succTrips[i].FinalPassengerCount,
			succTrips[i].TotalFareCollection,
			succTrips[i].TotalPassengerAtFirstStop,
			succTrips[i].TripStops,
			succTrips[i].LicensePlate,
			succTrips[i].Notes,
			succTrips[i].Uploaded,
			succTrips[i].CreatedAt,
		)
		if err := row.Scan(&succTrips[i].TripID); err != nil {
			return model.Trip{}, nil, nil, fmt.Errorf("%w: insert successor trip: %v", myerrors.ErrPersistence, err)
		}

		// Every successor stop explicitly references its new trip.
		for j := range succStops[i] {
			succStops[i][j].TripID = succTrips[i].TripID
			if err := insertStop(ctx, tx, succStops[i][j]); err != nil {
				return model.Trip{}, nil, nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Trip{}, nil, nil, fmt.Errorf("%w: commit: %v", myerrors.ErrPersistence, err)
	}
	return src, succTrips, succStops, nil
}

func getTrip(ctx context.Context, q querier, tripID string, forUpdate bool) (model.Trip, error) {
	sql := `SELECT ` + tripColumns + ` FROM trips WHERE trip_id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	t, err := scanTrip(q.QueryRow(ctx, sql, tripID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Trip{}, fmt.Errorf("%w: %s", myerrors.ErrTripNotFound, tripID)
		}
		return model.Trip{}, fmt.Errorf("%w: fetch trip: %v", myerrors.ErrPersistence, err)
	}
	return t, nil
}

func scanTrip(row pgx.Row) (model.Trip, error) {
	var t model.Trip
	var startLat, startLng, endLat, endLng *float64
	err := row.Scan(
		&t.TripID,
		&t.TripNumber,
		&t.MapperID,
		&t.RouteID,
		&t.CompanyID,
		&t.VehicleTypeID,
		&t.ProjectID,
		&t.Status,
		&t.StartTime,
		&t.EndTime,
		&t.ActualDurationSec,
		&startLat,
		&startLng,
		&endLat,
		&endLng,
		&t.TotalStops,
		&t.CurrentStop,
		&t.TotalPassengersPickedUp,
		&t.TotalPassengersDroppedOff,
		&t.FinalPassengerCount,
		&t.TotalFareCollection,
		&t.TotalPassengerAtFirstStop,
		&t.TripStops,
		&t.LicensePlate,
		&t.Notes,
		&t.GPSAccuracy,
		&t.DistanceHintKm,
		&t.DurationHintSec,
		&t.Invalidated,
		&t.Uploaded,
		&t.CreatedAt,
	)
	if err != nil {
		return model.Trip{}, err
	}
	if startLat != nil && startLng != nil {
		t.StartCoordinates = &model.LatLng{Lat: *startLat, Lng: *startLng}
	}
	if endLat != nil && endLng != nil {
		t.EndCoordinates = &model.LatLng{Lat: *endLat, Lng: *endLng}
	}
	return t, nil
}

func updateTrip(ctx context.Context, q querier, t model.Trip) error {
	sql := `UPDATE trips SET
			status = $2,
			start_time = $3,
			end_time = $4,
			actual_duration_sec = $5,
			start_lat = $6,
			start_lng = $7,
			end_lat = $8,
			end_lng = $9,
			total_stops = $10,
			current_stop = $11,
			total_passengers_picked_up = $12,
			total_passengers_dropped_off = $13,
			final_passenger_count = $14,
			total_fare_collection = $15,
			total_passenger_at_first_stop = $16,
			trip_stops = $17,
			license_plate = $18,
			notes = $19,
			gps_accuracy = $20,
			distance_hint_km = $21,
			duration_hint_sec = $22,
			invalidated = $23,
			uploaded = $24
		WHERE trip_id = $1`

	var startLat, startLng, endLat, endLng *float64
	if t.StartCoordinates != nil {
		startLat = &t.StartCoordinates.Lat
		startLng = &t.StartCoordinates.Lng
	}
	if t.EndCoordinates != nil {
		endLat = &t.EndCoordinates.Lat
		endLng = &t.EndCoordinates.Lng
	}

	_, err := q.Exec(ctx, sql,
		t.TripID,
		t.Status,
		t.StartTime,
		t.EndTime,
		t.ActualDurationSec,
		startLat,
		startLng,
		endLat,
		endLng,
		t.TotalStops,
		t.CurrentStop,
		t.TotalPassengersPickedUp,
		t.TotalPassengersDroppedOff,
		t.FinalPassengerCount,
		t.TotalFareCollection,
		t.TotalPassengerAtFirstStop,
		t.TripStops,
		t.LicensePlate,
		t.Notes,
		t.GPSAccuracy,
		t.DistanceHintKm,
		t.DurationHintSec,
		t.Invalidated,
		t.Uploaded,
	)
	if err != nil {
		return fmt.Errorf("%w: update trip: %v", myerrors.ErrPersistence, err)
	}
	return nil
}

func getStops(ctx context.Context, q querier, tripID string) ([]model.Stop, error) {
	sql := `SELECT ` + stopColumns + ` FROM stops WHERE trip_id = $1 ORDER BY stop_number`

	rows, err := q.Query(ctx, sql, tripID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch stops: %v", myerrors.ErrPersistence, err)
	}
	defer rows.Close()

	var stops []model.Stop
	for rows.Next() {
		var s model.Stop
		err := rows.Scan(
			&s.StopID,
			&s.TripID,
			&s.StopNumber,
			&s.PassengersIn,
			&s.PassengersOut,
			&s.CurrentPassengers,
			&s.FareAmount,
			&s.Lat,
			&s.Lng,
			&s.OriginalLat,
			&s.OriginalLng,
			&s.SnappedToRoad,
			&s.ArriveTime,
			&s.DepartTime,
			&s.DwellTimeMin,
			&s.CumPassengers,
			&s.CumTravelTimeMin,
			&s.CumDistanceKm,
			&s.CumRevenue,
			&s.SpeedKmh,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan stop: %v", myerrors.ErrPersistence, err)
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// replaceStops rewrites the trip's whole ledger. One write per stop, in
// order: each downstream recomputation depends on its predecessor's
// freshly computed value, so there is nothing to parallelize.
func replaceStops(ctx context.Context, q querier, tripID string, stops []model.Stop) error {
	if _, err := q.Exec(ctx, `DELETE FROM stops WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("%w: clear ledger: %v", myerrors.ErrPersistence, err)
	}
	for i := range stops {
		stops[i].TripID = tripID
		if err := insertStop(ctx, q, stops[i]); err != nil {
			return err
		}
	}
	return nil
}

func insertStop(ctx context.Context, q querier, s model.Stop) error {
	sql := `INSERT INTO stops(` + stopColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := q.Exec(ctx, sql,
		s.StopID,
		s.TripID,
		s.StopNumber,
		s.PassengersIn,
		s.PassengersOut,
		s.CurrentPassengers,
		s.FareAmount,
		s.Lat,
		s.Lng,
		s.OriginalLat,
		s.OriginalLng,
		s.SnappedToRoad,
		s.ArriveTime,
		s.DepartTime,
		s.DwellTimeMin,
		s.CumPassengers,
		s.CumTravelTimeMin,
		s.CumDistanceKm,
		s.CumRevenue,
		s.SpeedKmh,
	)
	if err != nil {
		return fmt.Errorf("%w: insert stop %s: %v", myerrors.ErrPersistence, s.StopID, err)
	}
	return nil
}
