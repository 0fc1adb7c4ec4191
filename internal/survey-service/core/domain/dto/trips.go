package dto

import (
	"time"

	"transit-mapper/internal/survey-service/core/domain/model"
)

type CreateTripRequestDto struct {
	RouteID       string `json:"route_id"`
	CompanyID     string `json:"company_id"`
	VehicleTypeID string `json:"vehicle_type_id"`
	ProjectID     string `json:"project_id"`
}

type TripResponseDto struct {
	TripID     string `json:"trip_id"`
	TripNumber string `json:"trip_number"`

	MapperID      string `json:"mapper_id"`
	RouteID       string `json:"route_id"`
	CompanyID     string `json:"company_id"`
	VehicleTypeID string `json:"vehicle_type_id"`
	ProjectID     string `json:"project_id"`

	Status string `json:"status"`

	StartTime         string `json:"start_time,omitempty"`
	EndTime           string `json:"end_time,omitempty"`
	ActualDurationSec int64  `json:"actual_duration_sec,omitempty"`

	TotalStops                int     `json:"total_stops"`
	CurrentStop               int     `json:"current_stop"`
	TotalPassengersPickedUp   int     `json:"total_passengers_picked_up"`
	TotalPassengersDroppedOff int     `json:"total_passengers_dropped_off"`
	FinalPassengerCount       int     `json:"final_passenger_count"`
	TotalFareCollection       float64 `json:"total_fare_collection"`
	TotalPassengerAtFirstStop int     `json:"total_passenger_at_first_stop"`

	TripStops []string `json:"trip_stops"`

	LicensePlate string `json:"license_plate,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Invalidated  bool   `json:"invalidated"`
	Uploaded     bool   `json:"uploaded"`
}

type TripWithStopsResponseDto struct {
	Trip  TripResponseDto   `json:"trip"`
	Stops []StopResponseDto `json:"stops"`
}

func FromTrip(t model.Trip) TripResponseDto {
	res := TripResponseDto{
		TripID:                    t.TripID,
		TripNumber:                t.TripNumber,
		MapperID:                  t.MapperID,
		RouteID:                   t.RouteID,
		CompanyID:                 t.CompanyID,
		VehicleTypeID:             t.VehicleTypeID,
		ProjectID:                 t.ProjectID,
		Status:                    t.Status,
		ActualDurationSec:         t.ActualDurationSec,
		TotalStops:                t.TotalStops,
		CurrentStop:               t.CurrentStop,
		TotalPassengersPickedUp:   t.TotalPassengersPickedUp,
		TotalPassengersDroppedOff: t.TotalPassengersDroppedOff,
		FinalPassengerCount:       t.FinalPassengerCount,
		TotalFareCollection:       t.TotalFareCollection,
		TotalPassengerAtFirstStop: t.TotalPassengerAtFirstStop,
		TripStops:                 t.TripStops,
		LicensePlate:              t.LicensePlate,
		Notes:                     t.Notes,
		Invalidated:               t.Invalidated,
		Uploaded:                  t.Uploaded,
	}
	if t.StartTime != nil {
		res.StartTime = t.StartTime.Format(time.RFC3339)
	}
	if t.EndTime != nil {
		res.EndTime = t.EndTime.Format(time.RFC3339)
	}
	return res
}

func FromStop(s model.Stop) StopResponseDto {
	return StopResponseDto{
		StopID:            s.StopID,
		TripID:            s.TripID,
		StopNumber:        s.StopNumber,
		PassengersIn:      s.PassengersIn,
		PassengersOut:     s.PassengersOut,
		CurrentPassengers: s.CurrentPassengers,
		FareAmount:        s.FareAmount,
		Lat:               s.Lat,
		Lng:               s.Lng,
		SnappedToRoad:     s.SnappedToRoad,
		ArriveTime:        s.ArriveTime.Format(time.RFC3339),
		DepartTime:        s.DepartTime.Format(time.RFC3339),
		DwellTimeMin:      s.DwellTimeMin,
		CumPassengers:     s.CumPassengers,
		CumTravelTimeMin:  s.CumTravelTimeMin,
		CumDistanceKm:     s.CumDistanceKm,
		CumRevenue:        s.CumRevenue,
		SpeedKmh:          s.SpeedKmh,
	}
}

func FromStops(stops []model.Stop) []StopResponseDto {
	res := make([]StopResponseDto, 0, len(stops))
	for _, s := range stops {
		res = append(res, FromStop(s))
	}
	return res
}
