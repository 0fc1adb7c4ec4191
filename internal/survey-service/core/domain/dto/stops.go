package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StopEntry is one new stop as submitted by a field mapper.
// Coordinates are GeoJSON order: [lng, lat].
type StopEntry struct {
	Coordinates    []float64 `json:"coordinates"`
	PassengersIn   *int      `json:"passengers_in"`
	PassengersOut  *int      `json:"passengers_out"`
	FareAmount     *float64  `json:"fare_amount"`
	DwellTimeMin   *float64  `json:"dwell_time"`
	PreviousStopID string    `json:"previous_stop_id,omitempty"`
}

// AddStopsRequest accepts three wire shapes: a bare stop object, a bare
// array of stops, or a wrapper {"stops": [...], "seed_passengers": n}.
// All of them normalize to the Stops slice here so nothing downstream
// ever branches on the input shape again.
type AddStopsRequest struct {
	Stops          []StopEntry
	SeedPassengers *int
}

type addStopsWrapper struct {
	Stops          []StopEntry `json:"stops"`
	SeedPassengers *int        `json:"seed_passengers"`
}

func (r *AddStopsRequest) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimLeft(b, " \t\r\n")
	if len(trimmed) == 0 {
		return fmt.Errorf("empty body")
	}

	if trimmed[0] == '[' {
		var entries []StopEntry
		if err := json.Unmarshal(b, &entries); err != nil {
			return err
		}
		r.Stops = entries
		return nil
	}

	var wrapper addStopsWrapper
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return err
	}
	if wrapper.Stops != nil {
		r.Stops = wrapper.Stops
		r.SeedPassengers = wrapper.SeedPassengers
		return nil
	}

	var single StopEntry
	if err := json.Unmarshal(b, &single); err != nil {
		return err
	}
	r.Stops = []StopEntry{single}
	return nil
}

// UpdateStopRequest patches only the provided fields of one stop.
type UpdateStopRequest struct {
	Coordinates   []float64 `json:"coordinates,omitempty"`
	PassengersIn  *int      `json:"passengers_in,omitempty"`
	PassengersOut *int      `json:"passengers_out,omitempty"`
	FareAmount    *float64  `json:"fare_amount,omitempty"`
	DwellTimeMin  *float64  `json:"dwell_time,omitempty"`
	ArriveTime    *string   `json:"arrive_time,omitempty"`
	DepartTime    *string   `json:"depart_time,omitempty"`
}

type StopResponseDto struct {
	StopID     string `json:"stop_id"`
	TripID     string `json:"trip_id"`
	StopNumber int    `json:"stop_number"`

	PassengersIn      int `json:"passengers_in"`
	PassengersOut     int `json:"passengers_out"`
	CurrentPassengers int `json:"current_passengers"`

	FareAmount float64 `json:"fare_amount"`

	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	SnappedToRoad bool    `json:"snapped_to_road"`

	ArriveTime   string  `json:"arrive_time"`
	DepartTime   string  `json:"depart_time"`
	DwellTimeMin float64 `json:"dwell_time"`

	CumPassengers    int     `json:"cum_passengers"`
	CumTravelTimeMin float64 `json:"cum_travel_time"`
	CumDistanceKm    float64 `json:"cum_distance"`
	CumRevenue       float64 `json:"cum_revenue"`
	SpeedKmh         float64 `json:"speed"`
}

type AddStopsResponseDto struct {
	Stops []StopResponseDto `json:"stops"`
	Trip  TripResponseDto   `json:"trip"`
}

type UpdateStopResponseDto struct {
	Stop StopResponseDto `json:"stop"`
	Trip TripResponseDto `json:"trip"`
}
