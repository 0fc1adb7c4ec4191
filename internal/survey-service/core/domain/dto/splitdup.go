package dto

// ReplayStopEntry is one stop of a replacement ledger supplied to
// Duplicate. Time accepts a full RFC3339 timestamp or a bare HH:MM:SS
// clock value interpreted relative to the source trip's start.
type ReplayStopEntry struct {
	Coordinates   []float64 `json:"coordinates"`
	PassengersIn  *int      `json:"passengers_in"`
	PassengersOut *int      `json:"passengers_out"`
	FareAmount    *float64  `json:"fare_amount"`
	DwellTimeMin  *float64  `json:"dwell_time"`
	Time          string    `json:"time,omitempty"`
}

type DuplicateTripRequestDto struct {
	RouteID *string `json:"route_id,omitempty"`

	// Residual passenger load overrides.
	StartingLoad *int `json:"starting_load,omitempty"`
	EndingLoad   *int `json:"ending_load,omitempty"`

	// Jitter the copied stop coordinates slightly.
	Noise bool `json:"noise,omitempty"`

	// Replacement ledger. When empty the source ledger is replayed.
	Stops []ReplayStopEntry `json:"stops,omitempty"`
}

type DuplicateTripResponseDto struct {
	Trip  TripResponseDto   `json:"trip"`
	Stops []StopResponseDto `json:"stops"`
}

type SplitTripRequestDto struct {
	SplitStopID string `json:"split_stop_id"`
}

type SplitTripResponseDto struct {
	SourceTripNumber string                   `json:"source_trip_number"`
	First            TripWithStopsResponseDto `json:"first"`
	Second           TripWithStopsResponseDto `json:"second"`
}
