package dto

type StartTripRequestDto struct {
	GPSAccuracy *float64 `json:"gps_accuracy,omitempty"`

	// Client-side hints recorded as-is, not trusted for aggregates.
	DistanceHintKm  *float64 `json:"distance_hint_km,omitempty"`
	DurationHintSec *int64   `json:"duration_hint_sec,omitempty"`
}

type CompleteTripRequestDto struct {
	LicensePlate string `json:"license_plate"`
}

type CancelTripRequestDto struct {
	Reason string `json:"reason,omitempty"`
}
