package model

import "time"

const (
	StatusNew        = "new"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Trip is one mapped vehicle run. The aggregate fields are a cache: they
// must always equal a replay of the trip's stop ledger (see services package).
type Trip struct {
	TripID     string
	TripNumber string

	MapperID      string
	RouteID       string
	CompanyID     string
	VehicleTypeID string
	ProjectID     string

	Status string

	StartTime         *time.Time
	EndTime           *time.Time
	ActualDurationSec int64

	StartCoordinates *LatLng
	EndCoordinates   *LatLng

	TotalStops                int
	CurrentStop               int
	TotalPassengersPickedUp   int
	TotalPassengersDroppedOff int
	FinalPassengerCount       int
	TotalFareCollection       float64

	// Passengers assumed aboard before the first recorded stop.
	TotalPassengerAtFirstStop int

	// Denormalized cache of the ledger's stop ids in stop-number order.
	TripStops []string

	LicensePlate string
	Notes        string

	GPSAccuracy *float64

	// Client-supplied hints recorded at trip start; never used for aggregates.
	DistanceHintKm  *float64
	DurationHintSec *int64

	// Invalidated removes the trip from the healthy set, e.g. the source
	// of a split. Deliberately a separate flag from GPSAccuracy.
	Invalidated bool
	Uploaded    bool

	CreatedAt time.Time
}

func (t *Trip) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}
