package model

import "time"

// Stop is one boarding/alighting event within a trip's ledger. Running
// fields (CurrentPassengers, Cum*) are never authoritative on their own:
// they are recomputed from the ledger head on every mutation.
type Stop struct {
	StopID     string
	TripID     string
	StopNumber int

	PassengersIn      int
	PassengersOut     int
	CurrentPassengers int

	FareAmount float64

	Lat float64
	Lng float64

	// Pre-snap coordinates, filled by the external road-snapping job.
	OriginalLat   *float64
	OriginalLng   *float64
	SnappedToRoad bool

	ArriveTime   time.Time
	DepartTime   time.Time
	DwellTimeMin float64

	CumPassengers    int
	CumTravelTimeMin float64
	CumDistanceKm    float64
	CumRevenue       float64
	SpeedKmh         float64
}

func (s *Stop) Revenue() float64 {
	return s.FareAmount * float64(s.PassengersIn)
}
