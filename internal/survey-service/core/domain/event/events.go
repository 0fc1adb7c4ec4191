package event

// Broker payloads

const (
	TypeTripStarted    = "trip.started"
	TypeTripCompleted  = "trip.completed"
	TypeTripCancelled  = "trip.cancelled"
	TypeTripSplit      = "trip.split"
	TypeTripDuplicated = "trip.duplicated"
)

type TripEvent struct {
	Type       string `json:"type"`
	TripID     string `json:"trip_id"`
	TripNumber string `json:"trip_number"`
	MapperID   string `json:"mapper_id"`
	RouteID    string `json:"route_id"`
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`

	// Filled for split/duplicate events.
	SuccessorTripNumbers []string `json:"successor_trip_numbers,omitempty"`
}
