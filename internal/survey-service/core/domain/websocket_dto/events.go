package websocketdto

import "encoding/json"

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// To trip watchers - a stop was recorded on the watched trip.
type StopRecordedDto struct {
	TripID            string  `json:"trip_id"`
	StopID            string  `json:"stop_id"`
	StopNumber        int     `json:"stop_number"`
	CurrentPassengers int     `json:"current_passengers"`
	TotalStops        int     `json:"total_stops"`
	TotalFare         float64 `json:"total_fare"`
}

// To trip watchers - the watched trip changed lifecycle state.
type TripStatusUpdateDto struct {
	TripID     string `json:"trip_id"`
	TripNumber string `json:"trip_number"`
	Status     string `json:"status"`
}
