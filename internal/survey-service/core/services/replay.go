package services

import (
	"transit-mapper/internal/geo"
	"transit-mapper/internal/survey-service/core/domain/model"
)

// Replay recomputes every running field of stops[from:] from its
// predecessor: current passengers, cumulative passengers, travel time,
// distance, revenue and segment speed. The base for stops[0] is the
// trip's seed passenger count. Stops before 'from' are never touched.
//
// Stored arrive/depart times are treated as data and left alone; the
// ledger services synthesize them before calling Replay.
func Replay(trip *model.Trip, stops []model.Stop, from int) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(stops); i++ {
		s := &stops[i]

		base := trip.TotalPassengerAtFirstStop
		segDistKm := 0.0
		segTravelMin := 0.0
		cumPassengers := s.PassengersIn
		cumTravelMin := 0.0
		cumDistKm := 0.0
		cumRevenue := s.Revenue()

		if i > 0 {
			prev := &stops[i-1]
			base = prev.CurrentPassengers
			segDistKm = geo.HaversineKm(prev.Lat, prev.Lng, s.Lat, s.Lng)
			segTravelMin = s.ArriveTime.Sub(prev.DepartTime).Minutes()
			if segTravelMin < 0 {
				segTravelMin = 0
			}
			cumPassengers = prev.CumPassengers + s.PassengersIn
			cumTravelMin = prev.CumTravelTimeMin + segTravelMin
			cumDistKm = prev.CumDistanceKm + segDistKm
			cumRevenue = prev.CumRevenue + s.Revenue()
		}

		// A vehicle's load never goes negative, even if the input data disagrees.
		current := base + s.PassengersIn - s.PassengersOut
		if current < 0 {
			current = 0
		}

		s.CurrentPassengers = current
		s.CumPassengers = cumPassengers
		s.CumTravelTimeMin = cumTravelMin
		s.CumDistanceKm = cumDistKm
		s.CumRevenue = cumRevenue
		if segTravelMin > 0 {
			s.SpeedKmh = segDistKm / (segTravelMin / 60)
		} else {
			s.SpeedKmh = 0
		}
	}
}

// Renumber restores the contiguous 1..N stop numbering.
func Renumber(stops []model.Stop) {
	for i := range stops {
		stops[i].StopNumber = i + 1
	}
}

// RecomputeAggregates rewrites the trip's cached summary fields as a pure
// function of the full stop ledger. Idempotent; must run inside the same
// transaction as the ledger mutation that made it necessary.
func RecomputeAggregates(trip *model.Trip, stops []model.Stop) {
	trip.TotalStops = len(stops)
	trip.CurrentStop = len(stops)

	pickedUp, droppedOff := 0, 0
	fare := 0.0
	tripStops := make([]string, 0, len(stops))
	for i := range stops {
		pickedUp += stops[i].PassengersIn
		droppedOff += stops[i].PassengersOut
		// Revenue is earned by boarding passengers only.
		fare += stops[i].Revenue()
		tripStops = append(tripStops, stops[i].StopID)
	}

	trip.TotalPassengersPickedUp = pickedUp
	trip.TotalPassengersDroppedOff = droppedOff
	trip.TotalFareCollection = fare
	trip.TripStops = tripStops

	if len(stops) == 0 {
		trip.FinalPassengerCount = trip.TotalPassengerAtFirstStop
		trip.StartCoordinates = nil
		trip.EndCoordinates = nil
		return
	}

	trip.FinalPassengerCount = stops[len(stops)-1].CurrentPassengers
	trip.StartCoordinates = &model.LatLng{Lat: stops[0].Lat, Lng: stops[0].Lng}
	trip.EndCoordinates = &model.LatLng{Lat: stops[len(stops)-1].Lat, Lng: stops[len(stops)-1].Lng}
}
