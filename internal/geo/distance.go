package geo

import "math"

const earthRadiusM = 6371000.0

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c / 1000
}

// ValidLatLng reports whether the pair is a well-formed WGS84 coordinate.
func ValidLatLng(lat, lng float64) bool {
	return math.Abs(lat) <= 90 && math.Abs(lng) <= 180
}
