package common

import "math"

// earthRadiusMeters is the mean earth radius used for haversine distance.
const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance in meters between two
// (lat, lng) coordinates given in degrees. Used to match users against
// geo-fenced achievements (max_distance is stored in meters).
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
