// Package geo provides the great-circle distance math behind the
// presence geofence check.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between
// two points given in decimal degrees. Inputs are not range-checked:
// NaN or infinite coordinates propagate into the result, and callers
// must treat a non-finite distance as a failed check, never a pass.
func DistanceKm(latA, lonA, latB, lonB float64) float64 {
	dLat := radians(latB - latA)
	dLon := radians(lonB - lonA)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(radians(latA))*math.Cos(radians(latB))*sinLon*sinLon

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
