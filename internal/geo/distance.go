package geo

import (
	"github.com/golang/geo/s2"
)

// DistanceKM returns the great-circle distance between two points in km.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKM
}
