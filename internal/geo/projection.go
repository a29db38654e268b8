// Package geo provides the distance and projection helpers used by the
// regional grid and the hospital assignment engine.
package geo

import "math"

// Earth and projection constants.
const (
	EarthRadiusKM     = 6371.0
	KMPerDegreeLat    = 111.325
	DefaultLatitude   = 38.0 // mean latitude of the continental US
	degreesToRadians  = math.Pi / 180.0
	minKMPerDegreeLon = 1e-6
)

// Projection converts lat/lon degrees to planar kilometers using a fixed
// km-per-degree scale. It is accurate enough for grid bucketing within a
// single metropolitan region.
type Projection struct {
	KMPerDegLat float64
	KMPerDegLon float64
}

// NewProjection returns a projection scaled at the given latitude.
func NewProjection(lat float64) Projection {
	lon := math.Cos(lat*degreesToRadians) * KMPerDegreeLat
	if lon < minKMPerDegreeLon {
		lon = minKMPerDegreeLon
	}
	return Projection{KMPerDegLat: KMPerDegreeLat, KMPerDegLon: lon}
}

// DefaultProjection is scaled at DefaultLatitude.
func DefaultProjection() Projection {
	return NewProjection(DefaultLatitude)
}

// X returns the planar x coordinate (km) of a longitude.
func (p Projection) X(lon float64) float64 { return lon * p.KMPerDegLon }

// Y returns the planar y coordinate (km) of a latitude.
func (p Projection) Y(lat float64) float64 { return lat * p.KMPerDegLat }

// Lon inverts X.
func (p Projection) Lon(x float64) float64 { return x / p.KMPerDegLon }

// Lat inverts Y.
func (p Projection) Lat(y float64) float64 { return y / p.KMPerDegLat }
