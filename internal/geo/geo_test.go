package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

func TestDistanceKM(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, delta            float64
	}{
		{"same point", 40.44, -79.99, 40.44, -79.99, 0, 1e-9},
		{"one degree latitude", 40, -80, 41, -80, 111.19, 0.1},
		{"pittsburgh to philadelphia", 40.4406, -79.9959, 39.9526, -75.1652, 411, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceKM(tt.lat1, tt.lon1, tt.lat2, tt.lon2), tt.delta)
		})
	}
}

func TestProjection(t *testing.T) {
	p := NewProjection(0)
	assert.InDelta(t, KMPerDegreeLat, p.KMPerDegLon, 1e-9)

	p = NewProjection(60)
	assert.InDelta(t, KMPerDegreeLat/2, p.KMPerDegLon, 1e-6)
	assert.InDelta(t, -80.0, p.Lon(p.X(-80)), 1e-9)
	assert.InDelta(t, 40.0, p.Lat(p.Y(40)), 1e-9)

	d := DefaultProjection()
	assert.Less(t, d.KMPerDegLon, d.KMPerDegLat)
}

func TestProjection_Pole(t *testing.T) {
	p := NewProjection(90)
	assert.Greater(t, p.KMPerDegLon, 0.0)
}

func TestEncodePoint(t *testing.T) {
	data, err := EncodePoint(40.44, -79.99)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	g, err := ewkb.Unmarshal(data)
	require.NoError(t, err)
	pt, ok := g.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, SRID, pt.SRID())
	assert.InDelta(t, -79.99, pt.X(), 1e-9)
	assert.InDelta(t, 40.44, pt.Y(), 1e-9)
}
