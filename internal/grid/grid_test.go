package grid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/synthgeo/internal/place"
)

// newRegion lays households on a 0.5 degree lattice starting at (40, -80).
func newRegion(t *testing.T) *place.Registry {
	t.Helper()
	r := place.NewRegistry()
	for i := range 5 {
		for j := range 5 {
			lat := 40 + float64(i)*0.5
			lon := -80 + float64(j)*0.5
			r.AddPlace(fmt.Sprintf("H%d%d", i, j), place.KindHousehold, place.SubtypeNone, lon, lat, 42003000100)
		}
	}
	return r
}

func addWorkplace(t *testing.T, r *place.Registry, label string, sub place.Subtype, lat, lon float64, workers int) *place.Place {
	t.Helper()
	w := r.AddPlace(label, place.KindWorkplace, sub, lon, lat, 0)
	home := r.Households()[0]
	for range workers {
		p := place.NewPerson("", 40, place.InsuranceNone)
		p.Household, p.Workplace = home.ID, w.ID
		_, err := r.AddPerson(p)
		require.NoError(t, err)
	}
	return w
}

func TestNew(t *testing.T) {
	r := newRegion(t)
	g, err := New(r, Config{PatchSizeKM: 20})
	require.NoError(t, err)

	assert.Greater(t, g.Rows(), 1)
	assert.Greater(t, g.Cols(), 1)

	total := 0
	for _, p := range g.Patches() {
		total += len(p.Households)
	}
	assert.Equal(t, 25, total)

	for _, h := range r.Households() {
		require.NotNil(t, h.Household.Patch)
		p, ok := g.PatchAt(h.Lat, h.Lon)
		require.True(t, ok)
		assert.Equal(t, p.Row, h.Household.Patch.Row)
		assert.Equal(t, p.Col, h.Household.Patch.Col)
	}
}

func TestNew_Empty(t *testing.T) {
	_, err := New(place.NewRegistry(), Config{})
	assert.Error(t, err)
}

func TestNew_MeanLatitude(t *testing.T) {
	r := newRegion(t)
	def, err := New(r, Config{})
	require.NoError(t, err)
	mean, err := New(r, Config{UseMeanLatitude: true})
	require.NoError(t, err)
	assert.NotEqual(t, def.Projection().KMPerDegLon, mean.Projection().KMPerDegLon)
}

func TestPatchAt_Outside(t *testing.T) {
	g, err := New(newRegion(t), Config{})
	require.NoError(t, err)

	_, ok := g.PatchAt(30, -80)
	assert.False(t, ok)
	_, ok = g.PatchAt(40, -90)
	assert.False(t, ok)
	_, ok = g.PatchAt(40, -80)
	assert.True(t, ok)
}

func TestNearbyWorkplace(t *testing.T) {
	r := newRegion(t)
	small := addWorkplace(t, r, "W1", place.SubtypeNone, 40.01, -80.01, 2)
	big := addWorkplace(t, r, "W2", place.SubtypeNone, 41.9, -78.1, 10)
	base := addWorkplace(t, r, "W3", place.SubtypeMilitaryBase, 40.02, -80.02, 50)
	g, err := New(r, Config{PatchSizeKM: 20})
	require.NoError(t, err)

	got, ok := g.NearbyWorkplace(40, -80, 2, place.None)
	require.True(t, ok)
	assert.Equal(t, small.ID, got.ID)
	assert.NotEqual(t, base.ID, got.ID)

	got, ok = g.NearbyWorkplace(40, -80, 5, place.None)
	require.True(t, ok)
	assert.Equal(t, big.ID, got.ID)

	got, ok = g.NearbyWorkplace(40, -80, 5, big.ID)
	assert.False(t, ok)
	assert.Nil(t, got)

	_, ok = g.NearbyWorkplace(40, -80, 11, place.None)
	assert.False(t, ok)

	_, ok = g.NearbyWorkplace(10, 10, 1, place.None)
	assert.False(t, ok)
}

func TestNearbyWorkplace_ClosestInRing(t *testing.T) {
	r := newRegion(t)
	far := addWorkplace(t, r, "W1", place.SubtypeNone, 40.1, -80.1, 3)
	near := addWorkplace(t, r, "W2", place.SubtypeNone, 40.01, -80.01, 3)
	g, err := New(r, Config{PatchSizeKM: 50})
	require.NoError(t, err)

	got, ok := g.NearbyWorkplace(40, -80, 1, place.None)
	require.True(t, ok)
	assert.Equal(t, near.ID, got.ID)
	assert.NotEqual(t, far.ID, got.ID)
}

func TestNearbyWorkplace_OutsideHouseholdExtent(t *testing.T) {
	r := place.NewRegistry()
	r.AddPlace("H1", place.KindHousehold, place.SubtypeNone, -80, 40, 0)
	r.AddPlace("H2", place.KindHousehold, place.SubtypeNone, -79.5, 40.5, 0)
	w := addWorkplace(t, r, "W1", place.SubtypeNone, 39.99, -80.01, 1)
	g, err := New(r, Config{PatchSizeKM: 20})
	require.NoError(t, err)

	_, ok := g.PatchAt(w.Lat, w.Lon)
	assert.True(t, ok)

	got, ok := g.NearbyWorkplace(40, -80, 1, place.None)
	require.True(t, ok)
	assert.Equal(t, w.ID, got.ID)
}

func TestNearbyHospitals(t *testing.T) {
	r := newRegion(t)
	var ids []place.ID
	for i := range 6 {
		m := r.AddPlace(fmt.Sprintf("M%d", i), place.KindHospital, place.SubtypeNone, -78+float64(-i)*0.4, 42-float64(i)*0.4, 0)
		ids = append(ids, m.ID)
	}
	g, err := New(r, Config{PatchSizeKM: 20})
	require.NoError(t, err)

	got := g.NearbyHospitals(40, -80, 2)
	require.GreaterOrEqual(t, len(got), 2)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].ID, got[i].ID)
	}

	all := g.NearbyHospitals(40, -80, 100)
	assert.Len(t, all, 6)

	outside := g.NearbyHospitals(0, 0, 1)
	assert.NotEmpty(t, outside)
}

func TestMakeNeighborhoods(t *testing.T) {
	r := newRegion(t)
	g, err := New(r, Config{PatchSizeKM: 20})
	require.NoError(t, err)

	n := g.MakeNeighborhoods()
	assert.Equal(t, 25, n)
	assert.Len(t, r.Neighborhoods(), 25)
	for _, h := range r.Households() {
		nb := r.Place(h.Household.Neighborhood)
		require.NotNil(t, nb)
		assert.Equal(t, place.KindNeighborhood, nb.Kind)
	}

	assert.Equal(t, 0, g.MakeNeighborhoods())
}
