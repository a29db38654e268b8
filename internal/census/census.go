// Package census groups households into counties and census tracts keyed by
// FIPS prefixes.
package census

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/place"
)

// Area is a county or census tract and the households inside it.
type Area struct {
	FIPS       int64
	Households []place.ID
}

// Aggregator owns the counties and tracts seen so far, in first-seen order.
type Aggregator struct {
	counties    []*Area
	tracts      []*Area
	countyIndex map[int64]int
	tractIndex  map[int64]int
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{
		countyIndex: make(map[int64]int),
		tractIndex:  make(map[int64]int),
	}
}

// Aggregate builds counties and tracts from every household in the registry.
func Aggregate(reg *place.Registry) *Aggregator {
	a := New()
	for _, h := range reg.Households() {
		a.Add(h)
	}
	zap.L().With(zap.String("component", "census")).Info("aggregated households",
		zap.Int("counties", len(a.counties)),
		zap.Int("tracts", len(a.tracts)),
	)
	return a
}

// Add files a household under its tract and county. Households without a
// tract code are ignored.
func (a *Aggregator) Add(h *place.Place) {
	if h.TractFIPS <= 0 {
		return
	}
	a.tracts = addTo(a.tracts, a.tractIndex, h.TractFIPS, h.ID)
	a.counties = addTo(a.counties, a.countyIndex, h.CountyFIPS(), h.ID)
}

func addTo(areas []*Area, index map[int64]int, fips int64, id place.ID) []*Area {
	i, ok := index[fips]
	if !ok {
		i = len(areas)
		index[fips] = i
		areas = append(areas, &Area{FIPS: fips})
	}
	areas[i].Households = append(areas[i].Households, id)
	return areas
}

// Counties returns counties in first-seen order.
func (a *Aggregator) Counties() []*Area { return a.counties }

// Tracts returns census tracts in first-seen order.
func (a *Aggregator) Tracts() []*Area { return a.tracts }

// CountyFIPS lists county codes zero-padded to five digits.
func (a *Aggregator) CountyFIPS() []string {
	out := make([]string, len(a.counties))
	for i, c := range a.counties {
		out[i] = fmt.Sprintf("%05d", c.FIPS)
	}
	return out
}

// TractFIPS lists tract codes zero-padded to eleven digits.
func (a *Aggregator) TractFIPS() []string {
	out := make([]string, len(a.tracts))
	for i, c := range a.tracts {
		out[i] = fmt.Sprintf("%011d", c.FIPS)
	}
	return out
}

// Population counts the residents of an area's households.
func Population(reg *place.Registry, area *Area) int {
	n := 0
	for _, id := range area.Households {
		n += reg.Place(id).Size()
	}
	return n
}
