// Package hospital binds households to catchment hospitals and persons to
// primary-care panels, and admits daily outpatients, all through one
// distance-weighted random selection.
package hospital

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/geo"
	"github.com/sells-group/synthgeo/internal/grid"
	"github.com/sells-group/synthgeo/internal/place"
	"github.com/sells-group/synthgeo/internal/rng"
)

// ErrNoHospitals is returned when hospital features run without any hospital.
var ErrNoHospitals = eris.New("hospital: no hospitals in simulation")

// ErrUnassigned is returned when a household resolves to no hospital.
var ErrUnassigned = eris.New("hospital: household has no hospital")

// DefaultNearbyMin is how many hospitals a catchment search collects.
const DefaultNearbyMin = 5

// Config controls hospital assignment.
type Config struct {
	Radius         float64 // km, 0 disables the radius limit
	CheckInsurance bool
	NearbyMin      int
	MapFile        string // "none" or empty disables the mapping file
	Mobile         MobileConfig
}

// Query carries the per-call selection constraints.
type Query struct {
	Day            int
	Insurance      place.Insurance
	CheckInsurance bool
	UseRadius      bool
}

// Panel is a hospital's primary-care panel counter.
type Panel struct {
	Target  int
	Current int
}

// Engine performs catchment, primary-care and daily selections. Its panel
// counters are scoped to one run.
type Engine struct {
	reg  *place.Registry
	grid *grid.Grid
	rand rng.Rand
	cfg  Config
	log  *zap.Logger

	panels map[place.ID]*Panel
}

// New creates an engine. It fails with ErrNoHospitals when the registry holds
// no hospitals.
func New(reg *place.Registry, g *grid.Grid, r rng.Rand, cfg Config) (*Engine, error) {
	if reg.Count(place.KindHospital) == 0 {
		return nil, ErrNoHospitals
	}
	if cfg.NearbyMin <= 0 {
		cfg.NearbyMin = DefaultNearbyMin
	}
	return &Engine{
		reg:  reg,
		grid: g,
		rand: r,
		cfg:  cfg,
		log:  zap.L().With(zap.String("component", "hospital")),
	}, nil
}

func (e *Engine) withinRadius(q Query, d float64) bool {
	return !q.UseRadius || e.cfg.Radius <= 0 || d <= e.cfg.Radius
}

func (e *Engine) pick(cands []*place.Place, lat, lon float64, weight func(h *place.Place, d float64) float64) (*place.Place, bool) {
	weights := make([]float64, len(cands))
	for i, h := range cands {
		d := geo.DistanceKM(lat, lon, h.Lat, h.Lon)
		if d <= 0 {
			continue
		}
		weights[i] = weight(h, d)
	}
	i, ok := Select(e.rand, weights)
	if !ok {
		return nil, false
	}
	return cands[i], true
}

// Catchment picks a hospital for a household from the hospitals near its
// patch, weighted by bed count over distance. Clinics, closed hospitals and
// hospitals with no free bed are ineligible.
func (e *Engine) Catchment(hh *place.Place, q Query) (*place.Place, bool) {
	cands := e.grid.NearbyHospitals(hh.Lat, hh.Lon, e.cfg.NearbyMin)
	return e.pick(cands, hh.Lat, hh.Lon, func(p *place.Place, d float64) float64 {
		h := p.Hospital
		if p.IsClinic() || !h.IsOpen(q.Day) || h.OccupiedBeds >= h.BedCount {
			return 0
		}
		if q.CheckInsurance && !h.Accepts(q.Insurance) {
			return 0
		}
		return float64(h.BedCount) / d
	})
}

// Daily picks any open hospital with spare daily outpatient capacity,
// weighted by daily capacity over squared distance.
func (e *Engine) Daily(lat, lon float64, q Query) (*place.Place, bool) {
	return e.pick(e.reg.Hospitals(), lat, lon, func(p *place.Place, d float64) float64 {
		h := p.Hospital
		if !h.IsOpen(q.Day) || h.CurrentDailyPatients >= h.DailyPatientCapacity {
			return 0
		}
		if !e.withinRadius(q, d) || (q.CheckInsurance && !h.Accepts(q.Insurance)) {
			return 0
		}
		return float64(h.DailyPatientCapacity) / (d * d)
	})
}

// PreparePrimaryCare sets every hospital's panel target to its share of the
// total bed capacity of non-mobile hospitals times the population, rounded
// up. Mobile clinics get no panel. Calling it again is a no-op.
func (e *Engine) PreparePrimaryCare(population int) {
	if e.panels != nil {
		return
	}
	hospitals := e.reg.Hospitals()
	total := 0
	for _, h := range hospitals {
		if !h.IsMobileClinic() {
			total += h.Hospital.BedCount
		}
	}

	e.panels = make(map[place.ID]*Panel, len(hospitals))
	for _, h := range hospitals {
		target := 0
		if !h.IsMobileClinic() && total > 0 {
			share := float64(h.Hospital.BedCount) / float64(total)
			target = int(math.Ceil(share * float64(population)))
		}
		e.panels[h.ID] = &Panel{Target: target}
	}
	e.log.Info("primary care panels prepared",
		zap.Int("hospitals", len(hospitals)),
		zap.Int("beds", total),
		zap.Int("population", population),
	)
}

// Panel returns a hospital's panel counter.
func (e *Engine) Panel(id place.ID) (Panel, bool) {
	p, ok := e.panels[id]
	if !ok {
		return Panel{}, false
	}
	return *p, true
}

// PrimaryCare picks a hospital with an unfilled panel, open on day 0,
// weighted by daily capacity over squared distance. A successful pick
// increments the panel. PreparePrimaryCare must run first.
func (e *Engine) PrimaryCare(lat, lon float64, q Query) (*place.Place, bool) {
	if e.panels == nil {
		e.PreparePrimaryCare(len(e.reg.Persons()))
	}
	h, ok := e.pick(e.reg.Hospitals(), lat, lon, func(p *place.Place, d float64) float64 {
		panel := e.panels[p.ID]
		if !p.Hospital.IsOpen(0) || panel.Current >= panel.Target {
			return 0
		}
		if !e.withinRadius(q, d) || (q.CheckInsurance && !p.Hospital.Accepts(q.Insurance)) {
			return 0
		}
		return float64(p.Hospital.DailyPatientCapacity) / (d * d)
	})
	if !ok {
		return nil, false
	}
	e.panels[h.ID].Current++
	return h, true
}

// relaxed returns the queries to try in order: as given, then without the
// insurance filter, then without the radius limit.
func relaxed(q Query) []Query {
	out := []Query{q}
	if q.CheckInsurance {
		q.CheckInsurance = false
		out = append(out, q)
	}
	if q.UseRadius {
		q.UseRadius = false
		out = append(out, q)
	}
	return out
}

// AssignPrimaryCare gives every person with a household a primary-care
// hospital, in registry order. It returns how many persons could not be
// placed.
func (e *Engine) AssignPrimaryCare() int {
	e.PreparePrimaryCare(len(e.reg.Persons()))
	missed := 0
	for _, p := range e.reg.Persons() {
		hh := e.reg.Place(p.Household)
		if hh == nil {
			continue
		}
		var assigned *place.Place
		for _, q := range relaxed(Query{Insurance: p.Insurance, CheckInsurance: e.cfg.CheckInsurance, UseRadius: true}) {
			if h, ok := e.PrimaryCare(hh.Lat, hh.Lon, q); ok {
				assigned = h
				break
			}
		}
		if assigned == nil {
			missed++
			continue
		}
		p.PrimaryCare = assigned.ID
	}
	if missed > 0 {
		e.log.Warn("persons without primary care", zap.Int("count", missed))
	}
	return missed
}

// AdmitOutpatient picks a daily hospital for a person and counts the visit.
func (e *Engine) AdmitOutpatient(day int, pid place.PersonID) (*place.Place, bool) {
	p := e.reg.Person(pid)
	if p == nil {
		return nil, false
	}
	hh := e.reg.Place(p.Household)
	if hh == nil {
		return nil, false
	}
	for _, q := range relaxed(Query{Day: day, Insurance: p.Insurance, CheckInsurance: e.cfg.CheckInsurance, UseRadius: true}) {
		if h, ok := e.Daily(hh.Lat, hh.Lon, q); ok {
			h.Hospital.CurrentDailyPatients++
			return h, true
		}
	}
	return nil, false
}

// ResetDaily clears every hospital's daily outpatient count.
func (e *Engine) ResetDaily() {
	for _, h := range e.reg.Hospitals() {
		h.Hospital.CurrentDailyPatients = 0
	}
}
