package hospital

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/geo"
	"github.com/sells-group/synthgeo/internal/place"
)

// CatchmentResult summarizes a catchment assignment run.
type CatchmentResult struct {
	Reused  int
	Sampled int
	Written bool
	Stats   []CatchmentStat
}

// CatchmentStat describes the population bound to one hospital.
type CatchmentStat struct {
	Hospital     place.ID
	Label        string
	Beds         int
	Population   int
	MeanAge      float64
	MeanDistance float64
}

func (e *Engine) persistMapping() bool {
	return e.cfg.MapFile != "" && e.cfg.MapFile != NoMapFile
}

// AssignCatchments binds every household to a visitation hospital in
// registry order. A complete mapping file is reused without sampling. Any
// household missing from it is sampled, and the file is then rewritten in
// full.
func (e *Engine) AssignCatchments(ctx context.Context) (CatchmentResult, error) {
	var res CatchmentResult

	var cached map[string]string
	complete := false
	if e.persistMapping() {
		m, exists, err := LoadMapping(ctx, e.cfg.MapFile)
		if err != nil {
			return res, err
		}
		cached, complete = m, exists
	}

	households := e.reg.Households()
	pairs := make([]Pair, 0, len(households))
	for _, hh := range households {
		h, reused := e.cachedHospital(cached, hh)
		if !reused {
			complete = false
			var ok bool
			h, ok = e.sampleCatchment(hh)
			if !ok {
				return res, eris.Wrapf(ErrUnassigned, "household %s", hh.Label)
			}
			res.Sampled++
		} else {
			res.Reused++
		}
		hh.Household.VisitationHospital = h.ID
		pairs = append(pairs, Pair{Household: hh.Label, Hospital: h.Label})
	}

	res.Stats = e.CatchmentStats()
	for _, s := range res.Stats {
		e.log.Info("hospital catchment",
			zap.String("hospital", s.Label),
			zap.Int("beds", s.Beds),
			zap.Int("population", s.Population),
			zap.Float64("mean_age", s.MeanAge),
			zap.Float64("mean_distance_km", s.MeanDistance),
		)
	}

	if e.persistMapping() && !complete {
		if err := WriteMapping(e.cfg.MapFile, pairs); err != nil {
			return res, err
		}
		res.Written = true
	}

	e.log.Info("catchment assignment complete",
		zap.Int("households", len(households)),
		zap.Int("reused", res.Reused),
		zap.Int("sampled", res.Sampled),
		zap.Bool("mapping_written", res.Written),
	)
	return res, nil
}

func (e *Engine) cachedHospital(cached map[string]string, hh *place.Place) (*place.Place, bool) {
	label, ok := cached[hh.Label]
	if !ok {
		return nil, false
	}
	h, ok := e.reg.PlaceFromLabel(label)
	if !ok || !h.IsHospital() {
		e.log.Warn("mapping names unknown hospital",
			zap.String("household", hh.Label),
			zap.String("hospital", label),
		)
		return nil, false
	}
	return h, true
}

// sampleCatchment uses the first resident's insurance when insurance checks
// are on, then retries without the filter.
func (e *Engine) sampleCatchment(hh *place.Place) (*place.Place, bool) {
	q := Query{}
	if e.cfg.CheckInsurance && hh.Size() > 0 {
		q.CheckInsurance = true
		q.Insurance = e.reg.Person(hh.Occupants[0]).Insurance
	}
	if h, ok := e.Catchment(hh, q); ok {
		return h, true
	}
	if q.CheckInsurance {
		q.CheckInsurance = false
		return e.Catchment(hh, q)
	}
	return nil, false
}

// CatchmentStats aggregates, per hospital in registry order, the residents of
// the households bound to it with their mean age and mean distance.
func (e *Engine) CatchmentStats() []CatchmentStat {
	hospitals := e.reg.Hospitals()
	index := make(map[place.ID]int, len(hospitals))
	stats := make([]CatchmentStat, len(hospitals))
	for i, h := range hospitals {
		index[h.ID] = i
		stats[i] = CatchmentStat{Hospital: h.ID, Label: h.Label, Beds: h.Hospital.BedCount}
	}

	ageSum := make([]float64, len(hospitals))
	distSum := make([]float64, len(hospitals))
	for _, hh := range e.reg.Households() {
		i, ok := index[hh.Household.VisitationHospital]
		if !ok {
			continue
		}
		h := hospitals[i]
		n := hh.Size()
		stats[i].Population += n
		distSum[i] += float64(n) * geo.DistanceKM(hh.Lat, hh.Lon, h.Lat, h.Lon)
		for _, pid := range hh.Occupants {
			ageSum[i] += float64(e.reg.Person(pid).Age)
		}
	}
	for i := range stats {
		if n := stats[i].Population; n > 0 {
			stats[i].MeanAge = ageSum[i] / float64(n)
			stats[i].MeanDistance = distSum[i] / float64(n)
		}
	}
	return stats
}
