// Package staffing moves whole workplace rosters into staff roles at
// schools, hospitals and group-quarters workplaces.
package staffing

import (
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/grid"
	"github.com/sells-group/synthgeo/internal/place"
	"github.com/sells-group/synthgeo/internal/rng"
)

// Rule sizes a staff: Fixed + round_half_up(n / Ratio). A zero ratio leaves
// only the fixed part.
type Rule struct {
	Fixed int
	Ratio float64
}

// Staff returns the desired staff count for occupancy n.
func (r Rule) Staff(n int) int {
	staff := r.Fixed
	if r.Ratio > 0 {
		staff += rng.RoundHalfUp(float64(n) / r.Ratio)
	}
	return staff
}

// Config holds the staffing rules per target type.
type Config struct {
	Schools       bool
	Hospitals     bool
	GroupQuarters bool

	School           Rule
	HospitalFixed    int
	WorkerToBedRatio float64
	College          Rule
	Prison           Rule
	MilitaryBase     Rule
	NursingHome      Rule
}

// HospitalRule converts the worker-to-bed ratio into a staff rule over the
// hospital's employee count. A zero ratio is treated as 1.
func (c Config) HospitalRule() Rule {
	wtb := c.WorkerToBedRatio
	if wtb == 0 {
		wtb = 1
	}
	return Rule{Fixed: c.HospitalFixed, Ratio: 1 / wtb}
}

// Outcome is the result of staffing one target.
type Outcome int

// Staffing outcomes.
const (
	Staffed Outcome = iota
	OutsideRegion
	Unstaffed
)

// Result summarizes a staffing run.
type Result struct {
	Staffed   int
	Outside   int
	Unstaffed int
	Moved     int
}

func (r *Result) add(o Outcome, moved int) {
	switch o {
	case Staffed:
		r.Staffed++
		r.Moved += moved
	case OutsideRegion:
		r.Outside++
	case Unstaffed:
		r.Unstaffed++
	}
}

// Engine reassigns workers using the grid for locality.
type Engine struct {
	reg  *place.Registry
	grid *grid.Grid
	cfg  Config
	log  *zap.Logger
}

// New creates a staffing engine.
func New(reg *place.Registry, g *grid.Grid, cfg Config) *Engine {
	return &Engine{
		reg:  reg,
		grid: g,
		cfg:  cfg,
		log:  zap.L().With(zap.String("component", "staffing")),
	}
}

// Run staffs schools, then hospitals, then group-quarters workplaces by
// subtype (college, prison, military base, nursing home), each in registry
// order.
func (e *Engine) Run() (Result, error) {
	var res Result
	if e.cfg.Schools {
		for _, s := range e.reg.Schools() {
			n := 0
			if s.School != nil {
				n = s.School.OriginalStudents
			}
			o, moved, err := e.Staff(s, e.cfg.School.Staff(n), place.RoleTeacher)
			if err != nil {
				return res, err
			}
			res.add(o, moved)
		}
	}

	if e.cfg.Hospitals {
		rule := e.cfg.HospitalRule()
		for _, h := range e.reg.Hospitals() {
			o, moved, err := e.Staff(h, rule.Staff(h.Hospital.EmployeeCount), place.RoleHospitalStaff)
			if err != nil {
				return res, err
			}
			res.add(o, moved)
		}
	}

	if e.cfg.GroupQuarters {
		residents := e.groupQuartersResidents()
		for _, sub := range []struct {
			subtype place.Subtype
			rule    Rule
		}{
			{place.SubtypeCollege, e.cfg.College},
			{place.SubtypePrison, e.cfg.Prison},
			{place.SubtypeMilitaryBase, e.cfg.MilitaryBase},
			{place.SubtypeNursingHome, e.cfg.NursingHome},
		} {
			for _, w := range e.reg.Workplaces() {
				if w.Subtype != sub.subtype {
					continue
				}
				o, moved, err := e.Staff(w, sub.rule.Staff(residents[w.ID]), place.RoleGroupQuartersStaff)
				if err != nil {
					return res, err
				}
				res.add(o, moved)
			}
		}
	}

	e.log.Info("worker reassignment complete",
		zap.Int("staffed", res.Staffed),
		zap.Int("outside_region", res.Outside),
		zap.Int("unstaffed", res.Unstaffed),
		zap.Int("workers_moved", res.Moved),
	)
	return res, nil
}

// groupQuartersResidents sums residents over every household unit linked to
// each group-quarters workplace.
func (e *Engine) groupQuartersResidents() map[place.ID]int {
	out := make(map[place.ID]int)
	for _, h := range e.reg.Households() {
		if w := h.Household.GroupQuartersWorkplace; w != place.None {
			out[w] += h.Size()
		}
	}
	return out
}

// Staff finds the nearest ordinary workplace with at least staff workers and
// moves its entire roster to target in the given role.
func (e *Engine) Staff(target *place.Place, staff int, role place.Role) (Outcome, int, error) {
	if _, ok := e.grid.PatchAt(target.Lat, target.Lon); !ok {
		e.log.Warn("target outside region",
			zap.String("label", target.Label),
			zap.Float64("lat", target.Lat),
			zap.Float64("lon", target.Lon),
		)
		return OutsideRegion, 0, nil
	}

	src, ok := e.grid.NearbyWorkplace(target.Lat, target.Lon, staff, target.ID)
	if !ok {
		e.log.Warn("no nearby workplace",
			zap.String("label", target.Label),
			zap.Int64("county", target.CountyFIPS()),
			zap.Int("staff", staff),
		)
		return Unstaffed, 0, nil
	}

	moved, err := e.reg.MoveAllWorkers(src.ID, target.ID, role)
	if err != nil {
		return Unstaffed, 0, err
	}
	e.log.Debug("reassigned workers",
		zap.String("from", src.Label),
		zap.String("to", target.Label),
		zap.Stringer("role", role),
		zap.Int("workers", moved),
	)
	return Staffed, moved, nil
}
