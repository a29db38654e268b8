// Package shelter picks households for shelter-in-place or disaster
// evacuation and draws each one's start and end day.
package shelter

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/place"
	"github.com/sells-group/synthgeo/internal/rng"
)

// Config holds the shelter-in-place parameters.
type Config struct {
	Pct          float64
	ByIncome     bool
	DelayMean    float64
	DelayStd     float64
	DurationMean float64
	DurationStd  float64
	EarlyRate    float64
	DecayRate    float64
}

// EvacuationConfig holds the disaster window and evacuation parameters.
type EvacuationConfig struct {
	DisasterStart     int
	DisasterEnd       int
	EvacStartOffset   int
	EvacEndOffset     int
	ReturnStartOffset int
	ReturnEndOffset   int
	EvacProbPerDay    float64
	ReturnProbPerDay  float64
}

// Windows returns the evacuation and return day ranges, both inclusive.
func (c EvacuationConfig) Windows() (evacStart, evacEnd, returnStart, returnEnd int) {
	return c.DisasterStart + c.EvacStartOffset,
		c.DisasterEnd + c.EvacEndOffset,
		c.DisasterEnd + c.ReturnStartOffset,
		c.DisasterEnd + c.ReturnEndOffset
}

// Scheduler draws schedules from one random stream.
type Scheduler struct {
	reg  *place.Registry
	rand rng.Rand
	log  *zap.Logger
}

// New creates a scheduler.
func New(reg *place.Registry, r rng.Rand) *Scheduler {
	return &Scheduler{
		reg:  reg,
		rand: r,
		log:  zap.L().With(zap.String("component", "shelter")),
	}
}

// Count is round_half_up(pct * n).
func Count(pct float64, n int) int {
	return min(max(rng.RoundHalfUp(pct*float64(n)), 0), n)
}

// Select returns round_half_up(pct * n) households. By income it takes the
// highest incomes, highest first, from households ranked by ascending income
// with ties broken by id. Otherwise it shuffles all households and takes the
// leading ones.
func (s *Scheduler) Select(pct float64, byIncome bool) []*place.Place {
	households := slices.Clone(s.reg.Households())
	k := Count(pct, len(households))

	if byIncome {
		slices.SortStableFunc(households, func(a, b *place.Place) int {
			return cmp.Or(
				cmp.Compare(a.Household.Income, b.Household.Income),
				cmp.Compare(a.ID, b.ID),
			)
		})
		out := make([]*place.Place, 0, k)
		for i := range k {
			out = append(out, households[len(households)-1-i])
		}
		return out
	}

	s.rand.Shuffle(len(households), func(i, j int) {
		households[i], households[j] = households[j], households[i]
	})
	return households[:k]
}

// Shelter selects households and draws a shelter schedule for each. It
// returns the number of households scheduled.
func (s *Scheduler) Shelter(cfg Config) int {
	selected := s.Select(cfg.Pct, cfg.ByIncome)
	for _, h := range selected {
		s.shelterHousehold(h, cfg)
	}
	s.log.Info("households sheltering",
		zap.Int("households", s.reg.Count(place.KindHousehold)),
		zap.Int("sheltering", len(selected)),
		zap.Bool("by_income", cfg.ByIncome),
	)
	return len(selected)
}

func (s *Scheduler) shelterHousehold(h *place.Place, cfg Config) {
	start := max(0, rng.RoundHalfUp(s.rand.Normal(cfg.DelayMean, cfg.DelayStd)))
	if cfg.EarlyRate > 0 {
		r := s.rand.Float64()
		for start > 0 && r < cfg.EarlyRate {
			start--
			r = s.rand.Float64()
		}
	}

	duration := max(1, rng.RoundHalfUp(s.rand.Normal(cfg.DurationMean, cfg.DurationStd)))
	if cfg.DecayRate > 0 && s.rand.Float64() < 0.5 {
		duration = 1
		r := s.rand.Float64()
		for float64(duration) < cfg.DurationMean && cfg.DecayRate < r {
			duration++
			r = s.rand.Float64()
		}
	}

	h.Household.Shelter = place.ShelterRecord{
		Scheduled: true,
		StartDay:  start,
		EndDay:    start + duration,
	}
	s.log.Debug("household sheltering",
		zap.String("label", h.Label),
		zap.Int("size", h.Size()),
		zap.Int("income", h.Household.Income),
		zap.Int("start_day", start),
		zap.Int("end_day", start+duration),
	)
}

// Evacuate selects households and walks each through the evacuation window
// with a daily Bernoulli draw. On the first success it walks the return
// window, forcing success on its last day, and accepts only a return day
// after the evacuation day. Households that never evacuate, or that have no
// acceptable return day, stay unscheduled.
func (s *Scheduler) Evacuate(pct float64, byIncome bool, cfg EvacuationConfig) int {
	evacStart, evacEnd, returnStart, returnEnd := cfg.Windows()
	if evacStart < 0 || evacEnd < evacStart {
		s.log.Warn("invalid evacuation window",
			zap.Int("evac_start", evacStart),
			zap.Int("evac_end", evacEnd),
		)
		return 0
	}

	selected := s.Select(pct, byIncome)
	count := 0
	for _, h := range selected {
		for day := evacStart; day <= evacEnd; day++ {
			if s.rand.Float64() >= cfg.EvacProbPerDay {
				continue
			}
			back, ok := s.returnDay(day, returnStart, returnEnd, cfg.ReturnProbPerDay)
			if ok {
				h.Household.Shelter = place.ShelterRecord{
					Scheduled:  true,
					Evacuating: true,
					StartDay:   day,
					EndDay:     back,
				}
				count++
			}
			break
		}
	}

	s.log.Info("households evacuating",
		zap.Int("households", s.reg.Count(place.KindHousehold)),
		zap.Int("selected", len(selected)),
		zap.Int("evacuating", count),
		zap.Int("evac_start", evacStart),
		zap.Int("evac_end", evacEnd),
		zap.Int("return_start", returnStart),
		zap.Int("return_end", returnEnd),
	)
	return count
}

func (s *Scheduler) returnDay(evacDay, start, end int, prob float64) (int, bool) {
	for day := start; day <= end; day++ {
		if (s.rand.Float64() < prob || day == end) && day > evacDay {
			return day, true
		}
	}
	return 0, false
}

// IsShelteringToday reports whether a household's schedule covers day. A
// schedule with no end day stays active.
func IsShelteringToday(h *place.Place, day int) bool {
	if h.Household == nil {
		return false
	}
	rec := h.Household.Shelter
	if !rec.Scheduled || day < rec.StartDay {
		return false
	}
	return rec.EndDay < 0 || day < rec.EndDay
}

// Tracker keys reported per day.
const (
	KeyHouseholdsSheltering = "H_sheltering"
	KeyPersonsSheltering    = "N_sheltering"
	KeyPersonsNotSheltering = "N_noniso"
	KeyResidentsStayed      = "Tot_res_stayed"
	KeyResidentsEvacuated   = "Tot_res_evac"
)

// DailyStats counts, for a shelter run, households and persons sheltering
// today and persons in households never scheduled.
func DailyStats(reg *place.Registry, day int) map[string]int {
	out := map[string]int{
		KeyHouseholdsSheltering: 0,
		KeyPersonsSheltering:    0,
		KeyPersonsNotSheltering: 0,
	}
	for _, h := range reg.Households() {
		if !h.Household.Shelter.Scheduled {
			out[KeyPersonsNotSheltering] += h.Size()
		}
		if IsShelteringToday(h, day) {
			out[KeyHouseholdsSheltering]++
			out[KeyPersonsSheltering] += h.Size()
		}
	}
	return out
}

// EvacuationStats splits residents into those away today and those who
// stayed.
func EvacuationStats(reg *place.Registry, day int) map[string]int {
	out := map[string]int{
		KeyResidentsStayed:    0,
		KeyResidentsEvacuated: 0,
	}
	for _, h := range reg.Households() {
		if IsShelteringToday(h, day) {
			out[KeyResidentsEvacuated] += h.Size()
		} else {
			out[KeyResidentsStayed] += h.Size()
		}
	}
	return out
}
