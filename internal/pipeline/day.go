package pipeline

import (
	"context"
	"maps"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/hospital"
	"github.com/sells-group/synthgeo/internal/shelter"
	"github.com/sells-group/synthgeo/internal/store"
)

var (
	hospitalKeys   = []string{hospital.KeyTotalCapacity, hospital.KeyOpenCapacity, hospital.KeyOpen, hospital.KeyClosed}
	shelterKeys    = []string{shelter.KeyHouseholdsSheltering, shelter.KeyPersonsSheltering, shelter.KeyPersonsNotSheltering}
	evacuationKeys = []string{shelter.KeyResidentsStayed, shelter.KeyResidentsEvacuated}
)

// Tracker holds daily values keyed by day then name. Keys keep the order
// they were first recorded in.
type Tracker struct {
	keys   []string
	days   []int
	values map[int]map[string]int
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{values: make(map[int]map[string]int)}
}

// Record stores one day of values in the given key order. Recording a day
// twice overwrites matching keys.
func (t *Tracker) Record(day int, keys []string, values map[string]int) {
	row, ok := t.values[day]
	if !ok {
		row = make(map[string]int, len(keys))
		t.values[day] = row
		t.days = append(t.days, day)
	}
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		if !slices.Contains(t.keys, k) {
			t.keys = append(t.keys, k)
		}
		row[k] = v
	}
}

// Value returns the value of key on day.
func (t *Tracker) Value(day int, key string) (int, bool) {
	v, ok := t.values[day][key]
	return v, ok
}

// Keys returns every recorded key.
func (t *Tracker) Keys() []string { return t.keys }

// Days returns recorded days in recording order.
func (t *Tracker) Days() []int { return t.days }

// Metrics flattens one day for persistence.
func (t *Tracker) Metrics(day int) []store.Metric {
	return store.MetricsFromMap(day, t.keys, t.values[day])
}

// dayKeys lists the tracker keys reported under the current configuration.
func (p *Pipeline) dayKeys() []string {
	var keys []string
	if p.cfg.Hospital.Enabled {
		keys = append(keys, hospitalKeys...)
	}
	switch {
	case p.cfg.Shelter.Enabled:
		keys = append(keys, shelterKeys...)
	case p.cfg.Evacuation.Enabled:
		keys = append(keys, evacuationKeys...)
	}
	return keys
}

// Day runs the per-day updates: hospital outpatient counters are reset,
// then hospital and household status is counted into the tracker and, when
// a run is persisted, the store. Outpatient visits are admitted by the
// caller's daily model through Hospitals().AdmitOutpatient; Day only starts
// each day from zero.
func (p *Pipeline) Day(ctx context.Context, day int) (map[string]int, error) {
	values := make(map[string]int)
	if p.cfg.Hospital.Enabled {
		if p.hospitals != nil {
			p.hospitals.ResetDaily()
		}
		maps.Copy(values, hospital.DailyStats(p.reg, day))
	}
	switch {
	case p.cfg.Shelter.Enabled:
		maps.Copy(values, shelter.DailyStats(p.reg, day))
	case p.cfg.Evacuation.Enabled:
		maps.Copy(values, shelter.EvacuationStats(p.reg, day))
	}

	keys := p.dayKeys()
	p.tracker.Record(day, keys, values)

	if p.store != nil && p.run != nil {
		if err := p.store.RecordMetrics(ctx, p.run.ID, store.MetricsFromMap(day, keys, values)); err != nil {
			return values, eris.Wrapf(err, "pipeline: record day %d", day)
		}
	}
	p.log.Debug("pipeline: day complete", zap.Int("day", day), zap.Any("values", values))
	return values, nil
}

// Simulate runs Day for days 0 through days-1 and marks the run complete,
// or failed on the first error.
func (p *Pipeline) Simulate(ctx context.Context, days int) error {
	err := p.simulate(ctx, days)
	p.finish(ctx, err)
	return err
}

func (p *Pipeline) simulate(ctx context.Context, days int) error {
	for day := range days {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: cancelled")
		}
		if _, err := p.Day(ctx, day); err != nil {
			return err
		}
	}
	p.log.Info("pipeline: simulation complete", zap.Int("days", days))
	return nil
}

func (p *Pipeline) finish(ctx context.Context, err error) {
	if p.store == nil || p.run == nil {
		return
	}
	status := store.RunStatusComplete
	if err != nil {
		status = store.RunStatusFailed
	}
	if uerr := p.store.UpdateRunStatus(ctx, p.run.ID, status); uerr != nil {
		p.log.Warn("pipeline: failed to update run status", zap.String("status", string(status)), zap.Error(uerr))
		return
	}
	p.run.Status = status
}

// Execute runs setup, persists the run and simulates days.
func (p *Pipeline) Execute(ctx context.Context, days int) error {
	if err := p.Setup(ctx); err != nil {
		return err
	}
	if err := p.Persist(ctx, days); err != nil {
		return err
	}
	return p.Simulate(ctx, days)
}
