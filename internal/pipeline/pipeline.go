// Package pipeline builds the synthetic geography in a fixed phase order and
// runs the per-day updates on top of it.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/census"
	"github.com/sells-group/synthgeo/internal/config"
	"github.com/sells-group/synthgeo/internal/grid"
	"github.com/sells-group/synthgeo/internal/groupquarters"
	"github.com/sells-group/synthgeo/internal/hospital"
	"github.com/sells-group/synthgeo/internal/ingest"
	"github.com/sells-group/synthgeo/internal/place"
	"github.com/sells-group/synthgeo/internal/report"
	"github.com/sells-group/synthgeo/internal/rng"
	"github.com/sells-group/synthgeo/internal/shelter"
	"github.com/sells-group/synthgeo/internal/staffing"
	"github.com/sells-group/synthgeo/internal/store"
)

// Summary collects what each setup phase produced.
type Summary struct {
	Seed              uint64
	Counts            ingest.Counts
	Patches           int
	Neighborhoods     int
	Counties          int
	Tracts            int
	Units             int
	Staffing          staffing.Result
	Classrooms        int
	Offices           int
	Catchment         hospital.CatchmentResult
	PrimaryCareMissed int
	Selected          int
	MobileClinics     int
	PlacesSaved       int64
}

// Pipeline owns the registry and the single random stream every phase draws
// from. A nil store keeps tracker values in memory only.
type Pipeline struct {
	cfg   *config.Config
	store store.Store
	rand  *rng.Stream
	log   *zap.Logger

	reg       *place.Registry
	grid      *grid.Grid
	agg       *census.Aggregator
	hospitals *hospital.Engine
	shelter   *shelter.Scheduler
	tracker   *Tracker
	run       *store.Run
	summary   Summary
}

type phase struct {
	name string
	skip bool
	fn   func(ctx context.Context) error
}

// New creates a pipeline. A zero seed draws a fresh one.
func New(cfg *config.Config, st store.Store) (*Pipeline, error) {
	seed := cfg.Random.Seed
	if seed == 0 {
		s, err := rng.NewSeed()
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: seed")
		}
		seed = s
	}
	r := rng.New(seed)
	return &Pipeline{
		cfg:     cfg,
		store:   st,
		rand:    r,
		log:     zap.L().With(zap.String("component", "pipeline"), zap.Uint64("seed", seed)),
		reg:     place.NewRegistry(),
		tracker: NewTracker(),
		summary: Summary{Seed: seed},
	}, nil
}

// Registry returns the place registry being built.
func (p *Pipeline) Registry() *place.Registry { return p.reg }

// Summary returns the setup results so far.
func (p *Pipeline) Summary() Summary { return p.summary }

// Tracker returns the in-memory daily values.
func (p *Pipeline) Tracker() *Tracker { return p.tracker }

// Hospitals returns the hospital engine, or nil before catchment assignment
// or when hospitals are disabled.
func (p *Pipeline) Hospitals() *hospital.Engine { return p.hospitals }

// Run returns the persisted run, or nil before Persist.
func (p *Pipeline) Run() *store.Run { return p.run }

// Seed returns the seed of the random stream.
func (p *Pipeline) Seed() uint64 { return p.rand.Seed() }

func (p *Pipeline) trackPhase(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start).Milliseconds()
	if err != nil {
		p.log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
		return eris.Wrapf(err, "pipeline: %s", name)
	}
	p.log.Info("pipeline: phase complete",
		zap.String("phase", name),
		zap.Int64("duration_ms", duration),
	)
	return nil
}

func (p *Pipeline) runPhases(ctx context.Context, phases []phase) error {
	for _, ph := range phases {
		if ph.skip {
			p.log.Debug("pipeline: phase skipped", zap.String("phase", ph.name))
			continue
		}
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: cancelled")
		}
		if err := p.trackPhase(ph.name, func() error { return ph.fn(ctx) }); err != nil {
			return err
		}
	}
	return nil
}

// Setup runs every setup phase in order and writes the reports.
func (p *Pipeline) Setup(ctx context.Context) error {
	hosp := p.cfg.Hospital.Enabled
	phases := []phase{
		{name: "ingest", fn: p.ingest},
		{name: "grid", fn: p.buildGrid},
		{name: "neighborhoods", fn: p.neighborhoods},
		{name: "aggregate", fn: p.aggregate},
		{name: "group_quarters", skip: !p.cfg.GroupQuarters.Enabled, fn: p.groupQuarters},
		{name: "staffing", fn: p.staff},
		{name: "classrooms_offices", fn: p.carve},
		{name: "hospital_catchment", skip: !hosp, fn: p.catchment},
		{name: "primary_care", skip: !hosp || !p.cfg.Hospital.PrimaryCare, fn: p.primaryCare},
		{name: "household_selection", fn: p.selectHouseholds},
		{name: "mobile_clinics", skip: !hosp, fn: p.mobileClinics},
		{name: "reports", fn: p.reports},
	}
	if err := p.runPhases(ctx, phases); err != nil {
		return err
	}
	s := p.summary
	p.log.Info("pipeline: setup complete",
		zap.Int("households", s.Counts.Households),
		zap.Int("people", s.Counts.People),
		zap.Int("neighborhoods", s.Neighborhoods),
		zap.Int("staffed", s.Staffing.Staffed),
		zap.Int("classrooms", s.Classrooms),
		zap.Int("offices", s.Offices),
		zap.Int("selected_households", s.Selected),
	)
	return nil
}

func (p *Pipeline) ingest(ctx context.Context) error {
	loader := ingest.New(p.reg, ingestOptions(p.cfg))
	c, err := loader.Load(ctx, ingestFiles(p.cfg.Input))
	if err != nil {
		return err
	}
	p.summary.Counts = c
	return nil
}

func (p *Pipeline) buildGrid(_ context.Context) error {
	g, err := grid.New(p.reg, grid.Config{
		PatchSizeKM:     p.cfg.Geography.PatchSizeKM,
		UseMeanLatitude: p.cfg.Geography.UseMeanLatitude,
	})
	if err != nil {
		return err
	}
	p.grid = g
	p.summary.Patches = g.Rows() * g.Cols()
	return nil
}

func (p *Pipeline) neighborhoods(_ context.Context) error {
	p.summary.Neighborhoods = p.grid.MakeNeighborhoods()
	return nil
}

func (p *Pipeline) aggregate(_ context.Context) error {
	p.agg = census.Aggregate(p.reg)
	p.summary.Counties = len(p.agg.Counties())
	p.summary.Tracts = len(p.agg.Tracts())
	return nil
}

func (p *Pipeline) groupQuarters(_ context.Context) error {
	n, err := groupquarters.PartitionAll(p.reg)
	p.summary.Units = n
	return err
}

func (p *Pipeline) staff(_ context.Context) error {
	res, err := staffing.New(p.reg, p.grid, staffingConfig(p.cfg)).Run()
	p.summary.Staffing = res
	return err
}

func (p *Pipeline) carve(_ context.Context) error {
	c, o, err := CarvePlaces(p.reg, p.cfg.Places.ClassroomSize, p.cfg.Places.OfficeSize)
	p.summary.Classrooms, p.summary.Offices = c, o
	return err
}

func (p *Pipeline) hospitalEngine() (*hospital.Engine, error) {
	if p.hospitals != nil {
		return p.hospitals, nil
	}
	e, err := hospital.New(p.reg, p.grid, p.rand, hospitalConfig(p.cfg))
	if err != nil {
		return nil, err
	}
	p.hospitals = e
	return e, nil
}

func (p *Pipeline) catchment(ctx context.Context) error {
	e, err := p.hospitalEngine()
	if err != nil {
		return err
	}
	res, err := e.AssignCatchments(ctx)
	p.summary.Catchment = res
	return err
}

func (p *Pipeline) primaryCare(_ context.Context) error {
	e, err := p.hospitalEngine()
	if err != nil {
		return err
	}
	p.summary.PrimaryCareMissed = e.AssignPrimaryCare()
	return nil
}

func (p *Pipeline) selectHouseholds(_ context.Context) error {
	p.shelter = shelter.New(p.reg, p.rand)
	switch {
	case p.cfg.Shelter.Enabled:
		p.summary.Selected = p.shelter.Shelter(shelterConfig(p.cfg.Shelter))
	case p.cfg.Evacuation.Enabled:
		ev := p.cfg.Evacuation
		p.summary.Selected = p.shelter.Evacuate(ev.Compliance, ev.ByIncome, evacuationConfig(ev))
	}
	return nil
}

func (p *Pipeline) mobileClinics(_ context.Context) error {
	e, err := p.hospitalEngine()
	if err != nil {
		return err
	}
	p.summary.MobileClinics = e.ActivateMobileClinics()
	return nil
}

func (p *Pipeline) reports(ctx context.Context) error {
	return report.NewWriter(p.cfg.Output.Dir, p.cfg.Output.Shapefile).WriteAll(ctx, p.reg, p.agg)
}

// Persist records a run for the configured number of days and, when
// enabled, exports every place. It is a no-op without a store.
func (p *Pipeline) Persist(ctx context.Context, days int) error {
	if p.store == nil {
		return nil
	}
	run, err := p.store.CreateRun(ctx, p.Seed(), days)
	if err != nil {
		return eris.Wrap(err, "pipeline: create run")
	}
	p.run = run
	p.log = p.log.With(zap.String("run_id", run.ID))

	if !p.cfg.Store.SavePlaces {
		return nil
	}
	n, err := p.store.SavePlaces(ctx, run.ID, store.PlaceRows(p.reg))
	if err != nil {
		return eris.Wrap(err, "pipeline: save places")
	}
	p.summary.PlacesSaved = n
	p.log.Info("pipeline: places saved", zap.Int64("rows", n))
	return nil
}
