package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/hospital"
)

// RegenerateMapping rebuilds the household to hospital mapping file from
// scratch. It loads the population, builds the grid, partitions group
// quarters so household sizes match setup, removes any existing file and
// samples every household again.
func (p *Pipeline) RegenerateMapping(ctx context.Context) (hospital.CatchmentResult, error) {
	path := mapPath(p.cfg.Hospital)
	if path == "" || path == hospital.NoMapFile {
		return hospital.CatchmentResult{}, eris.New("pipeline: mapping file disabled")
	}

	phases := []phase{
		{name: "ingest", fn: p.ingest},
		{name: "grid", fn: p.buildGrid},
		{name: "group_quarters", skip: !p.cfg.GroupQuarters.Enabled, fn: p.groupQuarters},
		{name: "remove_mapping", fn: func(context.Context) error { return removeIfExists(path) }},
		{name: "hospital_catchment", fn: p.catchment},
	}
	if err := p.runPhases(ctx, phases); err != nil {
		return p.summary.Catchment, err
	}
	p.log.Info("pipeline: mapping regenerated",
		zap.String("path", path),
		zap.Int("households", p.summary.Catchment.Sampled),
	)
	return p.summary.Catchment, nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(err, "pipeline: remove %s", path)
	}
	return nil
}
