// Package report writes setup outputs: FIPS listings for visualization, the
// household size and income summary, and a household point shapefile.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/synthgeo/internal/census"
	"github.com/sells-group/synthgeo/internal/place"
)

// SizeBuckets is the number of household size buckets; the last holds every
// household at or above SizeBuckets-1.
const SizeBuckets = 11

// Output file names relative to the output directory.
const (
	CountiesFile  = "VIS/COUNTIES"
	TractsFile    = "VIS/CENSUS_TRACTS"
	SummaryFile   = "households.yaml"
	ShapefileName = "households.shp"
)

// SizeBucket is one row of the household size distribution.
type SizeBucket struct {
	Size  int     `yaml:"size"`
	Count int     `yaml:"count"`
	Pct   float64 `yaml:"pct"`
}

// IncomeStats summarizes household incomes.
type IncomeStats struct {
	Min           int `yaml:"min"`
	FirstQuartile int `yaml:"first_quartile"`
	Median        int `yaml:"median"`
	ThirdQuartile int `yaml:"third_quartile"`
	Max           int `yaml:"max"`
}

// AreaPopulation is the household and resident count of one county.
type AreaPopulation struct {
	FIPS       string `yaml:"fips"`
	Households int    `yaml:"households"`
	Persons    int    `yaml:"persons"`
}

// Summary is the household report written as YAML.
type Summary struct {
	Households int              `yaml:"households"`
	Counties   int              `yaml:"counties"`
	Tracts     int              `yaml:"tracts"`
	Population []AreaPopulation `yaml:"county_population"`
	Sizes      []SizeBucket     `yaml:"size_distribution"`
	Income     IncomeStats      `yaml:"income"`
}

// SizeDistribution counts households by resident count.
func SizeDistribution(reg *place.Registry) []SizeBucket {
	hh := reg.Households()
	out := make([]SizeBucket, SizeBuckets)
	for i := range out {
		out[i].Size = i
	}
	for _, h := range hh {
		out[min(h.Size(), SizeBuckets-1)].Count++
	}
	if len(hh) > 0 {
		for i := range out {
			out[i].Pct = 100 * float64(out[i].Count) / float64(len(hh))
		}
	}
	return out
}

// Incomes returns min, quartiles and max of household income. Quartiles are
// taken at n/4, n/2 and 3n/4 of the sorted incomes.
func Incomes(reg *place.Registry) IncomeStats {
	hh := reg.Households()
	if len(hh) == 0 {
		return IncomeStats{}
	}
	v := make([]int, len(hh))
	for i, h := range hh {
		v[i] = h.Household.Income
	}
	slices.Sort(v)
	n := len(v)
	return IncomeStats{
		Min:           v[0],
		FirstQuartile: v[n/4],
		Median:        v[n/2],
		ThirdQuartile: v[(3*n)/4],
		Max:           v[n-1],
	}
}

// CountyPopulations lists every county in first-seen order with its
// household and resident counts.
func CountyPopulations(reg *place.Registry, agg *census.Aggregator) []AreaPopulation {
	fips := agg.CountyFIPS()
	out := make([]AreaPopulation, len(fips))
	for i, c := range agg.Counties() {
		out[i] = AreaPopulation{
			FIPS:       fips[i],
			Households: len(c.Households),
			Persons:    census.Population(reg, c),
		}
	}
	return out
}

// Summarize builds the household summary.
func Summarize(reg *place.Registry, agg *census.Aggregator) Summary {
	return Summary{
		Households: reg.Count(place.KindHousehold),
		Counties:   len(agg.Counties()),
		Tracts:     len(agg.Tracts()),
		Population: CountyPopulations(reg, agg),
		Sizes:      SizeDistribution(reg),
		Income:     Incomes(reg),
	}
}

// Writer writes reports under a directory.
type Writer struct {
	dir       string
	shapefile bool
	log       *zap.Logger
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string, shapefile bool) *Writer {
	return &Writer{
		dir:       dir,
		shapefile: shapefile,
		log:       zap.L().With(zap.String("component", "report")),
	}
}

// WriteAll writes every report concurrently. Reports only read the registry.
func (w *Writer) WriteAll(ctx context.Context, reg *place.Registry, agg *census.Aggregator) error {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return w.WriteFIPS(agg) })
	g.Go(func() error { return w.WriteSummary(Summarize(reg, agg)) })
	if w.shapefile {
		g.Go(func() error { return w.WriteShapefile(reg) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	w.log.Info("reports written", zap.String("dir", w.dir))
	return nil
}

// WriteFIPS writes one county code per line to VIS/COUNTIES and one tract
// code per line to VIS/CENSUS_TRACTS.
func (w *Writer) WriteFIPS(agg *census.Aggregator) error {
	if err := writeLines(filepath.Join(w.dir, CountiesFile), agg.CountyFIPS()); err != nil {
		return err
	}
	return writeLines(filepath.Join(w.dir, TractsFile), agg.TractFIPS())
}

// WriteSummary writes the household summary as YAML.
func (w *Writer) WriteSummary(s Summary) error {
	path := filepath.Join(w.dir, SummaryFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "report: mkdir for %s", path)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "report: marshal summary")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	w.log.Info("household income stats",
		zap.Int("households", s.Households),
		zap.Int("min", s.Income.Min),
		zap.Int("first_quartile", s.Income.FirstQuartile),
		zap.Int("median", s.Income.Median),
		zap.Int("third_quartile", s.Income.ThirdQuartile),
		zap.Int("max", s.Income.Max),
	)
	return nil
}

// WriteShapefile writes one point per household with its label, size, income
// and tract.
func (w *Writer) WriteShapefile(reg *place.Registry) error {
	path := filepath.Join(w.dir, ShapefileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "report: mkdir for %s", path)
	}
	out, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "report: create shapefile %s", path)
	}

	werr := writeHouseholdShapes(out, reg)
	out.Close()

	// go-shp v0.1.1 names the attribute table "<base>dbf".
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrapf(err, "report: rename %sdbf", base)
	}
	return werr
}

func writeHouseholdShapes(out *shp.Writer, reg *place.Registry) error {
	fields := []shp.Field{
		shp.StringField("LABEL", 32),
		shp.NumberField("SIZE", 8),
		shp.NumberField("INCOME", 12),
		shp.StringField("TRACT", 11),
	}
	if err := out.SetFields(fields); err != nil {
		return eris.Wrap(err, "report: shapefile fields")
	}

	for _, h := range reg.Households() {
		row := int(out.Write(&shp.Point{X: h.Lon, Y: h.Lat}))
		attrs := []any{h.Label, h.Size(), h.Household.Income, fmt.Sprintf("%011d", h.TractFIPS)}
		for i, v := range attrs {
			if err := out.WriteAttribute(row, i, v); err != nil {
				return eris.Wrapf(err, "report: shapefile attribute %s", h.Label)
			}
		}
	}
	return nil
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "report: mkdir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	cw := csv.NewWriter(f)
	for _, l := range lines {
		if err := cw.Write([]string{l}); err != nil {
			return eris.Wrapf(err, "report: write %s", path)
		}
	}
	cw.Flush()
	return eris.Wrapf(cw.Error(), "report: flush %s", path)
}
