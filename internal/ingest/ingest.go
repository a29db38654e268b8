// Package ingest loads the synthetic population record files into a place
// registry.
package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/fetcher"
	"github.com/sells-group/synthgeo/internal/groupquarters"
	"github.com/sells-group/synthgeo/internal/place"
)

// HeaderID marks header rows in every record file.
const HeaderID = "sp_id"

// Files names the record files. Hospitals and GroupQuarters are read only
// when the matching feature is enabled.
type Files struct {
	Households    string
	People        string
	Workplaces    string
	Schools       string
	Hospitals     string
	GroupQuarters string
}

// MeanUnitSizes is the mean resident count of one group-quarters unit.
type MeanUnitSizes struct {
	College      float64
	MilitaryBase float64
	Prison       float64
	NursingHome  float64
}

// DefaultMeanUnitSizes returns dorm, barracks, cell and room sizes.
func DefaultMeanUnitSizes() MeanUnitSizes {
	return MeanUnitSizes{College: 3.5, MilitaryBase: 12, Prison: 1.5, NursingHome: 1.5}
}

// Options configures a Loader.
type Options struct {
	Delimiter     rune
	Hospitals     bool
	GroupQuarters bool
	MeanUnitSizes MeanUnitSizes
	Capacity      place.HospitalCapacity
}

// Counts reports what a load added.
type Counts struct {
	Households    int
	Workplaces    int
	Schools       int
	Hospitals     int
	GroupQuarters int
	Units         int
	People        int
}

// Loader reads record files into a registry.
type Loader struct {
	reg  *place.Registry
	opts Options
	log  *zap.Logger
}

// New returns a Loader that fills reg.
func New(reg *place.Registry, opts Options) *Loader {
	return &Loader{
		reg:  reg,
		opts: opts,
		log:  zap.L().With(zap.String("component", "ingest")),
	}
}

// Load reads every file in order: households, schools, workplaces,
// hospitals, group quarters, people. A missing required file is fatal.
func (l *Loader) Load(ctx context.Context, files Files) (Counts, error) {
	var c Counts
	steps := []struct {
		name string
		path string
		skip bool
		fn   func([]string) error
	}{
		{"households", files.Households, false, l.household(&c)},
		{"schools", files.Schools, false, l.school(&c)},
		{"workplaces", files.Workplaces, false, l.workplace(&c)},
		{"hospitals", files.Hospitals, !l.opts.Hospitals, l.hospital(&c)},
		{"group quarters", files.GroupQuarters, !l.opts.GroupQuarters, l.groupQuarters(&c)},
		{"people", files.People, false, l.person(&c)},
	}
	for _, s := range steps {
		if s.skip {
			continue
		}
		if err := l.read(ctx, s.path, s.fn); err != nil {
			return c, eris.Wrapf(err, "ingest: %s", s.name)
		}
	}

	for _, s := range l.reg.Schools() {
		s.School.OriginalStudents = s.Size()
	}

	l.log.Info("population loaded",
		zap.Int("households", c.Households),
		zap.Int("workplaces", c.Workplaces),
		zap.Int("schools", c.Schools),
		zap.Int("hospitals", c.Hospitals),
		zap.Int("group_quarters", c.GroupQuarters),
		zap.Int("units", c.Units),
		zap.Int("people", c.People),
	)
	return c, nil
}

func (l *Loader) read(ctx context.Context, path string, fn func([]string) error) error {
	f, err := fetcher.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	opts := fetcher.CSVOptions{
		Delimiter: l.opts.Delimiter,
		SkipIDs:   []string{HeaderID},
		TrimSpace: true,
	}
	return fetcher.ReadAll(ctx, f, opts, fn)
}

func (l *Loader) household(c *Counts) func([]string) error {
	return func(row []string) error {
		r := record{row: row}
		id := r.str(0)
		tract := r.tract(2)
		race := r.integer(3)
		income := r.integer(4)
		lat := r.decimal(7)
		lon := r.decimal(8)
		if r.err != nil {
			return eris.Wrapf(r.err, "household %s", id)
		}

		h := l.reg.AddPlace(label(place.KindHousehold, id), place.KindHousehold, place.SubtypeNone, lon, lat, tract)
		h.Household.Race = race
		h.Household.Income = income
		c.Households++
		return nil
	}
}

func (l *Loader) school(c *Counts) func([]string) error {
	return func(row []string) error {
		r := record{row: row}
		id := r.str(0)
		lat := r.decimal(14)
		lon := r.decimal(15)
		county := r.county(17)
		if r.err != nil {
			return eris.Wrapf(r.err, "school %s", id)
		}

		l.reg.AddPlace(label(place.KindSchool, id), place.KindSchool, place.SubtypeNone, lon, lat, county*1_000_000)
		c.Schools++
		return nil
	}
}

func (l *Loader) workplace(c *Counts) func([]string) error {
	return func(row []string) error {
		r := record{row: row}
		id := r.str(0)
		lat := r.decimal(2)
		lon := r.decimal(3)
		if r.err != nil {
			return eris.Wrapf(r.err, "workplace %s", id)
		}

		l.reg.AddPlace(label(place.KindWorkplace, id), place.KindWorkplace, place.SubtypeNone, lon, lat, 0)
		c.Workplaces++
		return nil
	}
}

func (l *Loader) hospital(c *Counts) func([]string) error {
	return func(row []string) error {
		r := record{row: row}
		id := r.str(0)
		workers := r.integer(6)
		physicians := r.integer(7)
		beds := r.integer(8)
		lat := r.decimal(9)
		lon := r.decimal(10)
		if r.err != nil {
			return eris.Wrapf(r.err, "hospital %s", id)
		}

		h := l.reg.AddPlace(label(place.KindHospital, id), place.KindHospital, place.SubtypeNone, lon, lat, 0)
		place.ClassifyHospital(h, workers, physicians, beds, l.opts.Capacity)
		c.Hospitals++
		return nil
	}
}

// groupQuarters adds a staff workplace, the primary household and its extra
// units. All units share the coordinates and tract of the record and link
// back to the workplace.
func (l *Loader) groupQuarters(c *Counts) func([]string) error {
	return func(row []string) error {
		r := record{row: row}
		id := r.str(0)
		code := r.str(1)
		capacity := r.integer(2)
		tract := r.tract(3)
		lat := r.decimal(4)
		lon := r.decimal(5)
		if r.err != nil {
			return eris.Wrapf(r.err, "group quarters %s", id)
		}

		subtype, mean := l.gqSubtype(code)
		if subtype == place.SubtypeNone {
			l.log.Warn("unknown group quarters type", zap.String("id", id), zap.String("type", code))
		}
		units := groupquarters.Units(capacity, mean)

		w := l.reg.AddPlace(label(place.KindWorkplace, id), place.KindWorkplace, subtype, lon, lat, tract)
		primary := l.reg.AddPlace(label(place.KindHousehold, id), place.KindHousehold, subtype, lon, lat, tract)
		primary.Household.GroupQuartersUnits = units
		primary.Household.GroupQuartersWorkplace = w.ID
		for i := 1; i < units; i++ {
			u := l.reg.AddPlace(fmt.Sprintf("%s-%03d", primary.Label, i), place.KindHousehold, subtype, lon, lat, tract)
			u.Household.GroupQuartersWorkplace = w.ID
		}
		l.log.Debug("group quarters added",
			zap.String("label", primary.Label),
			zap.Stringer("subtype", subtype),
			zap.Int("capacity", capacity),
			zap.Int("units", units),
		)
		c.GroupQuarters++
		c.Units += units
		return nil
	}
}

func (l *Loader) gqSubtype(code string) (place.Subtype, float64) {
	m := l.opts.MeanUnitSizes
	switch code {
	case "C":
		return place.SubtypeCollege, m.College
	case "M":
		return place.SubtypeMilitaryBase, m.MilitaryBase
	case "P":
		return place.SubtypePrison, m.Prison
	case "N":
		return place.SubtypeNursingHome, m.NursingHome
	}
	return place.SubtypeNone, 0
}

// person reads id, household, age, school, workplace and insurance. Place
// columns hold full labels; empty or "-1" means none.
func (l *Loader) person(c *Counts) func([]string) error {
	return func(row []string) error {
		r := record{row: row}
		id := r.str(0)
		hh := r.str(1)
		age := r.integer(2)
		school := r.str(3)
		work := r.str(4)
		ins := r.integer(5)
		if r.err != nil {
			return eris.Wrapf(r.err, "person %s", id)
		}

		p := place.NewPerson(id, age, place.Insurance(ins))
		h, ok := l.reg.PlaceFromLabel(hh)
		if !ok || !h.IsHousehold() {
			return eris.Errorf("person %s: unknown household %q", id, hh)
		}
		p.Household = h.ID
		p.School = l.ref(id, school, place.KindSchool)
		p.Workplace = l.ref(id, work, place.KindWorkplace)

		if _, err := l.reg.AddPerson(p); err != nil {
			return err
		}
		c.People++
		return nil
	}
}

func (l *Loader) ref(person, lbl string, kind place.Kind) place.ID {
	if lbl == "" || lbl == place.NoLabel {
		return place.None
	}
	p, ok := l.reg.PlaceFromLabel(lbl)
	if !ok || p.Kind != kind {
		l.log.Warn("person references unknown place",
			zap.String("person", person),
			zap.String("label", lbl),
			zap.Stringer("kind", kind),
		)
		return place.None
	}
	return p.ID
}

func label(kind place.Kind, id string) string {
	return string(kind.Prefix()) + id
}

// record reads typed fields from a row, keeping the first error.
type record struct {
	row []string
	err error
}

func (r *record) str(i int) string {
	if r.err != nil {
		return ""
	}
	if i >= len(r.row) {
		r.err = eris.Errorf("missing field %d (have %d)", i, len(r.row))
		return ""
	}
	return r.row[i]
}

func (r *record) integer(i int) int {
	s := r.str(i)
	if r.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		r.err = eris.Wrapf(err, "field %d", i)
	}
	return v
}

func (r *record) decimal(i int) float64 {
	s := r.str(i)
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.err = eris.Wrapf(err, "field %d", i)
	}
	return v
}

// tract keeps the state, county and tract digits of a block-group FIPS.
func (r *record) tract(i int) int64 {
	return r.prefix(i, 11)
}

// county keeps the state and county digits.
func (r *record) county(i int) int64 {
	return r.prefix(i, 5)
}

func (r *record) prefix(i, n int) int64 {
	s := strings.TrimSpace(r.str(i))
	if r.err != nil {
		return 0
	}
	if len(s) > n {
		s = s[:n]
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		r.err = eris.Wrapf(err, "field %d", i)
	}
	return v
}
