package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/synthgeo/internal/fetcher"
	"github.com/sells-group/synthgeo/internal/place"
)

const (
	householdsCSV = `sp_id,serialno,stcotrbg,race,hh_income,hh_size,hh_age,latitude,longitude
1,100,420030101001,1,52000,2,40,40.44,-79.99
2,101,420030102002,2,31000,1,70,40.46,-80.01
`
	workplacesCSV = `sp_id,workers,latitude,longitude
10,25,40.45,-80.00
`
	schoolsCSV = `sp_id,name,stabbr,address,city,county,zip,zip4,nces_id,total,prek,kinder,gr01_gr12,ungraded,latitude,longitude,source,stco
20,Elm,PA,1 Elm St,Pittsburgh,Allegheny,15213,0,1,500,0,50,450,0,40.43,-79.95,nces,42003
`
	hospitalsCSV = `sp_id,name,addr,city,state,zip,workers,physicians,beds,latitude,longitude
30,General,1 Main,Pittsburgh,PA,15213,400,50,300,40.44,-79.96
31,Corner Clinic,2 Main,Pittsburgh,PA,15213,10,2,0,40.45,-79.97
`
	gqCSV = `sp_id,gq_type,persons,stcotrbg,latitude,longitude
40,C,10,420030103001,40.47,-79.94
41,X,4,420030103001,40.47,-79.94
`
	peopleCSV = `sp_id,sp_hh_id,age,school_id,work_id,insurance
100,H1,9,S20,,0
101,H1,38,,W10,1
102,H2,71,,-1,-1
103,H40,19,S20,,2
104,H1,40,,W999,0
`
)

func writeFiles(t *testing.T, files map[string]string) Files {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	p := func(name string) string { return filepath.Join(dir, name) }
	return Files{
		Households:    p("households.txt"),
		People:        p("people.txt"),
		Workplaces:    p("workplaces.txt"),
		Schools:       p("schools.txt"),
		Hospitals:     p("hospitals.txt"),
		GroupQuarters: p("gq.txt"),
	}
}

func allFiles() map[string]string {
	return map[string]string{
		"households.txt": householdsCSV,
		"people.txt":     peopleCSV,
		"workplaces.txt": workplacesCSV,
		"schools.txt":    schoolsCSV,
		"hospitals.txt":  hospitalsCSV,
		"gq.txt":         gqCSV,
	}
}

func testOptions() Options {
	return Options{
		Hospitals:     true,
		GroupQuarters: true,
		MeanUnitSizes: DefaultMeanUnitSizes(),
		Capacity: place.HospitalCapacity{
			MinBedThreshold:              5,
			OutpatientsPerEmployee:       0.5,
			ClinicOutpatientsPerEmployee: 2,
		},
	}
}

func TestLoad(t *testing.T) {
	reg := place.NewRegistry()
	c, err := New(reg, testOptions()).Load(context.Background(), writeFiles(t, allFiles()))
	require.NoError(t, err)

	assert.Equal(t, Counts{
		Households:    2,
		Workplaces:    1,
		Schools:       1,
		Hospitals:     2,
		GroupQuarters: 2,
		Units:         3,
		People:        5,
	}, c)

	h1, ok := reg.PlaceFromLabel("H1")
	require.True(t, ok)
	assert.Equal(t, int64(42003010100), h1.TractFIPS)
	assert.Equal(t, int64(42003), h1.CountyFIPS())
	assert.Equal(t, 52000, h1.Household.Income)
	assert.Equal(t, 1, h1.Household.Race)
	assert.InDelta(t, 40.44, h1.Lat, 1e-9)
	assert.InDelta(t, -79.99, h1.Lon, 1e-9)
	assert.Equal(t, 3, h1.Size())

	s, ok := reg.PlaceFromLabel("S20")
	require.True(t, ok)
	assert.Equal(t, int64(42003000000), s.TractFIPS)
	assert.Equal(t, 2, s.School.OriginalStudents)
}

func TestLoad_Hospitals(t *testing.T) {
	reg := place.NewRegistry()
	_, err := New(reg, testOptions()).Load(context.Background(), writeFiles(t, allFiles()))
	require.NoError(t, err)

	m, _ := reg.PlaceFromLabel("M30")
	assert.Equal(t, place.SubtypeNone, m.Subtype)
	assert.Equal(t, 300, m.Hospital.BedCount)
	assert.Equal(t, 200, m.Hospital.DailyPatientCapacity)

	clinic, _ := reg.PlaceFromLabel("M31")
	assert.True(t, clinic.IsClinic())
	assert.Equal(t, 20, clinic.Hospital.DailyPatientCapacity)
}

func TestLoad_GroupQuarters(t *testing.T) {
	reg := place.NewRegistry()
	_, err := New(reg, testOptions()).Load(context.Background(), writeFiles(t, allFiles()))
	require.NoError(t, err)

	w, ok := reg.PlaceFromLabel("W40")
	require.True(t, ok)
	assert.Equal(t, place.SubtypeCollege, w.Subtype)

	// 10 residents at 3.5 per dorm room floors to 2 units.
	primary, ok := reg.PlaceFromLabel("H40")
	require.True(t, ok)
	assert.True(t, primary.IsGroupQuarters())
	assert.Equal(t, 2, primary.Household.GroupQuartersUnits)
	assert.Equal(t, w.ID, primary.Household.GroupQuartersWorkplace)
	assert.Equal(t, int64(42003010300), primary.TractFIPS)

	unit, ok := reg.PlaceFromLabel("H40-001")
	require.True(t, ok)
	assert.Equal(t, w.ID, unit.Household.GroupQuartersWorkplace)
	assert.Equal(t, place.SubtypeCollege, unit.Subtype)
	_, ok = reg.PlaceFromLabel("H40-002")
	assert.False(t, ok)

	other, ok := reg.PlaceFromLabel("H41")
	require.True(t, ok)
	assert.Equal(t, place.SubtypeNone, other.Subtype)
	assert.Equal(t, 1, other.Household.GroupQuartersUnits)
}

func TestLoad_People(t *testing.T) {
	reg := place.NewRegistry()
	_, err := New(reg, testOptions()).Load(context.Background(), writeFiles(t, allFiles()))
	require.NoError(t, err)

	kid, ok := reg.PersonFromLabel("100")
	require.True(t, ok)
	s, _ := reg.PlaceFromLabel("S20")
	assert.Equal(t, s.ID, kid.School)
	assert.Equal(t, place.None, kid.Workplace)
	assert.Equal(t, place.InsurancePrivate, kid.Insurance)

	adult, _ := reg.PersonFromLabel("101")
	w, _ := reg.PlaceFromLabel("W10")
	assert.Equal(t, w.ID, adult.Workplace)
	assert.Contains(t, w.Workers, adult.ID)

	retiree, _ := reg.PersonFromLabel("102")
	assert.Equal(t, place.None, retiree.Workplace)
	assert.Equal(t, place.InsuranceNone, retiree.Insurance)

	// Unknown workplace labels are dropped.
	lost, _ := reg.PersonFromLabel("104")
	assert.Equal(t, place.None, lost.Workplace)
}

func TestLoad_Bounds(t *testing.T) {
	reg := place.NewRegistry()
	_, err := New(reg, testOptions()).Load(context.Background(), writeFiles(t, allFiles()))
	require.NoError(t, err)

	b := reg.Bounds()
	assert.InDelta(t, 40.43, b.Min[1], 1e-9)
	assert.InDelta(t, 40.47, b.Max[1], 1e-9)
	assert.InDelta(t, -80.01, b.Min[0], 1e-9)
	assert.InDelta(t, -79.94, b.Max[0], 1e-9)
}

func TestLoad_FeaturesDisabled(t *testing.T) {
	files := allFiles()
	delete(files, "hospitals.txt")
	delete(files, "gq.txt")
	files["people.txt"] = "sp_id,sp_hh_id,age,school_id,work_id,insurance\n100,H1,9,S20,,0\n"

	opts := testOptions()
	opts.Hospitals = false
	opts.GroupQuarters = false

	reg := place.NewRegistry()
	c, err := New(reg, opts).Load(context.Background(), writeFiles(t, files))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Hospitals)
	assert.Equal(t, 0, reg.Count(place.KindHospital))
}

func TestLoad_MissingFile(t *testing.T) {
	files := allFiles()
	delete(files, "schools.txt")

	_, err := New(place.NewRegistry(), testOptions()).Load(context.Background(), writeFiles(t, files))
	require.Error(t, err)
	assert.True(t, eris.Is(err, fetcher.ErrNotFound))
	assert.Contains(t, err.Error(), "schools")
}

func TestLoad_UnknownHousehold(t *testing.T) {
	files := allFiles()
	files["people.txt"] = "500,H77,30,,,0\n"

	_, err := New(place.NewRegistry(), testOptions()).Load(context.Background(), writeFiles(t, files))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown household")
}

func TestLoad_BadField(t *testing.T) {
	files := allFiles()
	files["workplaces.txt"] = "10,25,north,-80.00\n"

	_, err := New(place.NewRegistry(), testOptions()).Load(context.Background(), writeFiles(t, files))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workplace 10")
}

func TestLoad_ShortRow(t *testing.T) {
	files := allFiles()
	files["hospitals.txt"] = "30,General\n"

	_, err := New(place.NewRegistry(), testOptions()).Load(context.Background(), writeFiles(t, files))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing field")
}

func TestRecordPrefix(t *testing.T) {
	r := record{row: []string{"420030101001", "42003", "4200"}}
	assert.Equal(t, int64(42003010100), r.tract(0))
	assert.Equal(t, int64(42003), r.county(0))
	assert.Equal(t, int64(42003), r.tract(1))
	assert.Equal(t, int64(4200), r.county(2))
	assert.NoError(t, r.err)
}
