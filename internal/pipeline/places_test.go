package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/synthgeo/internal/place"
)

func carveRegistry(t *testing.T, students, workers int) *place.Registry {
	t.Helper()
	reg := place.NewRegistry()
	hh := reg.AddPlace("H1", place.KindHousehold, place.SubtypeNone, -80, 40.4, 42003010100)
	school := reg.AddPlace("S7", place.KindSchool, place.SubtypeNone, -80.01, 40.41, 42003000000)
	work := reg.AddPlace("W9", place.KindWorkplace, place.SubtypeNone, -80.02, 40.42, 0)

	for i := range students {
		p := place.NewPerson(fmt.Sprintf("s%d", i), 10, place.InsuranceNone)
		p.Household, p.School = hh.ID, school.ID
		_, err := reg.AddPerson(p)
		require.NoError(t, err)
	}
	for i := range workers {
		p := place.NewPerson(fmt.Sprintf("w%d", i), 40, place.InsuranceNone)
		p.Household, p.Workplace = hh.ID, work.ID
		_, err := reg.AddPerson(p)
		require.NoError(t, err)
	}
	return reg
}

func TestCarvePlaces(t *testing.T) {
	tests := []struct {
		name           string
		students       int
		workers        int
		classroomSize  int
		officeSize     int
		wantClassrooms int
		wantOffices    int
	}{
		{"exact fit", 4, 6, 2, 3, 2, 2},
		{"remainder", 5, 7, 2, 3, 3, 3},
		{"single", 1, 1, 40, 50, 1, 1},
		{"empty", 0, 0, 40, 50, 0, 0},
		{"disabled", 5, 5, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := carveRegistry(t, tt.students, tt.workers)
			c, o, err := CarvePlaces(reg, tt.classroomSize, tt.officeSize)
			require.NoError(t, err)
			assert.Equal(t, tt.wantClassrooms, c)
			assert.Equal(t, tt.wantOffices, o)
			assert.Equal(t, c, reg.Count(place.KindClassroom))
			assert.Equal(t, o, reg.Count(place.KindOffice))
		})
	}
}

func TestCarvePlaces_OrderAndLabels(t *testing.T) {
	reg := carveRegistry(t, 3, 0)
	_, _, err := CarvePlaces(reg, 2, 0)
	require.NoError(t, err)

	school, _ := reg.PlaceFromLabel("S7")
	first, ok := reg.PlaceFromLabel("C7-001")
	require.True(t, ok)
	second, ok := reg.PlaceFromLabel("C7-002")
	require.True(t, ok)

	assert.Equal(t, school.Occupants[:2], first.Occupants)
	assert.Equal(t, school.Occupants[2:], second.Occupants)
	assert.Equal(t, school.ID, second.Container)
	assert.Equal(t, school.Lat, second.Lat)
	assert.Equal(t, school.TractFIPS, second.TractFIPS)

	last := reg.Person(school.Occupants[2])
	assert.Equal(t, second.ID, last.Classroom)
}
