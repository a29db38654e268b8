package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/synthgeo/internal/place"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Runs ---

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, 1<<63+7, 30)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, uint64(1<<63+7), got.Seed)
	assert.Equal(t, 30, got.Days)
	assert.Equal(t, RunStatusRunning, got.Status)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, 1, 0)
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, RunStatusComplete))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusComplete, got.Status)

	err = st.UpdateRunStatus(ctx, "missing", RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, 1, 1)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, 2, 1)
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, a.ID, RunStatusFailed))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := st.ListRuns(ctx, RunFilter{Status: RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, a.ID, failed[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

// --- Tracker ---

func TestSQLite_RecordMetrics(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, 1, 2)
	require.NoError(t, err)

	require.NoError(t, st.RecordMetrics(ctx, run.ID, []Metric{
		{Day: 0, Key: "H_sheltering", Value: 4},
		{Day: 0, Key: "N_sheltering", Value: 11},
		{Day: 1, Key: "H_sheltering", Value: 3},
	}))
	// Re-recording a day overwrites the value.
	require.NoError(t, st.RecordMetrics(ctx, run.ID, []Metric{{Day: 1, Key: "H_sheltering", Value: 2}}))

	got, err := st.Metrics(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, []Metric{
		{Day: 0, Key: "H_sheltering", Value: 4},
		{Day: 0, Key: "N_sheltering", Value: 11},
		{Day: 1, Key: "H_sheltering", Value: 2},
	}, got)
}

func TestSQLite_RecordMetrics_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.RecordMetrics(context.Background(), "any", nil))
}

// --- Places ---

func TestSQLite_SavePlaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	reg := place.NewRegistry()
	reg.AddPlace("H1", place.KindHousehold, place.SubtypeNone, -80.0, 40.0, 42003000100)
	reg.AddPlace("M1", place.KindHospital, place.SubtypeHealthcareClinic, -79.9, 40.1, 42003000200)

	run, err := st.CreateRun(ctx, 1, 0)
	require.NoError(t, err)

	n, err := st.SavePlaces(ctx, run.ID, PlaceRows(reg))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var kind, subtype string
	var geom []byte
	err = st.db.QueryRowContext(ctx,
		`SELECT kind, subtype, geom FROM places WHERE run_id = ? AND label = ?`, run.ID, "M1",
	).Scan(&kind, &subtype, &geom)
	require.NoError(t, err)
	assert.Equal(t, "hospital", kind)
	assert.Equal(t, "healthcare_clinic", subtype)
	assert.NotEmpty(t, geom)
}

func TestPlaceRows(t *testing.T) {
	reg := place.NewRegistry()
	reg.AddPlace("H1", place.KindHousehold, place.SubtypeNone, -80.0, 40.0, 42003000100)
	reg.AddPlace("W1", place.KindWorkplace, place.SubtypePrison, -80.1, 40.2, 0)

	rows := PlaceRows(reg)
	require.Len(t, rows, 2)
	assert.Equal(t, PlaceRow{
		Label: "H1", Kind: "household", Subtype: "none",
		Lat: 40.0, Lon: -80.0, TractFIPS: 42003000100,
	}, rows[0])
	assert.Equal(t, "prison", rows[1].Subtype)
}

func TestMetricsFromMap(t *testing.T) {
	values := map[string]int{"a": 1, "b": 2}
	got := MetricsFromMap(3, []string{"b", "missing", "a"}, values)
	assert.Equal(t, []Metric{{Day: 3, Key: "b", Value: 2}, {Day: 3, Key: "a", Value: 1}}, got)
}
