// Package store persists simulation runs, their daily tracker values and
// the synthetic places they were built from.
package store

import (
	"context"
	"time"

	"github.com/sells-group/synthgeo/internal/place"
)

// RunStatus is the lifecycle state of a simulation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one execution of the setup and daily loop.
type Run struct {
	ID        string    `json:"id"`
	Seed      uint64    `json:"seed"`
	Days      int       `json:"days"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Metric is one tracker value recorded for a day.
type Metric struct {
	Day   int    `json:"day"`
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// PlaceRow is the exported form of a registry place.
type PlaceRow struct {
	Label     string
	Kind      string
	Subtype   string
	Lat       float64
	Lon       float64
	TractFIPS int64
	Size      int
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status RunStatus `json:"status,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

// Store defines the persistence interface for simulation output.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, seed uint64, days int) (*Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status RunStatus) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// Tracker
	RecordMetrics(ctx context.Context, runID string, metrics []Metric) error
	Metrics(ctx context.Context, runID string) ([]Metric, error)

	// Places
	SavePlaces(ctx context.Context, runID string, rows []PlaceRow) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// PlaceRows converts every registry place to its exported form.
func PlaceRows(reg *place.Registry) []PlaceRow {
	out := make([]PlaceRow, 0, reg.Len())
	for _, p := range reg.Places() {
		out = append(out, PlaceRow{
			Label:     p.Label,
			Kind:      p.Kind.String(),
			Subtype:   p.Subtype.String(),
			Lat:       p.Lat,
			Lon:       p.Lon,
			TractFIPS: p.TractFIPS,
			Size:      p.Size(),
		})
	}
	return out
}

// MetricsFromMap flattens one day of tracker values. Keys are emitted in
// the order given so output stays stable.
func MetricsFromMap(day int, keys []string, values map[string]int) []Metric {
	out := make([]Metric, 0, len(keys))
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		out = append(out, Metric{Day: day, Key: k, Value: v})
	}
	return out
}
