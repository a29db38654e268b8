package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/synthgeo/internal/db"
	"github.com/sells-group/synthgeo/internal/geo"
)

const placesBatchSize = 50000

var placeColumns = []string{"run_id", "label", "kind", "subtype", "lat", "lon", "tract_fips", "size", "geom"}

var trackerUpsert = db.UpsertConfig{
	Table:        "tracker",
	Columns:      []string{"run_id", "day", "key", "value"},
	ConflictKeys: []string{"run_id", "day", "key"},
}

// PostgresStore implements Store using pgxpool. Place geometry is written
// as EWKB into a PostGIS column.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	seed       BIGINT NOT NULL,
	days       INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'running',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tracker (
	run_id TEXT NOT NULL REFERENCES runs(id),
	day    INTEGER NOT NULL,
	key    TEXT NOT NULL,
	value  BIGINT NOT NULL,
	PRIMARY KEY (run_id, day, key)
);

CREATE TABLE IF NOT EXISTS places (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	label      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	subtype    TEXT NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	tract_fips BIGINT NOT NULL,
	size       INTEGER NOT NULL,
	geom       geometry(Point, 4326),
	PRIMARY KEY (run_id, label)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_places_tract ON places(run_id, tract_fips);
CREATE INDEX IF NOT EXISTS idx_places_geom ON places USING GIST (geom);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, seed uint64, days int) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, seed, days, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, int64(seed), days, string(RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &Run{
		ID:        id,
		Seed:      seed,
		Days:      days,
		Status:    RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, seed, days, status, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, seed, days, status, created_at, updated_at FROM runs
		 WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		string(filter.Status), limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) RecordMetrics(ctx context.Context, runID string, metrics []Metric) error {
	rows := make([][]any, len(metrics))
	for i, m := range metrics {
		rows[i] = []any{runID, m.Day, m.Key, int64(m.Value)}
	}
	_, err := db.BulkUpsert(ctx, s.pool, trackerUpsert, rows)
	return eris.Wrap(err, "postgres: record metrics")
}

func (s *PostgresStore) Metrics(ctx context.Context, runID string) ([]Metric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT day, key, value FROM tracker WHERE run_id = $1 ORDER BY day, key`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query tracker")
	}
	defer rows.Close()

	var out []Metric
	for rows.Next() {
		var m Metric
		var v int64
		if err := rows.Scan(&m.Day, &m.Key, &v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tracker")
		}
		m.Value = int(v)
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate tracker")
}

// SavePlaces COPYs places in batches, encoding each location as EWKB.
func (s *PostgresStore) SavePlaces(ctx context.Context, runID string, places []PlaceRow) (int64, error) {
	if len(places) == 0 {
		return 0, nil
	}
	log := zap.L().With(
		zap.String("component", "store.places"),
		zap.String("run_id", runID),
		zap.Int("total_rows", len(places)),
	)

	var total int64
	for i := 0; i < len(places); i += placesBatchSize {
		end := min(i+placesBatchSize, len(places))
		batch := make([][]any, 0, end-i)
		for _, p := range places[i:end] {
			wkb, err := geo.EncodePoint(p.Lat, p.Lon)
			if err != nil {
				return total, err
			}
			batch = append(batch, []any{runID, p.Label, p.Kind, p.Subtype, p.Lat, p.Lon, p.TractFIPS, p.Size, wkb})
		}

		n, err := db.CopyFrom(ctx, s.pool, "places", placeColumns, batch)
		if err != nil {
			return total, eris.Wrapf(err, "postgres: save places (batch %d-%d)", i, end)
		}
		total += n
		log.Debug("batch loaded", zap.Int("batch_start", i), zap.Int("batch_end", end), zap.Int64("batch_rows", n))
	}
	return total, nil
}

func scanPgRun(row pgx.Row) (*Run, error) {
	var r Run
	var seed int64
	var status string
	if err := row.Scan(&r.ID, &seed, &r.Days, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}
	r.Seed = uint64(seed)
	r.Status = RunStatus(status)
	return &r, nil
}
