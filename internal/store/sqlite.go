package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/synthgeo/internal/geo"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	seed       INTEGER NOT NULL,
	days       INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'running',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tracker (
	run_id TEXT NOT NULL REFERENCES runs(id),
	day    INTEGER NOT NULL,
	key    TEXT NOT NULL,
	value  INTEGER NOT NULL,
	PRIMARY KEY (run_id, day, key)
);

CREATE TABLE IF NOT EXISTS places (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	label      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	subtype    TEXT NOT NULL,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	tract_fips INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	geom       BLOB,
	PRIMARY KEY (run_id, label)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_places_tract ON places(run_id, tract_fips);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, seed uint64, days int) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, seed, days, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, int64(seed), days, string(RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
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

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, seed, days, status, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, seed, days, status, created_at, updated_at FROM runs`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) RecordMetrics(ctx context.Context, runID string, metrics []Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tracker tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tracker (run_id, day, key, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT (run_id, day, key) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare tracker insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, m := range metrics {
		if _, err := stmt.ExecContext(ctx, runID, m.Day, m.Key, m.Value); err != nil {
			return eris.Wrapf(err, "sqlite: record %s day %d", m.Key, m.Day)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tracker tx")
}

func (s *SQLiteStore) Metrics(ctx context.Context, runID string) ([]Metric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, key, value FROM tracker WHERE run_id = ? ORDER BY day, rowid`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query tracker")
	}
	defer rows.Close() //nolint:errcheck

	var out []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Day, &m.Key, &m.Value); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tracker")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate tracker")
}

func (s *SQLiteStore) SavePlaces(ctx context.Context, runID string, places []PlaceRow) (int64, error) {
	if len(places) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin places tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO places (run_id, label, kind, subtype, lat, lon, tract_fips, size, geom)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare places insert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, p := range places {
		wkb, err := geo.EncodePoint(p.Lat, p.Lon)
		if err != nil {
			return n, err
		}
		if _, err := stmt.ExecContext(ctx, runID, p.Label, p.Kind, p.Subtype, p.Lat, p.Lon, p.TractFIPS, p.Size, wkb); err != nil {
			return n, eris.Wrapf(err, "sqlite: insert place %s", p.Label)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit places tx")
	}
	return n, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var seed int64
	var status string

	err := row.Scan(&r.ID, &seed, &r.Days, &status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	r.Seed = uint64(seed)
	r.Status = RunStatus(status)
	return &r, nil
}
