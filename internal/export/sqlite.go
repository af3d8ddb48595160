package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

const schemaRuns = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    generated_at TIMESTAMP NOT NULL,
    request TEXT NOT NULL
);
`

const schemaScenarios = `
CREATE TABLE IF NOT EXISTS scenarios (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    growth_rate REAL NOT NULL,
    peak_year REAL NOT NULL,
    capacity REAL NOT NULL,
    inflection_year REAL NOT NULL,
    inflection_rate REAL NOT NULL,
    baseline REAL NOT NULL,
    start_error REAL NOT NULL,
    target_error REAL NOT NULL,
    PRIMARY KEY (run_id, idx)
);
`

const schemaPoints = `
CREATE TABLE IF NOT EXISTS points (
    run_id TEXT NOT NULL,
    scenario_idx INTEGER NOT NULL,
    year INTEGER NOT NULL,
    cumulative REAL NOT NULL,
    rate REAL NOT NULL,
    PRIMARY KEY (run_id, scenario_idx, year),
    FOREIGN KEY (run_id, scenario_idx) REFERENCES scenarios(run_id, idx) ON DELETE CASCADE
);
`

const (
	insertRunSQL      = `INSERT INTO runs (id, generated_at, request) VALUES (?, ?, ?)`
	insertScenarioSQL = `INSERT INTO scenarios (run_id, idx, growth_rate, peak_year, capacity, inflection_year, inflection_rate, baseline, start_error, target_error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertPointSQL    = `INSERT INTO points (run_id, scenario_idx, year, cumulative, rate) VALUES (?, ?, ?, ?, ?)`
	countRunsSQL      = `SELECT COUNT(*) FROM runs`
)

// OpenSQLite opens or creates the database at path and ensures the schema
// exists.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}
	// SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON;", "PRAGMA busy_timeout = 5000;"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables used by SQLStore.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range []string{schemaRuns, schemaScenarios, schemaPoints} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

// SQLStore persists documents into the runs, scenarios and points tables.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Export implements Exporter. A document is written in a single transaction.
func (s *SQLStore) Export(ctx context.Context, doc *Document) error {
	request, err := json.Marshal(doc.Request)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertRunSQL, doc.RunID, doc.GeneratedAt.UTC(), string(request)); err != nil {
		return fmt.Errorf("insert run %s: %w", doc.RunID, err)
	}
	for i, sc := range doc.Scenarios {
		if _, err := tx.ExecContext(ctx, insertScenarioSQL,
			doc.RunID, i, sc.GrowthRate, sc.PeakYear, sc.AsymptoticCapacity,
			sc.InflectionYear, sc.InflectionRate, sc.Baseline, sc.StartError, sc.TargetError,
		); err != nil {
			return fmt.Errorf("insert scenario %d: %w", i, err)
		}
		for _, p := range sc.Points {
			if _, err := tx.ExecContext(ctx, insertPointSQL, doc.RunID, i, p.Year, p.Cumulative, p.Rate); err != nil {
				return fmt.Errorf("insert point %d/%d: %w", i, p.Year, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export transaction: %w", err)
	}
	return nil
}

// CountRuns returns the number of stored runs.
func (s *SQLStore) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countRunsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}
