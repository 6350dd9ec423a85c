/*
Package sqlstore provides the database/sql implementation of policy.Store.

PURPOSE:
  Persists states, categories, metrics, policy data and state context in
  SQLite (default) or PostgreSQL. Queries are written once with '?'
  placeholders and rebound to $n for Postgres.

DRIVERS:
  sqlite3   github.com/mattn/go-sqlite3, opened with foreign keys and WAL
  pgx       github.com/jackc/pgx/v5/stdlib ("postgres" is accepted as alias)

KEY TABLES:
  states                    Reference list of U.S. states
  policy_categories         Metric groupings
  policy_metrics            Metric definitions with data_type
  policy_data               Values over time, one open row per pair
  state_childcare_context   Snapshots keyed by (state_id, as_of_date)

CURRENT-VALUE INVARIANT:
  idx_policy_data_one_current is a partial unique index on
  policy_data(state_id, metric_id) WHERE end_date IS NULL. Upserts use
  INSERT ... ON CONFLICT against that index, so the check and the write
  are one statement and concurrent writers cannot create a second open
  row.

STORAGE FORMATS:
  ids          TEXT (uuid)
  dates        TEXT YYYY-MM-DD
  timestamps   TEXT RFC3339Nano, UTC
  value        TEXT holding the JSON envelope
  allowed      TEXT holding a JSON array

CONCURRENCY:
  SQLite is limited to one open connection (so ":memory:" databases are
  shared by every query) and writes are serialized with a mutex.
  Postgres relies on its own concurrency control.

USAGE:
  store, err := sqlstore.Open("sqlite3", "./childcare.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - policy/store.go: Interface definitions
  - policy/service.go: Writes that go through this store
*/
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"

	"github.com/zachtilly/childcare-api/policy"
)

type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	postgre bool
}

var _ policy.Store = (*Store)(nil)

// New opens a SQLite database at dbPath. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	return Open("sqlite3", dbPath)
}

// Open connects with the given driver and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
		pg  bool
	)
	switch driver {
	case "sqlite3", "":
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		db, err = sql.Open("sqlite3", dsn+sep+"_foreign_keys=on&_journal_mode=WAL")
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	case "pgx", "postgres":
		db, err = sql.Open("pgx", dsn)
		pg = true
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, postgre: pg}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// SCHEMA
// =============================================================================

var schema = []string{
	`CREATE TABLE IF NOT EXISTS states (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		region TEXT NOT NULL DEFAULT '',
		population BIGINT NOT NULL DEFAULT 0,
		median_household_income BIGINT NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS policy_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL DEFAULT 999,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS policy_metrics (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES policy_categories(id),
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		data_type TEXT NOT NULL CHECK (data_type IN ('numeric', 'currency', 'percentage', 'boolean', 'text', 'enum')),
		unit TEXT NOT NULL DEFAULT '',
		allowed_values TEXT NOT NULL DEFAULT '[]',
		higher_is_better BOOLEAN NOT NULL DEFAULT FALSE,
		sort_order INTEGER NOT NULL DEFAULT 999,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_policy_metrics_category ON policy_metrics(category_id, sort_order)`,
	`CREATE TABLE IF NOT EXISTS policy_data (
		id TEXT PRIMARY KEY,
		state_id TEXT NOT NULL REFERENCES states(id),
		metric_id TEXT NOT NULL REFERENCES policy_metrics(id),
		value TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		end_date TEXT,
		data_source TEXT NOT NULL,
		source_url TEXT NOT NULL DEFAULT '',
		confidence_level TEXT NOT NULL CHECK (confidence_level IN ('high', 'medium', 'low')),
		notes TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	// At most one open (current) record per state and metric.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_policy_data_one_current
		ON policy_data(state_id, metric_id) WHERE end_date IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_policy_data_timeline ON policy_data(state_id, metric_id, effective_date)`,
	`CREATE INDEX IF NOT EXISTS idx_policy_data_metric ON policy_data(metric_id)`,
	`CREATE TABLE IF NOT EXISTS state_childcare_context (
		id TEXT PRIMARY KEY,
		state_id TEXT NOT NULL REFERENCES states(id),
		as_of_date TEXT NOT NULL,
		total_licensed_capacity BIGINT,
		infant_capacity BIGINT,
		toddler_capacity BIGINT,
		preschool_capacity BIGINT,
		school_age_capacity BIGINT,
		infant_cost_weekly DOUBLE PRECISION,
		toddler_cost_weekly DOUBLE PRECISION,
		preschool_cost_weekly DOUBLE PRECISION,
		school_age_cost_weekly DOUBLE PRECISION,
		total_workers BIGINT,
		lead_teachers BIGINT,
		assistant_teachers BIGINT,
		aides BIGINT,
		data_source TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (state_id, as_of_date)
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// QUERY PLUMBING
// =============================================================================

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rebind rewrites '?' placeholders to $1, $2, ... for Postgres.
func (s *Store) rebind(query string) string {
	if !s.postgre {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// =============================================================================
// UTILITIES
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
