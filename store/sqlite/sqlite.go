/*
Package sqlite provides a SQLite-backed implementation of the settlement
repositories.

INTERFACES IMPLEMENTED:
  compensation.WorkerRepository:   workers
  compensation.ContractRepository: contracts
  compensation.PolicyRepository:   pto_policies, bonus_rules, pto_usage
  timesheet.Repository:            timesheets
  generic.HolidayCalendar:         holidays
  generic.AuditLog:                audit_log

NEVER DELETED:
  contracts and timesheets have no DELETE path. A superseded contract is
  flagged inactive, a finished timesheet stays in its terminal status.

SINGLE ACTIVE CONTRACT:
  idx_contracts_one_active is a partial unique index on (worker_id) WHERE
  active = 1. SaveContract deactivates and inserts inside one SQL
  transaction, so a reader sees either the old or the new active contract.

TIMESHEET CAS:
  Save issues UPDATE ... WHERE id = ? AND status = ? and checks the affected
  row count. Zero rows means another writer got there first.

VALUE ENCODING:
  decimals   TEXT (decimal.Decimal implements sql.Scanner / driver.Valuer)
  dates      TEXT YYYY-MM-DD
  months     TEXT YYYY-MM
  timestamps TEXT RFC3339Nano, UTC

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/settlement.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := settlement.New(store, settlement.Options{})

SEE ALSO:
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/settlement-engine/generic"
)

// Store implements all repositories using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	Now    func() time.Time
	Logger *slog.Logger
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, Now: time.Now, Logger: slog.Default()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Workers (maintained by user management)
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Pay contracts (never deleted; superseded rows become inactive)
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		pay_model TEXT NOT NULL,
		base_rate TEXT NOT NULL,
		currency TEXT NOT NULL,
		commission_share TEXT NOT NULL,
		bill_rate TEXT NOT NULL,
		hybrid_cycle_change_date TEXT,
		start_date TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		superseded_at TEXT,
		superseded_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_worker_start
		ON contracts(worker_id, start_date DESC);

	-- CRITICAL: at most one active contract per worker
	CREATE UNIQUE INDEX IF NOT EXISTS idx_contracts_one_active
		ON contracts(worker_id) WHERE active = 1;

	-- PTO policy, one per worker
	CREATE TABLE IF NOT EXISTS pto_policies (
		worker_id TEXT PRIMARY KEY REFERENCES workers(id),
		monthly_allocation TEXT NOT NULL,
		carry_forward_allowed INTEGER NOT NULL DEFAULT 0,
		max_carry_forward_days TEXT NOT NULL,
		excess_deduction_enabled INTEGER NOT NULL DEFAULT 0,
		auto_apply_holidays INTEGER NOT NULL DEFAULT 0,
		effective_month TEXT,
		updated_at TEXT NOT NULL
	);

	-- Bonus rule, one per worker (recruiters)
	CREATE TABLE IF NOT EXISTS bonus_rules (
		worker_id TEXT PRIMARY KEY REFERENCES workers(id),
		amount TEXT NOT NULL,
		frequency TEXT NOT NULL,
		start_month TEXT NOT NULL,
		end_month TEXT,
		updated_at TEXT NOT NULL
	);

	-- PTO days taken
	CREATE TABLE IF NOT EXISTS pto_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		date TEXT NOT NULL,
		days TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pto_usage_worker_date
		ON pto_usage(worker_id, date);

	-- Company holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(date, name);

	-- Timesheets (never deleted; status changes via CAS)
	CREATE TABLE IF NOT EXISTS timesheets (
		id TEXT PRIMARY KEY,
		consultant_id TEXT NOT NULL,
		consultant_name TEXT NOT NULL DEFAULT '',
		client TEXT NOT NULL,
		project TEXT NOT NULL DEFAULT '',
		week_ending TEXT NOT NULL,
		regular_hours TEXT NOT NULL,
		overtime_hours TEXT NOT NULL,
		bill_rate TEXT NOT NULL,
		status TEXT NOT NULL,
		submitted_date TEXT NOT NULL,
		notes TEXT,
		reviewed_by TEXT,
		reviewed_at TEXT,
		rejection_reason TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_timesheets_group
		ON timesheets(consultant_id, client);
	CREATE INDEX IF NOT EXISTS idx_timesheets_status
		ON timesheets(status);
	CREATE INDEX IF NOT EXISTS idx_timesheets_week_ending
		ON timesheets(week_ending);

	-- Audit log (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		worker_id TEXT,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_subject
		ON audit_log(subject_id);
	CREATE INDEX IF NOT EXISTS idx_audit_worker
		ON audit_log(worker_id, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data (for demo purposes).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"audit_log", "timesheets", "holidays", "pto_usage", "bonus_rules", "pto_policies", "contracts", "workers"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatDate(tp generic.TimePoint) sql.NullString {
	if tp.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: tp.String(), Valid: true}
}

func parseDate(s sql.NullString) generic.TimePoint {
	if !s.Valid || s.String == "" {
		return generic.TimePoint{}
	}
	tp, err := generic.ParseDate(s.String)
	if err != nil {
		return generic.TimePoint{}
	}
	return tp
}

func formatMonth(m generic.Month) sql.NullString {
	if m.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: m.String(), Valid: true}
}

func parseMonth(s sql.NullString) generic.Month {
	if !s.Valid || s.String == "" {
		return generic.Month{}
	}
	m, err := generic.ParseMonth(s.String)
	if err != nil {
		return generic.Month{}
	}
	return m
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
