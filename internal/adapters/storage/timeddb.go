package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// SQLDB is the slice of *sql.DB the SQL-backed KV stores need.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQuery is used when no slow-query threshold is configured.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB times every statement sent to a SQL backend.
// Statements at or above the threshold log "slow_query" at WARN, the rest log at DEBUG.
// Each timing is also reported to the observer as "<backend>.exec" or "<backend>.query_row".
type TimedDB struct {
	db        *sql.DB
	backend   string
	observer  OpObserver
	threshold time.Duration
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db for the named backend ("sqlite", "postgres").
// A non-positive threshold selects DefaultSlowQuery; observer may be nil.
func NewTimedDB(db *sql.DB, backend string, observer OpObserver, threshold time.Duration) *TimedDB {
	if threshold <= 0 {
		threshold = DefaultSlowQuery
	}
	return &TimedDB{db: db, backend: backend, observer: observer, threshold: threshold}
}

// ExecContext runs a statement that returns no rows.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer t.observe(ctx, "exec", time.Now())
	return t.db.ExecContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query. The row's error surfaces on Scan.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer t.observe(ctx, "query_row", time.Now())
	return t.db.QueryRowContext(ctx, query, args...)
}

// Close closes the wrapped database.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

func (t *TimedDB) observe(ctx context.Context, kind string, start time.Time) {
	elapsed := time.Since(start)
	op := t.backend + "." + kind

	level, msg := slog.LevelDebug, "query"
	if elapsed >= t.threshold {
		level, msg = slog.LevelWarn, "slow_query"
	}
	slog.Log(ctx, level, msg, "op", op, "duration_ms", float64(elapsed.Microseconds())/1000.0)

	if t.observer != nil {
		t.observer.RecordKVOp(op, elapsed)
	}
}
