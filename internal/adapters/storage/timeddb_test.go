package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// recordingObserver collects op names reported by TimedDB and Instrumented.
type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingObserver) RecordKVOp(op string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingObserver) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTimedDB_ReportsBackendOps(t *testing.T) {
	obs := &recordingObserver{}
	tdb := NewTimedDB(openTimedTestDB(t), "sqlite", obs, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO kv (key, value) VALUES (?, ?)", "volley_user", []byte(`"Manu"`)); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	var value []byte
	if err := tdb.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", "volley_user").Scan(&value); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if string(value) != `"Manu"` {
		t.Errorf("value = %s", value)
	}

	got := obs.snapshot()
	want := []string{"sqlite.exec", "sqlite.query_row"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ops = %v, want %v", got, want)
	}
}

func TestTimedDB_ErrorsPassThrough(t *testing.T) {
	obs := &recordingObserver{}
	tdb := NewTimedDB(openTimedTestDB(t), "sqlite", obs, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO missing VALUES (?)", 1); err == nil {
		t.Fatal("expected an error for an unknown table")
	}
	var value []byte
	if err := tdb.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", "nope").Scan(&value); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Scan() error = %v, want sql.ErrNoRows", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := tdb.ExecContext(cancelled, "DELETE FROM kv"); err == nil {
		t.Error("expected an error for a cancelled context")
	}

	if n := len(obs.snapshot()); n != 3 {
		t.Errorf("reported = %d, want 3 (failures are timed too)", n)
	}
}

func TestTimedDB_Threshold(t *testing.T) {
	db := openTimedTestDB(t)
	if got := NewTimedDB(db, "sqlite", nil, -1).threshold; got != DefaultSlowQuery {
		t.Errorf("threshold = %v, want %v", got, DefaultSlowQuery)
	}
	if got := NewTimedDB(db, "sqlite", nil, time.Second).threshold; got != time.Second {
		t.Errorf("threshold = %v, want 1s", got)
	}
	// a nil observer is allowed
	if _, err := NewTimedDB(db, "sqlite", nil, 0).ExecContext(context.Background(), "DELETE FROM kv"); err != nil {
		t.Errorf("ExecContext: %v", err)
	}
}

func BenchmarkTimedDB_Overhead(b *testing.B) {
	db, _ := sql.Open("sqlite", ":memory:")
	defer db.Close()
	db.SetMaxOpenConns(1)
	db.Exec("CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB)")
	db.Exec("INSERT INTO kv VALUES ('k', 'v')")
	ctx := context.Background()

	b.Run("raw", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var v []byte
			db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = 'k'").Scan(&v)
		}
	})
	tdb := NewTimedDB(db, "sqlite", &recordingObserver{}, 0)
	b.Run("timed", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var v []byte
			tdb.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = 'k'").Scan(&v)
		}
	})
}
