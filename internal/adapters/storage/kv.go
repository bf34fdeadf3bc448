package storage

import (
	"context"
	"errors"
	"time"
)

// Persisted keys. Values are JSON documents.
const (
	KeyUsers      = "volley_users"
	KeyActiveUser = "volley_user"
	KeySessions   = "volley_sessions"
)

// ErrNotFound is returned by KV.Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// KV is the durable key-value port the stores persist through.
// Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// OpObserver receives backend operation timings.
// *metrics.Collector satisfies it.
type OpObserver interface {
	RecordKVOp(op string, d time.Duration)
}

// Instrumented wraps a KV so each call is timed under its operation name.
type Instrumented struct {
	next     KV
	observer OpObserver
}

// Compile-time check that *Instrumented satisfies KV.
var _ KV = (*Instrumented)(nil)

// NewInstrumented wraps next with timing.
// PRE: next and observer are non-nil
// POST: every call is forwarded unchanged and observed as get, set or delete
func NewInstrumented(next KV, observer OpObserver) *Instrumented {
	return &Instrumented{next: next, observer: observer}
}

// Get forwards to the wrapped KV.
func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := i.next.Get(ctx, key)
	i.observer.RecordKVOp("get", time.Since(start))
	return v, err
}

// Set forwards to the wrapped KV.
func (i *Instrumented) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.next.Set(ctx, key, value)
	i.observer.RecordKVOp("set", time.Since(start))
	return err
}

// Delete forwards to the wrapped KV.
func (i *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.next.Delete(ctx, key)
	i.observer.RecordKVOp("delete", time.Since(start))
	return err
}
