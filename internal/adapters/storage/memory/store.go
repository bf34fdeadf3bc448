// Package memory provides a map-backed storage.KV for the CLI's dry runs and for tests.
package memory

import (
	"context"
	"sync"

	"eagles/internal/adapters/storage"
)

// Store is an in-process KV. Failures can be injected to exercise fallback paths.
type Store struct {
	mu       sync.RWMutex
	data     map[string][]byte
	readErr  error
	writeErr error
	setCalls int
}

// Compile-time check that *Store satisfies storage.KV.
var _ storage.KV = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	delete(s.data, key)
	return nil
}

// FailReads makes every subsequent Get return err. Pass nil to recover.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWrites makes every subsequent Set and Delete return err. Pass nil to recover.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// SetCalls returns how many writes were attempted, failed ones included.
func (s *Store) SetCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setCalls
}

// Has reports whether key currently holds a value.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}
