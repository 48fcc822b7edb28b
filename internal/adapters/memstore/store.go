// Package memstore provides a process-local record store for tests and single-run dev.
package memstore

import (
	"context"
	"sync"

	"github.com/target/portal-auth/internal/ports"
)

// Store keeps records in a map. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, ports.ErrRecordNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string][]byte)
	}
	s.records[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Len reports how many keys are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
