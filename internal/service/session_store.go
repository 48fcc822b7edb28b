package service

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/ports"
)

// LoadStatus classifies the outcome of SessionStore.Load.
type LoadStatus string

const (
	LoadFound        LoadStatus = "found"
	LoadMissing      LoadStatus = "missing"
	LoadCorrupt      LoadStatus = "corrupt"
	LoadInconsistent LoadStatus = "inconsistent"
	LoadUnavailable  LoadStatus = "unavailable"
)

// LoadResult is the typed outcome of a load. Only LoadFound carries an Identity.
type LoadResult struct {
	Identity *domainauth.Identity
	Status   LoadStatus
	Err      error
}

// SessionStore stores zero or one identity record under a single fixed key.
type SessionStore struct {
	records ports.RecordStore
	key     string
}

// NewSessionStore binds a record backend to one logical key.
func NewSessionStore(records ports.RecordStore, key string) *SessionStore {
	return &SessionStore{records: records, key: key}
}

// Key returns the logical key this store reads and writes.
func (s *SessionStore) Key() string { return s.key }

// Load reads the stored identity. It never returns an error: every failure
// degrades to "no identity" with the cause carried in the result.
func (s *SessionStore) Load(ctx context.Context) LoadResult {
	data, err := s.records.Get(ctx, s.key)
	switch {
	case errors.Is(err, ports.ErrRecordNotFound):
		return LoadResult{Status: LoadMissing}
	case err != nil:
		return LoadResult{Status: LoadUnavailable, Err: fmt.Errorf("read session record: %w", err)}
	case len(data) == 0:
		return LoadResult{Status: LoadMissing}
	}

	id, err := domainauth.DecodeIdentity(data)
	if err != nil {
		status := LoadCorrupt
		var recErr *domainauth.RecordError
		if errors.As(err, &recErr) && recErr.Kind == domainauth.RecordInconsistent {
			status = LoadInconsistent
		}
		return LoadResult{Status: status, Err: err}
	}
	return LoadResult{Identity: &id, Status: LoadFound}
}

// Save encodes id and fully overwrites the stored record.
func (s *SessionStore) Save(ctx context.Context, id domainauth.Identity) error {
	data, err := domainauth.EncodeIdentity(id)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err := s.records.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	return nil
}

// Clear removes the stored record. Clearing an empty store is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	err := s.records.Delete(ctx, s.key)
	if err != nil && !errors.Is(err, ports.ErrRecordNotFound) {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}
