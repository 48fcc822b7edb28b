// Package postgres provides a shared session record store on Postgres via database/sql and pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/target/portal-auth/internal/ports"
)

// Schema creates the session_records table when missing.
const Schema = `CREATE TABLE IF NOT EXISTS session_records (
	key        text PRIMARY KEY,
	value      bytea NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

// RecordStore persists records in the session_records table.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore wraps an open pgx-backed *sql.DB.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// EnsureSchema applies Schema.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply session_records schema: %w", err)
	}
	return nil
}

func (s *RecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_records WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUndefinedTable(err) {
			return nil, ports.ErrRecordNotFound
		}
		return nil, fmt.Errorf("select session record: %w", err)
	}
	return value, nil
}

func (s *RecordStore) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("record key cannot be empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_records (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("upsert session record: %w", err)
	}
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_records WHERE key = $1`, key)
	if err != nil && !isUndefinedTable(err) {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// A store that was never written to has no table; reads treat that as empty.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
