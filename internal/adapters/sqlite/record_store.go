// Package sqlite provides a device-local session record store backed by a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/target/portal-auth/internal/ports"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const (
	dirPermissions    = 0o750
	filePermissions   = 0o600
	connectionTimeout = 5 * time.Second
	defaultBusyMillis = 5000
)

const schema = `CREATE TABLE IF NOT EXISTS session_records (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// Config configures the SQLite record store.
type Config struct {
	// Path is the database file. Its directory is created when missing.
	Path string
	// BusyTimeout bounds lock waits; zero uses 5s.
	BusyTimeout time.Duration
}

// RecordStore persists records in the session_records table.
type RecordStore struct {
	db   *sql.DB
	path string
}

// sidecarSuffixes name the files SQLite keeps next to a WAL-mode database.
var sidecarSuffixes = []string{"-wal", "-shm"}

// Open creates the directory, opens the database, applies the schema and
// tightens file permissions.
func Open(ctx context.Context, cfg Config) (*RecordStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	// SQLite gives new -wal and -shm files the mode of the database file,
	// so the file must exist with tight permissions before the first write.
	f, err := os.OpenFile(cfg.Path, os.O_RDWR|os.O_CREATE, filePermissions) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("create database file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("create database file: %w", err)
	}
	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // best effort on filesystems without modes

	busy := defaultBusyMillis
	if cfg.BusyTimeout > 0 {
		busy = int(cfg.BusyTimeout / time.Millisecond)
	}
	dsn, err := buildDSN(cfg.Path, busy)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping sqlite: %w", err), db.Close())
	}
	if _, err := db.ExecContext(pingCtx, schema); err != nil {
		return nil, errors.Join(fmt.Errorf("apply sqlite schema: %w", err), db.Close())
	}

	for _, suffix := range sidecarSuffixes {
		_ = os.Chmod(cfg.Path+suffix, filePermissions) //nolint:errcheck // absent until the first write
	}

	return &RecordStore{db: db, path: cfg.Path}, nil
}

// buildDSN returns a file: URI for path. The path is made absolute and
// percent-encoded, so '?', '#' and '%' in file names survive.
func buildDSN(path string, busyMillis int) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sqlite path: %w", err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // windows drive letters
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyMillis))
	q.Add("_pragma", "journal_mode(WAL)")
	u := url.URL{Scheme: "file", Path: p, RawQuery: q.Encode()}
	return u.String(), nil
}

// Path returns the database file path.
func (s *RecordStore) Path() string { return s.path }

func (s *RecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_records WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
		`INSERT INTO session_records (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert session record: %w", err)
	}
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *RecordStore) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
