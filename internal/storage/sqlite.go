package storage

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

	"ytissues/internal/debug"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS widget_blobs (
	widget_id  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (widget_id, kind)
)`

const (
	kindConfig = "config"
	kindCache  = "cache"
)

// SQLiteStore keeps every widget's blobs in one SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// buildSQLiteDSN creates a read-write WAL DSN for the given path.
func buildSQLiteDSN(dbPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(dbPath),
	}
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(3000)")
	u.RawQuery = q.Encode()
	return u.String()
}

// OpenSQLite opens (creating when needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, storageErr("open sqlite store", errors.New("empty database path"))
	}
	//nolint:gosec // G301: store directory lives under the user's home
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, storageErr("create store directory", err)
	}

	db, err := sql.Open("sqlite", buildSQLiteDSN(trimmed))
	if err != nil {
		return nil, storageErr("open sqlite db", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storageErr("ping sqlite db", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, storageErr("create schema", err)
	}
	debug.Logf("storage: sqlite store at %s", trimmed)
	return &SQLiteStore{db: db, path: trimmed}, nil
}

func (s *SQLiteStore) read(ctx context.Context, widgetID, kind string) (json.RawMessage, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM widget_blobs WHERE widget_id = ? AND kind = ?`,
		widgetID, kind,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(fmt.Sprintf("read %s for %s", kind, widgetID), err)
	}
	return json.RawMessage(data), nil
}

func (s *SQLiteStore) write(ctx context.Context, widgetID, kind string, data json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO widget_blobs (widget_id, kind, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (widget_id, kind) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, widgetID, kind, string(data), time.Now().UnixMilli())
	return storageErr(fmt.Sprintf("store %s for %s", kind, widgetID), err)
}

// ReadConfig implements Store.
func (s *SQLiteStore) ReadConfig(ctx context.Context, widgetID string) (json.RawMessage, error) {
	return s.read(ctx, widgetID, kindConfig)
}

// StoreConfig implements Store.
func (s *SQLiteStore) StoreConfig(ctx context.Context, widgetID string, data json.RawMessage) error {
	return s.write(ctx, widgetID, kindConfig, data)
}

// ReadCache implements Store.
func (s *SQLiteStore) ReadCache(ctx context.Context, widgetID string) (json.RawMessage, error) {
	return s.read(ctx, widgetID, kindCache)
}

// StoreCache implements Store.
func (s *SQLiteStore) StoreCache(ctx context.Context, widgetID string, data json.RawMessage) error {
	return s.write(ctx, widgetID, kindCache, data)
}

// Remove implements Store.
func (s *SQLiteStore) Remove(ctx context.Context, widgetID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM widget_blobs WHERE widget_id = ?`, widgetID)
	return storageErr("remove widget "+widgetID, err)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
