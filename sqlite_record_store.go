package portfoliolive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultBusyTimeout = 5000

// SQLiteRecordStore keeps records as JSON bodies in a single sqlite table.
type SQLiteRecordStore struct {
	db *sql.DB
}

func NewSQLiteRecordStore(ctx context.Context, path string) (*SQLiteRecordStore, error) {
	if path == "" {
		path = "portfoliolive.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQLiteRecordStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func buildDSN(path string) string {
	switch {
	case strings.HasPrefix(path, "sqlite://"):
		path = path[len("sqlite://"):]
	case strings.HasPrefix(path, "file:"):
		// already in a form sqlite understands
	default:
		path = "file:" + path
	}
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", path, separator, defaultBusyTimeout)
}

func (s *SQLiteRecordStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS records (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

func (s *SQLiteRecordStore) Load(name string, v any) error {
	var body string
	err := s.db.QueryRow(`SELECT body FROM records WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", name, ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, name, err)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrStorageUnavailable, name, err)
	}
	return nil
}

func (s *SQLiteRecordStore) Save(name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrStorageUnavailable, name, err)
	}
	_, err = s.db.Exec(`INSERT INTO records (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStorageUnavailable, name, err)
	}
	return nil
}

func (s *SQLiteRecordStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
