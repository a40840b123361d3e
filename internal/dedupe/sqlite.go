package dedupe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS seen_urls (
		url     TEXT PRIMARY KEY,
		seen_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS seen_urls_seen_at_idx ON seen_urls (seen_at)`,
}

// SQLiteStore is a SeenStore on a single sqlite file. Entries older than ttl
// count as unseen; ttl 0 keeps them forever.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("sqlite ttl must be >= 0")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, ddl := range schema {
		if _, err := db.ExecContext(context.Background(), ddl); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}
	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLiteStore) Seen(ctx context.Context, url string) (bool, error) {
	if url == "" {
		return false, nil
	}
	var seenAt int64
	err := s.db.QueryRowContext(ctx, `SELECT seen_at FROM seen_urls WHERE url = ?`, url).Scan(&seenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen url: %w", err)
	}
	if s.ttl > 0 && s.now().Add(-s.ttl).UnixNano() > seenAt {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM seen_urls WHERE url = ?`, url); err != nil {
			return false, fmt.Errorf("expire seen url: %w", err)
		}
		return false, nil
	}
	return true, nil
}

func (s *SQLiteStore) Mark(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO seen_urls (url, seen_at) VALUES (?, ?)
		 ON CONFLICT(url) DO UPDATE SET seen_at = excluded.seen_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := s.now().UnixNano()
	for _, url := range urls {
		if url == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, url, now); err != nil {
			return fmt.Errorf("mark %s: %w", url, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
