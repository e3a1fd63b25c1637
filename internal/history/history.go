// Package history persists an audit log of capture operations in SQLite.
// It is a supporting record for `nlv history`; the master checklist itself
// remains the single source of truth for tasks.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Capture is one recorded capture operation.
type Capture struct {
	ID         string        `json:"id"`
	NotePath   string        `json:"note_path"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Added      int           `json:"added"`
	Skipped    int           `json:"skipped"`
	Dropped    int           `json:"dropped"`
	Model      string        `json:"model"`
}

// Store is the SQLite-backed capture log.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and initializes the
// schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one capture row.
func (s *Store) Record(ctx context.Context, c *Capture) error {
	if c.ID == "" {
		return fmt.Errorf("capture ID is required")
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO captures (id, note_path, started_at, duration_ms, added, skipped, dropped, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.NotePath, c.StartedAt.UTC(), c.Duration.Milliseconds(),
		c.Added, c.Skipped, c.Dropped, c.Model)
	if err != nil {
		return fmt.Errorf("failed to record capture: %w", err)
	}
	return nil
}

// Recent returns the most recent captures, newest first, up to limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Capture, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, note_path, started_at, duration_ms, added, skipped, dropped, model
		FROM captures
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		var c Capture
		var durationMs int64
		if err := rows.Scan(&c.ID, &c.NotePath, &c.StartedAt, &durationMs,
			&c.Added, &c.Skipped, &c.Dropped, &c.Model); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		c.Duration = time.Duration(durationMs) * time.Millisecond
		captures = append(captures, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate captures: %w", err)
	}
	return captures, nil
}

// Totals returns lifetime counts across all recorded captures.
func (s *Store) Totals(ctx context.Context) (added, skipped int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(added), 0), COALESCE(SUM(skipped), 0) FROM captures`,
	).Scan(&added, &skipped)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query capture totals: %w", err)
	}
	return added, skipped, nil
}
