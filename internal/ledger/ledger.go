// Package ledger keeps a local, per-checkout journal of allocations in a
// SQLite database under .cub/. It exists for forensics and status display:
// correctness of allocation never depends on it, and it is never shared
// between checkouts.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver" // database/sql driver
	_ "github.com/ncruces/go-sqlite3/embed"  // embedded sqlite build
)

// FileName is the ledger database file inside the .cub directory.
const FileName = "ledger.db"

const schema = `
CREATE TABLE IF NOT EXISTS allocations (
	id         TEXT NOT NULL,
	counter    TEXT NOT NULL,
	value      INTEGER NOT NULL,
	tip        TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_allocations_counter ON allocations(counter, value);
`

// Ledger is the local allocation journal.
type Ledger struct {
	db *sql.DB
}

// Entry is one recorded allocation.
type Entry struct {
	ID        string
	Counter   string
	Value     int
	Tip       string
	CreatedAt time.Time
}

// Open opens (creating if necessary) the ledger database in dir.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	path := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping ledger database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record journals one successful allocation. Callers treat failures as
// non-fatal: the allocation has already been published.
func (l *Ledger) Record(ctx context.Context, id, counterName string, value int, tip string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO allocations (id, counter, value, tip, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, counterName, value, tip, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record allocation %s: %w", id, err)
	}
	return nil
}

// Recent returns the most recent n allocations, newest first.
func (l *Ledger) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, counter, value, tip, created_at FROM allocations ORDER BY created_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Counter, &e.Value, &e.Tip, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read allocation rows: %w", err)
	}
	return entries, nil
}

// MaxValue returns the highest value this checkout has allocated from the
// named counter, or -1 if it has allocated none.
func (l *Ledger) MaxValue(ctx context.Context, counterName string) (int, error) {
	var max sql.NullInt64
	err := l.db.QueryRowContext(ctx,
		`SELECT MAX(value) FROM allocations WHERE counter = ?`, counterName).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to query max allocation: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}
