// Package sqlite implements the store.Backend contract on a local SQLite
// database, one row per physical document. Suited for single-node
// deployments that want durability without an external document service.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Marcanta7/dietflow/store"
)

// Backend stores documents in a single SQLite table.
type Backend struct {
	db *sql.DB
}

var _ store.Backend = (*Backend)(nil)

// New opens (creating if needed) the database at dbPath and ensures the
// schema exists. WAL mode keeps concurrent session reads from blocking
// writes.
func New(dbPath string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create database directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite: ping database: %w", err)
	}

	b := &Backend{db: db}
	if err := b.initSchema(); err != nil {
		return nil, fmt.Errorf("sqlite: initialize schema: %w", err)
	}
	return b, nil
}

func (b *Backend) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := b.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close releases the underlying database handle.
func (b *Backend) Close() error { return b.db.Close() }

// Write upserts the document row.
func (b *Backend) Write(ctx context.Context, name string, data []byte) error {
	query := `
		INSERT INTO documents (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := b.db.ExecContext(ctx, query, name, data, time.Now().Unix()); err != nil {
		return fmt.Errorf("sqlite: Write %q: %w", name, err)
	}
	return nil
}

// Read fetches the document payload by name.
func (b *Backend) Read(ctx context.Context, name string) ([]byte, error) {
	row := b.db.QueryRowContext(ctx, `SELECT payload FROM documents WHERE name = ?`, name)
	var payload []byte
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: Read %q: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: Read %q: %w", name, err)
	}
	return payload, nil
}

// List returns all document names.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT name FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: List: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: List scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: List rows: %w", err)
	}
	return names, nil
}

// Delete removes the document row, if any.
func (b *Backend) Delete(ctx context.Context, name string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name); err != nil {
		return fmt.Errorf("sqlite: Delete %q: %w", name, err)
	}
	return nil
}
