package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/salusdesk/salus/internal/store"
)

// Registry persists extra store descriptors in a local SQLite database so
// registrations survive restarts. Writes are last-write-wins: descriptor
// edits are rare, low-stakes metadata, so no transactional coordination is
// attempted beyond what SQLite itself provides.
type Registry struct {
	db *sql.DB
}

const registrySchema = `
CREATE TABLE IF NOT EXISTS extra_stores (
	id          TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);`

// OpenRegistry opens (creating if needed) the registry database at path.
// Use ":memory:" for tests.
func OpenRegistry(path string) (*Registry, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating registry directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}

	if _, err := db.Exec(registrySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing registry schema: %w", err)
	}

	return &Registry{db: db}, nil
}

// List returns all extra descriptors in first-registration order (rowid
// order; an overwrite keeps the original position).
func (r *Registry) List(ctx context.Context) ([]store.Descriptor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description FROM extra_stores ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing extra stores: %w", err)
	}
	defer rows.Close()

	var out []store.Descriptor
	for rows.Next() {
		var d store.Descriptor
		if err := rows.Scan(&d.ID, &d.Description); err != nil {
			return nil, fmt.Errorf("scanning extra store: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating extra stores: %w", err)
	}
	return out, nil
}

// Put inserts or updates a descriptor. Re-registering an existing id
// updates its description in place.
func (r *Registry) Put(ctx context.Context, d store.Descriptor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extra_stores (id, description, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			updated_at  = excluded.updated_at`,
		d.ID, d.Description)
	if err != nil {
		return fmt.Errorf("saving extra store %q: %w", d.ID, err)
	}
	return nil
}

// Delete removes a descriptor. Deleting an unknown id is a no-op.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM extra_stores WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting extra store %q: %w", id, err)
	}
	return nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}
