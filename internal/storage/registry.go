package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/contextport/conport/internal/models"
)

// registrySchema tracks workspaces the embedded backend has opened.
const registrySchema = `
CREATE TABLE IF NOT EXISTS workspaces (
    id         TEXT PRIMARY KEY,
    path       TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workspaces_path ON workspaces(path);
`

// Registry is a small central database listing every workspace known to this
// installation. It exists for discovery only; workspace data never lives here.
type Registry struct {
	db *sql.DB
}

// OpenRegistry opens (or creates) the registry database under baseDir.
func OpenRegistry(baseDir string) (*Registry, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create base dir: %v", ErrConnection, err)
	}

	dbPath := filepath.Join(baseDir, "_registry.db")
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open registry db: %v", ErrConnection, err)
	}
	if _, err := db.Exec(registrySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate registry db: %w", translateDBError(err))
	}
	return &Registry{db: db}, nil
}

// Register records a workspace path if it is not already known.
func (r *Registry) Register(workspaceID string) error {
	_, err := r.db.Exec(
		`INSERT INTO workspaces (id, path, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (path) DO NOTHING`,
		uuid.New().String(), workspaceID, now(),
	)
	if err != nil {
		return fmt.Errorf("register workspace: %w", translateDBError(err))
	}
	return nil
}

// List returns all known workspaces ordered by path.
func (r *Registry) List() ([]models.Workspace, error) {
	rows, err := r.db.Query(`SELECT id, path, created_at FROM workspaces ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", translateDBError(err))
	}
	defer rows.Close()

	var workspaces []models.Workspace
	for rows.Next() {
		var w models.Workspace
		if err := rows.Scan(&w.ID, &w.Path, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, w)
	}
	return workspaces, rows.Err()
}

// Close closes the registry database.
func (r *Registry) Close() error {
	return r.db.Close()
}
