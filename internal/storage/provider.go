package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/contextport/conport/internal/config"
)

// connectTimeout bounds session acquisition against an unreachable backend.
const connectTimeout = 5 * time.Second

// Provider resolves the backend for a workspace and hands out its pooled
// database handle. One handle is kept per workspace; the embedded backend is
// capped at a single open connection so writes to a workspace file are
// serialized in-process, with busy_timeout covering cross-process contention.
type Provider struct {
	cfg config.Config
	d   dialect

	mu       sync.Mutex
	dbs      map[string]*sql.DB
	registry *Registry
}

func newProvider(cfg config.Config, d dialect) *Provider {
	return &Provider{cfg: cfg, d: d, dbs: make(map[string]*sql.DB)}
}

// Acquire returns the database handle for a workspace, opening it and
// ensuring the schema on first use.
func (p *Provider) Acquire(ctx context.Context, workspaceID string) (*sql.DB, error) {
	if workspaceID == "" {
		return nil, validationErrorf("workspace_id is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.dbs[workspaceID]; ok {
		return db, nil
	}

	var (
		db  *sql.DB
		err error
	)
	switch p.d.name() {
	case "postgresql":
		db, err = p.openPostgres(ctx, workspaceID)
	default:
		db, err = p.openSQLite(ctx, workspaceID)
	}
	if err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, p.d); err != nil {
		db.Close()
		return nil, err
	}

	p.dbs[workspaceID] = db
	return db, nil
}

// DatabasePath returns the embedded database file for a workspace, derived
// deterministically from the workspace identifier.
func DatabasePath(workspaceID string) string {
	return filepath.Join(workspaceID, "context_portal", "context.db")
}

func (p *Provider) openSQLite(ctx context.Context, workspaceID string) (*sql.DB, error) {
	dbPath := DatabasePath(workspaceID)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create workspace data dir: %v", ErrConnection, err)
	}

	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open workspace db: %v", ErrConnection, err)
	}
	// Single write handle per workspace file.
	db.SetMaxOpenConns(1)

	if err := pingBounded(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := p.registerWorkspace(workspaceID); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (p *Provider) openPostgres(ctx context.Context, workspaceID string) (*sql.DB, error) {
	dbName := p.cfg.DatabaseName(workspaceID)
	if err := p.ensureDatabase(ctx, dbName); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", p.postgresDSN(dbName))
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres db %s: %v", ErrConnection, dbName, err)
	}
	db.SetMaxOpenConns(15)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := pingBounded(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ensureDatabase creates the per-workspace database on first use, via the
// maintenance database.
func (p *Provider) ensureDatabase(ctx context.Context, dbName string) error {
	maint, err := sql.Open("pgx", p.postgresDSN("postgres"))
	if err != nil {
		return fmt.Errorf("%w: open maintenance db: %v", ErrConnection, err)
	}
	defer maint.Close()

	if err := pingBounded(ctx, maint); err != nil {
		return err
	}

	var exists bool
	if err := maint.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, dbName).Scan(&exists); err != nil {
		return fmt.Errorf("check database %s: %w", dbName, translateDBError(err))
	}
	if exists {
		return nil
	}
	if _, err := maint.ExecContext(ctx,
		"CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		// A concurrent creator may have won the race.
		var verify bool
		if qerr := maint.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, dbName).Scan(&verify); qerr == nil && verify {
			return nil
		}
		return fmt.Errorf("create database %s: %w", dbName, translateDBError(err))
	}
	return nil
}

func (p *Provider) postgresDSN(dbName string) string {
	pg := p.cfg.Postgres
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(pg.User, pg.Password),
		Host:     fmt.Sprintf("%s:%d", pg.Host, pg.Port),
		Path:     "/" + dbName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func pingBounded(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// registerWorkspace records the workspace in the embedded-backend registry.
func (p *Provider) registerWorkspace(workspaceID string) error {
	if p.registry == nil {
		reg, err := OpenRegistry(p.cfg.BaseDir)
		if err != nil {
			return err
		}
		p.registry = reg
	}
	return p.registry.Register(workspaceID)
}

// Registry returns the workspace registry, or nil if no embedded workspace
// has been opened yet.
func (p *Provider) Registry() *Registry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registry
}

// Close releases every cached handle.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for id, db := range p.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close workspace %s: %w", id, err)
		}
		delete(p.dbs, id)
	}
	if p.registry != nil {
		if err := p.registry.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.registry = nil
	}
	return firstErr
}
