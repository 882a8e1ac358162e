package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// ensureSchema brings a workspace database up to the current schema version
// and seeds the singleton context rows. It is idempotent: a database already
// at the latest version gets no DDL. A database at a version newer than this
// build knows is refused with ErrSchemaMismatch rather than downgraded.
func ensureSchema(ctx context.Context, db *sql.DB, d dialect) error {
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (
		    version    INTEGER PRIMARY KEY,
		    applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", translateDBError(err))
	}

	var current int
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", translateDBError(err))
	}

	migs := d.migrations()
	latest := migs[len(migs)-1].version
	if current > latest {
		return fmt.Errorf("%w: workspace schema is at version %d, this build supports up to %d",
			ErrSchemaMismatch, current, latest)
	}

	for _, m := range migs {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, d, m); err != nil {
			return err
		}
		log.Printf("Applied schema migration %d (%s)", m.version, m.name)
	}

	return seedSingletonContexts(ctx, db)
}

// applyMigration runs one migration step in its own transaction. The version
// row is written last, so a failed step leaves the prior version intact.
func applyMigration(ctx context.Context, db *sql.DB, d dialect, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.version, translateDBError(err))
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, translateDBError(err))
		}
	}
	if _, err := tx.ExecContext(ctx,
		d.rebind(`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`),
		m.version, now()); err != nil {
		return fmt.Errorf("record migration %d: %w", m.version, translateDBError(err))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.version, translateDBError(err))
	}
	return nil
}

// seedSingletonContexts inserts the id=1 rows for product and active context
// if absent. Seeding here, not lazily at read time, avoids races between
// concurrent first readers.
func seedSingletonContexts(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"product_context", "active_context"} {
		stmt := fmt.Sprintf(
			`INSERT INTO %s (id, content) VALUES (1, '{}') ON CONFLICT (id) DO NOTHING`, table)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed %s: %w", table, translateDBError(err))
		}
	}
	return nil
}
