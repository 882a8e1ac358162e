package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestUnwritableWorkspaceMapsToConnectionError(t *testing.T) {
	r, _ := setupRepo(t)

	// A regular file where a directory is needed makes the workspace data
	// dir impossible to create, for any user.
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker file: %v", err)
	}

	_, err := r.GetProductContext(context.Background(), filepath.Join(blocker, "ws"))
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("Expected ErrConnection for unwritable workspace path, got %v", err)
	}
}

func TestEmbeddedWriteContentionMapsToBusy(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	if _, err := r.LogDecision(ctx, ws, DecisionArgs{Summary: "seed"}); err != nil {
		t.Fatalf("LogDecision: %v", err)
	}

	// Hold the workspace write lock through the repository, then contend
	// with a second handle that gives up quickly.
	err := r.withTx(ctx, ws, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE product_context SET content = '{}' WHERE id = 1`); err != nil {
			return err
		}

		raw, err := sql.Open("sqlite3", "file:"+DatabasePath(ws)+"?_pragma=busy_timeout(100)")
		if err != nil {
			t.Fatalf("open contender: %v", err)
		}
		defer raw.Close()

		_, rawErr := raw.ExecContext(ctx,
			`INSERT INTO decisions (timestamp, summary) VALUES ('2026-01-01 00:00:00.000000000', 'contender')`)
		if rawErr == nil {
			t.Error("Expected the concurrent write to be rejected while the lock is held")
			return nil
		}
		if translated := translateDBError(rawErr); !errors.Is(translated, ErrBusy) {
			t.Errorf("Translated contention error = %v, want ErrBusy", translated)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withTx: %v", err)
	}
}
