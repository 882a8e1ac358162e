package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/contextport/conport/internal/config"
	"github.com/contextport/conport/internal/models"
)

// setupRepo creates a repository over a fresh embedded workspace.
func setupRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	base := t.TempDir()
	cfg := config.Config{
		DBType:  config.DBTypeSQLite,
		BaseDir: filepath.Join(base, "conport"),
	}
	r := NewRepository(cfg)
	t.Cleanup(func() { r.Close() })
	return r, filepath.Join(base, "workspace")
}

func TestAcquireRequiresWorkspace(t *testing.T) {
	r, _ := setupRepo(t)

	_, err := r.GetProductContext(context.Background(), "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation for empty workspace, got %v", err)
	}
}

func TestSchemaIdempotent(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	db, err := r.provider.Acquire(ctx, ws)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// Running the migrations again against an up-to-date workspace must be
	// a no-op.
	if err := ensureSchema(ctx, db, r.d); err != nil {
		t.Fatalf("ensureSchema second run: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&n); err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if n != len(sqliteMigrations) {
		t.Errorf("Expected %d version rows, got %d", len(sqliteMigrations), n)
	}
}

func TestSchemaMismatchFailsFast(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	db, err := r.provider.Acquire(ctx, ws)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO schema_version (version, applied_at) VALUES (999, 'later')`); err != nil {
		t.Fatalf("bump version: %v", err)
	}

	// A fresh repository sees the newer schema and must refuse the workspace.
	r2 := NewRepository(config.Config{DBType: config.DBTypeSQLite, BaseDir: t.TempDir()})
	defer r2.Close()
	_, err = r2.GetProductContext(ctx, ws)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Expected ErrSchemaMismatch, got %v", err)
	}
}

func TestSingletonsSeeded(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	pc, err := r.GetProductContext(ctx, ws)
	if err != nil {
		t.Fatalf("GetProductContext: %v", err)
	}
	if pc.ID != 1 || len(pc.Content) != 0 {
		t.Errorf("Expected empty singleton with id 1, got id=%d content=%v", pc.ID, pc.Content)
	}

	ac, err := r.GetActiveContext(ctx, ws)
	if err != nil {
		t.Fatalf("GetActiveContext: %v", err)
	}
	if ac.ID != 1 || len(ac.Content) != 0 {
		t.Errorf("Expected empty singleton with id 1, got id=%d content=%v", ac.ID, ac.Content)
	}
}

func TestWorkspaceIsolation(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()
	other := ws + "-other"

	if _, err := r.LogDecision(ctx, ws, DecisionArgs{Summary: "use sqlite"}); err != nil {
		t.Fatalf("LogDecision: %v", err)
	}

	decisions, _, err := r.GetDecisions(ctx, other, DecisionFilter{}, Page{})
	if err != nil {
		t.Fatalf("GetDecisions other workspace: %v", err)
	}
	if len(decisions) != 0 {
		t.Errorf("Expected empty other workspace, got %d decisions", len(decisions))
	}
}

func TestRouterSelectsBackend(t *testing.T) {
	tests := []struct {
		useORM bool
		dbType string
		want   string
	}{
		{false, config.DBTypeSQLite, "sqlite"},
		{false, config.DBTypePostgres, "sqlite"},
		{true, config.DBTypeSQLite, "sqlite"},
		{true, config.DBTypePostgres, "postgresql"},
	}
	for _, tt := range tests {
		r := NewRepository(config.Config{DBType: tt.dbType, UseORM: tt.useORM, BaseDir: t.TempDir()})
		if got := r.Backend(); got != tt.want {
			t.Errorf("useORM=%v dbType=%s: backend = %q, want %q", tt.useORM, tt.dbType, got, tt.want)
		}
		r.Close()
	}
}

func TestLegacyAndRoutedPathsAgree(t *testing.T) {
	ctx := context.Background()

	// Same operations through both code paths must produce identical
	// observable results.
	run := func(useORM bool) ([]models.Decision, map[string]any, []models.CustomData) {
		t.Helper()
		base := t.TempDir()
		r := NewRepository(config.Config{DBType: config.DBTypeSQLite, UseORM: useORM, BaseDir: base})
		defer r.Close()
		ws := filepath.Join(base, "ws")

		if _, err := r.UpdateProductContext(ctx, ws, UpdateContextArgs{
			Content: map[string]any{"goal": "parity"},
		}); err != nil {
			t.Fatalf("UpdateProductContext(useORM=%v): %v", useORM, err)
		}
		for _, s := range []string{"one", "two", "three"} {
			if _, err := r.LogDecision(ctx, ws, DecisionArgs{Summary: s, Tags: []string{"t"}}); err != nil {
				t.Fatalf("LogDecision(useORM=%v): %v", useORM, err)
			}
		}
		if _, err := r.LogCustomData(ctx, ws, CustomDataArgs{Category: "c", Key: "k", Value: "v1"}); err != nil {
			t.Fatalf("LogCustomData(useORM=%v): %v", useORM, err)
		}
		if _, err := r.LogCustomData(ctx, ws, CustomDataArgs{Category: "c", Key: "k", Value: "v2"}); err != nil {
			t.Fatalf("upsert(useORM=%v): %v", useORM, err)
		}

		decisions, _, err := r.GetDecisions(ctx, ws, DecisionFilter{}, Page{})
		if err != nil {
			t.Fatalf("GetDecisions(useORM=%v): %v", useORM, err)
		}
		pc, err := r.GetProductContext(ctx, ws)
		if err != nil {
			t.Fatalf("GetProductContext(useORM=%v): %v", useORM, err)
		}
		custom, err := r.GetCustomData(ctx, ws, "", "")
		if err != nil {
			t.Fatalf("GetCustomData(useORM=%v): %v", useORM, err)
		}
		return decisions, pc.Content, custom
	}

	legacyDecisions, legacyContent, legacyCustom := run(false)
	routedDecisions, routedContent, routedCustom := run(true)

	if len(legacyDecisions) != len(routedDecisions) {
		t.Fatalf("Decision counts differ: %d vs %d", len(legacyDecisions), len(routedDecisions))
	}
	for i := range legacyDecisions {
		if legacyDecisions[i].Summary != routedDecisions[i].Summary ||
			legacyDecisions[i].ID != routedDecisions[i].ID {
			t.Errorf("Decision %d differs: %+v vs %+v", i, legacyDecisions[i], routedDecisions[i])
		}
	}
	if legacyContent["goal"] != routedContent["goal"] {
		t.Errorf("Product context differs: %v vs %v", legacyContent, routedContent)
	}
	if len(legacyCustom) != 1 || len(routedCustom) != 1 || legacyCustom[0].Value != routedCustom[0].Value {
		t.Errorf("Custom data differs: %v vs %v", legacyCustom, routedCustom)
	}
}

func TestPageCursorRoundTrip(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := r.LogDecision(ctx, ws, DecisionArgs{Summary: "d"}); err != nil {
			t.Fatalf("LogDecision: %v", err)
		}
	}

	first, cursor, err := r.GetDecisions(ctx, ws, DecisionFilter{}, Page{Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 2 || cursor == "" {
		t.Fatalf("Expected full first page with cursor, got %d items cursor=%q", len(first), cursor)
	}

	second, cursor2, err := r.GetDecisions(ctx, ws, DecisionFilter{}, Page{Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("Expected 2 items on second page, got %d", len(second))
	}
	if first[0].ID == second[0].ID {
		t.Error("Pages overlap")
	}

	third, _, err := r.GetDecisions(ctx, ws, DecisionFilter{}, Page{Limit: 2, Cursor: cursor2})
	if err != nil {
		t.Fatalf("third page: %v", err)
	}
	if len(third) != 1 {
		t.Errorf("Expected 1 item on last page, got %d", len(third))
	}

	// A page past the end is empty, not an error.
	past, next, err := r.GetDecisions(ctx, ws, DecisionFilter{}, Page{Limit: 2, Cursor: nextCursor(4, 2, 2)})
	if err != nil {
		t.Fatalf("past-end page: %v", err)
	}
	if len(past) != 0 || next != "" {
		t.Errorf("Expected empty past-end page, got %d items cursor=%q", len(past), next)
	}
}

func TestMalformedCursorRejected(t *testing.T) {
	r, ws := setupRepo(t)

	_, _, err := r.GetDecisions(context.Background(), ws, DecisionFilter{}, Page{Cursor: "not-base64!"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation for malformed cursor, got %v", err)
	}
}

func TestRegistryRecordsWorkspaces(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	if _, err := r.GetProductContext(ctx, ws); err != nil {
		t.Fatalf("GetProductContext: %v", err)
	}

	workspaces, err := r.Registry().List()
	if err != nil {
		t.Fatalf("List workspaces: %v", err)
	}
	if len(workspaces) != 1 || workspaces[0].Path != ws {
		t.Fatalf("Expected registry entry for %s, got %v", ws, workspaces)
	}
	if workspaces[0].ID == "" {
		t.Error("Workspace ID should not be empty")
	}
}
