package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONPORT_DB_TYPE", "")
	t.Setenv("CONPORT_USE_ORM", "")
	t.Setenv("CONPORT_BASE_DIR", t.TempDir())
	t.Setenv("CONPORT_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBType != DBTypeSQLite {
		t.Errorf("DBType = %q, want sqlite", cfg.DBType)
	}
	if cfg.UseORM {
		t.Error("UseORM should default to false")
	}
	if cfg.Postgres.Host != "localhost" || cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres defaults = %s:%d", cfg.Postgres.Host, cfg.Postgres.Port)
	}
}

func TestNormalizeDBType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", DBTypeSQLite},
		{"sqlite", DBTypeSQLite},
		{"SQLite", DBTypeSQLite},
		{"postgres", DBTypePostgres},
		{"postgresql", DBTypePostgres},
		{" PostgreSQL ", DBTypePostgres},
		{"mysql", DBTypeSQLite},
	}
	for _, tt := range tests {
		if got := normalizeDBType(tt.raw); got != tt.want {
			t.Errorf("normalizeDBType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONPORT_DB_TYPE", "postgres")
	t.Setenv("CONPORT_USE_ORM", "true")
	t.Setenv("CONPORT_BASE_DIR", "/srv/conport")
	t.Setenv("CONPORT_CONFIG", "")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_DB", "fixed_db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBType != DBTypePostgres || !cfg.UseORM {
		t.Errorf("DBType=%q UseORM=%v, want postgresql/true", cfg.DBType, cfg.UseORM)
	}
	if cfg.BaseDir != "/srv/conport" {
		t.Errorf("BaseDir = %q", cfg.BaseDir)
	}
	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Port != 5433 {
		t.Errorf("Postgres = %s:%d", cfg.Postgres.Host, cfg.Postgres.Port)
	}
	if got := cfg.DatabaseName("/any/workspace"); got != "fixed_db" {
		t.Errorf("DatabaseName with POSTGRES_DB = %q", got)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conport.yaml")
	content := "db_type: postgres\nuse_orm: true\nextra_progress_statuses:\n  - SHIPPED\npostgres:\n  host: filehost\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONPORT_DB_TYPE", "")
	t.Setenv("CONPORT_USE_ORM", "")
	t.Setenv("CONPORT_BASE_DIR", dir)
	t.Setenv("CONPORT_CONFIG", path)
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("POSTGRES_DB", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBType != DBTypePostgres || !cfg.UseORM {
		t.Errorf("File overlay not applied: DBType=%q UseORM=%v", cfg.DBType, cfg.UseORM)
	}
	if cfg.Postgres.Host != "filehost" {
		t.Errorf("Postgres.Host = %q, want filehost", cfg.Postgres.Host)
	}
	if len(cfg.ExtraProgressStatuses) != 1 || cfg.ExtraProgressStatuses[0] != "SHIPPED" {
		t.Errorf("ExtraProgressStatuses = %v", cfg.ExtraProgressStatuses)
	}
}

func TestDatabaseNameDerivation(t *testing.T) {
	cfg := Config{}
	got := cfg.DatabaseName("/Users/dev/My Project")
	want := "context_portal_users_dev_my_project"
	if got != want {
		t.Errorf("DatabaseName = %q, want %q", got, want)
	}
}
