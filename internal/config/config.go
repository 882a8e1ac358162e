package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database backend kinds.
const (
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgresql"
)

// Postgres holds connection parameters for the client-server backend.
type Postgres struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Config is the immutable process-wide configuration. It is built once at
// startup and passed by value to every component; nothing mutates it after
// Load returns.
type Config struct {
	// DBType selects the storage backend: sqlite or postgresql.
	DBType string `yaml:"db_type"`
	// UseORM selects the dialect-mediated multi-backend code path. When
	// false, the legacy direct-embedded path is used regardless of DBType.
	UseORM bool `yaml:"use_orm"`
	// BaseDir is where the workspace registry lives for the embedded backend.
	BaseDir string `yaml:"base_dir"`
	// Postgres parameters, used when DBType is postgresql.
	Postgres Postgres `yaml:"postgres"`
	// ExtraProgressStatuses extends the validated progress status set.
	ExtraProgressStatuses []string `yaml:"extra_progress_statuses"`
}

// Load builds the configuration from environment variables, optionally
// overridden by a YAML file named by CONPORT_CONFIG.
func Load() (Config, error) {
	cfg := Config{
		DBType: normalizeDBType(os.Getenv("CONPORT_DB_TYPE")),
		UseORM: envBool("CONPORT_USE_ORM", false),
		Postgres: Postgres{
			Host:     envOr("POSTGRES_HOST", "localhost"),
			Port:     envInt("POSTGRES_PORT", 5432),
			User:     envOr("POSTGRES_USER", "postgres"),
			Password: envOr("POSTGRES_PASSWORD", "postgres"),
			Database: os.Getenv("POSTGRES_DB"),
		},
	}

	if base := os.Getenv("CONPORT_BASE_DIR"); base != "" {
		cfg.BaseDir = base
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.BaseDir = filepath.Join(home, ".conport")
	}

	if path := os.Getenv("CONPORT_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// applyFile overlays settings from a YAML config file.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.DBType = normalizeDBType(cfg.DBType)
	return nil
}

// normalizeDBType maps aliases and unknown values onto a supported backend.
func normalizeDBType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", DBTypeSQLite:
		return DBTypeSQLite
	case "postgres", DBTypePostgres:
		return DBTypePostgres
	default:
		log.Printf("Unknown database type %q, defaulting to sqlite", raw)
		return DBTypeSQLite
	}
}

// DatabaseName returns the Postgres database name for a workspace. An
// explicit POSTGRES_DB wins; otherwise the name is derived from the
// workspace identifier.
func (c Config) DatabaseName(workspaceID string) string {
	if c.Postgres.Database != "" {
		return c.Postgres.Database
	}
	safe := strings.NewReplacer("/", "_", "\\", "_", "-", "_", ".", "_", " ", "_").Replace(workspaceID)
	return "context_portal_" + strings.Trim(strings.ToLower(safe), "_")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid value %q for %s, using %d", v, key, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid value %q for %s, using %v", v, key, fallback)
		return fallback
	}
	return b
}
