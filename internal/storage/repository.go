package storage

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/contextport/conport/internal/config"
)

// timeFormat is fixed-width so text ordering equals chronological ordering
// on both backends.
const timeFormat = "2006-01-02 15:04:05.000000000"

func now() string {
	return time.Now().UTC().Format(timeFormat)
}

// MaxPageSize caps every listing operation.
const MaxPageSize = 200

// DefaultSearchLimit applies when a search caller passes no limit.
const DefaultSearchLimit = 10

// defaultProgressStatuses is the validated status set; the configuration can
// extend it.
var defaultProgressStatuses = []string{"TODO", "IN_PROGRESS", "DONE", "BLOCKED"}

// Repository is the stable data-access contract over either backend. Which
// backend executes a call is fixed at construction: the dialect strategy is
// chosen once from the configuration and injected, so no operation branches
// on configuration at call time.
type Repository struct {
	provider *Provider
	d        dialect
	statuses map[string]bool
}

// NewRepository routes construction between the two code paths. With use_orm
// disabled the legacy direct-embedded path is used and db_type is ignored,
// matching the behavior callers depended on before the multi-backend path
// existed; with use_orm enabled the dialect follows db_type.
func NewRepository(cfg config.Config) *Repository {
	var d dialect = sqliteDialect{}
	if cfg.UseORM && cfg.DBType == config.DBTypePostgres {
		d = postgresDialect{}
	}

	statuses := make(map[string]bool, len(defaultProgressStatuses)+len(cfg.ExtraProgressStatuses))
	for _, s := range defaultProgressStatuses {
		statuses[s] = true
	}
	for _, s := range cfg.ExtraProgressStatuses {
		statuses[s] = true
	}

	return &Repository{
		provider: newProvider(cfg, d),
		d:        d,
		statuses: statuses,
	}
}

// Backend reports which dialect the router selected.
func (r *Repository) Backend() string { return r.d.name() }

// Registry exposes the embedded-backend workspace registry.
func (r *Repository) Registry() *Registry { return r.provider.Registry() }

// Close releases all backend connections.
func (r *Repository) Close() error { return r.provider.Close() }

// withTx runs fn inside one transaction against the workspace database.
// Rollback on any error; the deferred Rollback is a no-op after Commit.
func (r *Repository) withTx(ctx context.Context, workspaceID string, fn func(tx *sql.Tx) error) error {
	db, err := r.provider.Acquire(ctx, workspaceID)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", translateDBError(err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return translateDBError(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", translateDBError(err))
	}
	return nil
}

func (r *Repository) acquire(ctx context.Context, workspaceID string) (*sql.DB, error) {
	return r.provider.Acquire(ctx, workspaceID)
}

// --- pagination cursors ---

// Page bounds a listing operation. Cursor is opaque; pass the NextCursor of
// the previous page to continue.
type Page struct {
	Limit  int
	Cursor string
}

// resolve clamps the limit and decodes the cursor into a row offset.
func (p Page) resolve() (limit, offset int, err error) {
	limit = p.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	if p.Cursor == "" {
		return limit, 0, nil
	}
	raw, err := base64.URLEncoding.DecodeString(p.Cursor)
	if err != nil {
		return 0, 0, validationErrorf("malformed cursor")
	}
	offset, err = strconv.Atoi(strings.TrimPrefix(string(raw), "o:"))
	if err != nil || offset < 0 {
		return 0, 0, validationErrorf("malformed cursor")
	}
	return limit, offset, nil
}

func nextCursor(offset, returned, limit int) string {
	if returned < limit {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte("o:" + strconv.Itoa(offset+returned)))
}

// --- JSON column helpers ---

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", validationErrorf("value is not JSON-serializable: %v", err)
	}
	return string(data), nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	return encodeJSON(tags)
}

func decodeTags(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil {
		return nil
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func decodeContent(raw string) map[string]any {
	content := map[string]any{}
	if raw == "" {
		return content
	}
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return map[string]any{}
	}
	return content
}
