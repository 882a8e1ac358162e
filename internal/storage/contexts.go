package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/contextport/conport/internal/models"
)

// DeleteSentinel removes a top-level key when used as a patch value.
const DeleteSentinel = "__DELETE__"

// UpdateContextArgs carries either a full replacement content or a partial
// patch. Exactly one of Content and PatchContent must be set.
type UpdateContextArgs struct {
	Content      map[string]any
	PatchContent map[string]any
	ChangeSource string
}

// GetProductContext returns the workspace's product context singleton.
func (r *Repository) GetProductContext(ctx context.Context, workspaceID string) (*models.ProductContext, error) {
	content, err := r.getContextContent(ctx, workspaceID, "product_context")
	if err != nil {
		return nil, err
	}
	return &models.ProductContext{ID: 1, Content: content}, nil
}

// GetActiveContext returns the workspace's active context singleton.
func (r *Repository) GetActiveContext(ctx context.Context, workspaceID string) (*models.ActiveContext, error) {
	content, err := r.getContextContent(ctx, workspaceID, "active_context")
	if err != nil {
		return nil, err
	}
	return &models.ActiveContext{ID: 1, Content: content}, nil
}

// UpdateProductContext replaces or patches the product context. The previous
// content is appended to the history table in the same transaction.
func (r *Repository) UpdateProductContext(ctx context.Context, workspaceID string, args UpdateContextArgs) (*models.ProductContext, error) {
	content, err := r.updateContext(ctx, workspaceID, "product_context", args)
	if err != nil {
		return nil, err
	}
	return &models.ProductContext{ID: 1, Content: content}, nil
}

// UpdateActiveContext replaces or patches the active context.
func (r *Repository) UpdateActiveContext(ctx context.Context, workspaceID string, args UpdateContextArgs) (*models.ActiveContext, error) {
	content, err := r.updateContext(ctx, workspaceID, "active_context", args)
	if err != nil {
		return nil, err
	}
	return &models.ActiveContext{ID: 1, Content: content}, nil
}

func (r *Repository) getContextContent(ctx context.Context, workspaceID, table string) (map[string]any, error) {
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	var raw string
	err = db.QueryRowContext(ctx, "SELECT content FROM "+table+" WHERE id = 1").Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", table, translateDBError(err))
	}
	return decodeContent(raw), nil
}

func (r *Repository) updateContext(ctx context.Context, workspaceID, table string, args UpdateContextArgs) (map[string]any, error) {
	if args.Content == nil && args.PatchContent == nil {
		return nil, validationErrorf("either content or patch_content is required")
	}
	if args.Content != nil && args.PatchContent != nil {
		return nil, validationErrorf("content and patch_content are mutually exclusive")
	}

	var final map[string]any
	err := r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		var raw string
		if err := tx.QueryRowContext(ctx, "SELECT content FROM "+table+" WHERE id = 1").Scan(&raw); err != nil {
			return fmt.Errorf("load %s: %w", table, err)
		}
		current := decodeContent(raw)

		if args.Content != nil {
			final = args.Content
		} else {
			final = make(map[string]any, len(current)+len(args.PatchContent))
			for k, v := range current {
				final[k] = v
			}
			for k, v := range args.PatchContent {
				if s, ok := v.(string); ok && s == DeleteSentinel {
					delete(final, k)
					continue
				}
				final[k] = v
			}
		}

		// Log the content being replaced before overwriting it.
		historyTable := table + "_history"
		var latest int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(version), 0) FROM "+historyTable).Scan(&latest); err != nil {
			return fmt.Errorf("latest %s version: %w", historyTable, err)
		}
		if _, err := tx.ExecContext(ctx,
			r.d.rebind("INSERT INTO "+historyTable+" (timestamp, version, content, change_source) VALUES (?, ?, ?, ?)"),
			now(), latest+1, raw, args.ChangeSource); err != nil {
			return fmt.Errorf("append %s: %w", historyTable, err)
		}

		encoded, err := encodeJSON(final)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			r.d.rebind("UPDATE "+table+" SET content = ? WHERE id = 1"), encoded); err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

// HistoryArgs filters a context history read.
type HistoryArgs struct {
	Limit      int
	VersionMin int
	VersionMax int
}

// GetItemHistory returns prior versions of a context item, newest first.
// Item must be "product_context" or "active_context".
func (r *Repository) GetItemHistory(ctx context.Context, workspaceID, item string, args HistoryArgs) ([]models.ContextHistoryEntry, error) {
	var table string
	switch item {
	case "product_context":
		table = "product_context_history"
	case "active_context":
		table = "active_context_history"
	default:
		return nil, validationErrorf("unknown history item %q", item)
	}

	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	query := "SELECT id, timestamp, version, content, change_source FROM " + table + " WHERE 1=1"
	var queryArgs []any
	if args.VersionMin > 0 {
		query += " AND version >= ?"
		queryArgs = append(queryArgs, args.VersionMin)
	}
	if args.VersionMax > 0 {
		query += " AND version <= ?"
		queryArgs = append(queryArgs, args.VersionMax)
	}
	query += " ORDER BY version DESC"
	limit := args.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	query += " LIMIT ?"
	queryArgs = append(queryArgs, limit)

	rows, err := db.QueryContext(ctx, r.d.rebind(query), queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", table, translateDBError(err))
	}
	defer rows.Close()

	var entries []models.ContextHistoryEntry
	for rows.Next() {
		var e models.ContextHistoryEntry
		var raw string
		var source sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Version, &raw, &source); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Content = decodeContent(raw)
		e.ChangeSource = source.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
