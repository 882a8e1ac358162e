package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/contextport/conport/internal/models"
)

// GlossaryCategory is the custom data category backing the project glossary.
const GlossaryCategory = "ProjectGlossary"

// CustomDataArgs is the input for storing a custom data value.
type CustomDataArgs struct {
	Category string
	Key      string
	Value    any
}

// LogCustomData stores a value under (category, key), replacing any previous
// value at the same coordinates.
func (r *Repository) LogCustomData(ctx context.Context, workspaceID string, args CustomDataArgs) (*models.CustomData, error) {
	var created *models.CustomData
	err := r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		var err error
		created, err = r.logCustomDataTx(ctx, tx, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) logCustomDataTx(ctx context.Context, tx *sql.Tx, args CustomDataArgs) (*models.CustomData, error) {
	if strings.TrimSpace(args.Category) == "" {
		return nil, validationErrorf("custom data category is required")
	}
	if strings.TrimSpace(args.Key) == "" {
		return nil, validationErrorf("custom data key is required")
	}
	encoded, err := encodeJSON(args.Value)
	if err != nil {
		return nil, err
	}

	c := models.CustomData{
		Timestamp: now(),
		Category:  args.Category,
		Key:       args.Key,
		Value:     args.Value,
	}
	err = tx.QueryRowContext(ctx,
		r.d.rebind(`INSERT INTO custom_data (timestamp, category, key, value)
		            VALUES (?, ?, ?, ?)
		            ON CONFLICT (category, key) DO UPDATE SET timestamp = excluded.timestamp, value = excluded.value
		            RETURNING id`),
		c.Timestamp, c.Category, c.Key, encoded,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("upsert custom data %s/%s: %w", args.Category, args.Key, err)
	}
	return &c, nil
}

// GetCustomData reads custom data. With no category it returns everything;
// with a category it returns that category; with category and key it returns
// the single entry. A key without a category is rejected.
func (r *Repository) GetCustomData(ctx context.Context, workspaceID, category, key string) ([]models.CustomData, error) {
	if key != "" && category == "" {
		return nil, validationErrorf("category is required when key is given")
	}
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, timestamp, category, key, value FROM custom_data WHERE 1=1`
	var args []any
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if key != "" {
		query += ` AND key = ?`
		args = append(args, key)
	}
	query += ` ORDER BY category, key`

	rows, err := db.QueryContext(ctx, r.d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("get custom data: %w", translateDBError(err))
	}
	defer rows.Close()

	var entries []models.CustomData
	for rows.Next() {
		var c models.CustomData
		var raw string
		if err := rows.Scan(&c.ID, &c.Timestamp, &c.Category, &c.Key, &raw); err != nil {
			return nil, fmt.Errorf("scan custom data: %w", err)
		}
		c.Value = decodeValue(raw)
		entries = append(entries, c)
	}
	return entries, rows.Err()
}

// DeleteCustomData removes one entry by its coordinates.
func (r *Repository) DeleteCustomData(ctx context.Context, workspaceID, category, key string) error {
	if strings.TrimSpace(category) == "" || strings.TrimSpace(key) == "" {
		return validationErrorf("category and key are required")
	}
	return r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			r.d.rebind(`DELETE FROM custom_data WHERE category = ? AND key = ?`), category, key)
		if err != nil {
			return fmt.Errorf("delete custom data %s/%s: %w", category, key, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: custom data %s/%s", ErrNotFound, category, key)
		}
		return nil
	})
}

// SearchCustomDataValueFTS runs a ranked full-text search over categories,
// keys and values, optionally scoped to one category. A blank query matches
// nothing.
func (r *Repository) SearchCustomDataValueFTS(ctx context.Context, workspaceID, query, category string, limit int) ([]models.CustomDataHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	args := []any{r.d.matchArg(query)}
	if category != "" {
		args = append(args, category)
	}
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, r.d.rebind(r.d.searchCustomDataSQL(category != "")), args...)
	if err != nil {
		return nil, fmt.Errorf("search custom data: %w", translateDBError(err))
	}
	defer rows.Close()

	var hits []models.CustomDataHit
	for rows.Next() {
		var h models.CustomDataHit
		var raw string
		if err := rows.Scan(&h.ID, &h.Timestamp, &h.Category, &h.Key, &raw, &h.Score); err != nil {
			return nil, fmt.Errorf("scan custom data hit: %w", err)
		}
		h.Value = decodeValue(raw)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// SearchProjectGlossaryFTS searches the glossary category only.
func (r *Repository) SearchProjectGlossaryFTS(ctx context.Context, workspaceID, query string, limit int) ([]models.CustomDataHit, error) {
	return r.SearchCustomDataValueFTS(ctx, workspaceID, query, GlossaryCategory, limit)
}

// decodeValue restores a JSON column value; undecodable text comes back as
// the raw string.
func decodeValue(raw string) any {
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
