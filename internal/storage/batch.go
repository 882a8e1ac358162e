package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/contextport/conport/internal/models"
)

// BatchItems groups items to insert atomically. Either every item lands or
// none do.
type BatchItems struct {
	Decisions  []DecisionArgs
	Progress   []ProgressArgs
	CustomData []CustomDataArgs
}

// BatchResult reports what a batch insert created.
type BatchResult struct {
	Decisions  []models.Decision
	Progress   []models.ProgressEntry
	CustomData []models.CustomData
}

func (b BatchItems) empty() bool {
	return len(b.Decisions) == 0 && len(b.Progress) == 0 && len(b.CustomData) == 0
}

// BatchLogItems inserts all items in one transaction. The first invalid item
// aborts the whole batch with its position in the error.
func (r *Repository) BatchLogItems(ctx context.Context, workspaceID string, items BatchItems) (*BatchResult, error) {
	if items.empty() {
		return nil, validationErrorf("batch contains no items")
	}

	var result BatchResult
	err := r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		for i, args := range items.Decisions {
			d, err := r.logDecisionTx(ctx, tx, args)
			if err != nil {
				return fmt.Errorf("decision %d: %w", i, err)
			}
			result.Decisions = append(result.Decisions, *d)
		}
		for i, args := range items.Progress {
			e, err := r.logProgressTx(ctx, tx, args)
			if err != nil {
				return fmt.Errorf("progress %d: %w", i, err)
			}
			result.Progress = append(result.Progress, *e)
		}
		for i, args := range items.CustomData {
			c, err := r.logCustomDataTx(ctx, tx, args)
			if err != nil {
				return fmt.Errorf("custom data %d: %w", i, err)
			}
			result.CustomData = append(result.CustomData, *c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRecentActivitySummary reports decisions and progress entries logged in
// the trailing window, newest first.
func (r *Repository) GetRecentActivitySummary(ctx context.Context, workspaceID string, since time.Duration, limit int) (*models.ActivitySummary, error) {
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if since <= 0 {
		since = 24 * time.Hour
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultSearchLimit
	}
	cutoff := time.Now().UTC().Add(-since).Format(timeFormat)

	summary := models.ActivitySummary{Since: cutoff}

	rows, err := db.QueryContext(ctx,
		r.d.rebind(`SELECT id, timestamp, summary, rationale, implementation_details, tags
		            FROM decisions WHERE timestamp >= ? ORDER BY timestamp DESC, id DESC LIMIT ?`),
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("recent decisions: %w", translateDBError(err))
	}
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan recent decision: %w", err)
		}
		summary.Decisions = append(summary.Decisions, *d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = db.QueryContext(ctx,
		r.d.rebind(`SELECT id, timestamp, status, description, parent_id
		            FROM progress_entries WHERE timestamp >= ? ORDER BY timestamp DESC, id DESC LIMIT ?`),
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("recent progress: %w", translateDBError(err))
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recent progress: %w", err)
		}
		summary.Progress = append(summary.Progress, *e)
	}
	return &summary, rows.Err()
}
