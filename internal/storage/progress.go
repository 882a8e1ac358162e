package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/contextport/conport/internal/models"
)

// ProgressArgs is the input for logging a progress entry.
type ProgressArgs struct {
	Status      string
	Description string
	ParentID    *int64
}

// ProgressUpdateArgs carries the mutable fields of a progress entry. Nil
// fields are left unchanged.
type ProgressUpdateArgs struct {
	Status      *string
	Description *string
	ParentID    *int64
}

// ProgressFilter narrows a progress listing.
type ProgressFilter struct {
	Status   string
	ParentID *int64
}

func (r *Repository) validStatus(status string) bool {
	return r.statuses[status]
}

func (r *Repository) statusList() []string {
	out := make([]string, 0, len(r.statuses))
	for s := range r.statuses {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// LogProgress appends a progress entry. The status must belong to the
// configured status set and the parent, when given, must exist.
func (r *Repository) LogProgress(ctx context.Context, workspaceID string, args ProgressArgs) (*models.ProgressEntry, error) {
	var created *models.ProgressEntry
	err := r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		var err error
		created, err = r.logProgressTx(ctx, tx, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) logProgressTx(ctx context.Context, tx *sql.Tx, args ProgressArgs) (*models.ProgressEntry, error) {
	if strings.TrimSpace(args.Description) == "" {
		return nil, validationErrorf("progress description is required")
	}
	if !r.validStatus(args.Status) {
		return nil, validationErrorf("invalid status %q, expected one of %s",
			args.Status, strings.Join(r.statusList(), ", "))
	}
	if args.ParentID != nil {
		if err := r.progressExistsTx(ctx, tx, *args.ParentID); err != nil {
			return nil, err
		}
	}

	e := models.ProgressEntry{
		Timestamp:   now(),
		Status:      args.Status,
		Description: args.Description,
		ParentID:    args.ParentID,
	}
	err := tx.QueryRowContext(ctx,
		r.d.rebind(`INSERT INTO progress_entries (timestamp, status, description, parent_id)
		            VALUES (?, ?, ?, ?) RETURNING id`),
		e.Timestamp, e.Status, e.Description, e.ParentID,
	).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("insert progress entry: %w", err)
	}
	return &e, nil
}

func (r *Repository) progressExistsTx(ctx context.Context, tx *sql.Tx, id int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		r.d.rebind(`SELECT EXISTS(SELECT 1 FROM progress_entries WHERE id = ?)`), id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check progress entry %d: %w", id, err)
	}
	if !exists {
		return validationErrorf("parent progress entry %d does not exist", id)
	}
	return nil
}

// GetProgress lists progress entries newest first with optional status and
// parent filters.
func (r *Repository) GetProgress(ctx context.Context, workspaceID string, filter ProgressFilter, page Page) ([]models.ProgressEntry, string, error) {
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}
	limit, offset, err := page.resolve()
	if err != nil {
		return nil, "", err
	}

	query := `SELECT id, timestamp, status, description, parent_id
	          FROM progress_entries WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.ParentID != nil {
		query += ` AND parent_id = ?`
		args = append(args, *filter.ParentID)
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, r.d.rebind(query), args...)
	if err != nil {
		return nil, "", fmt.Errorf("list progress: %w", translateDBError(err))
	}
	defer rows.Close()

	var entries []models.ProgressEntry
	for rows.Next() {
		e, err := scanProgress(rows)
		if err != nil {
			return nil, "", fmt.Errorf("scan progress entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	return entries, nextCursor(offset, len(entries), limit), nil
}

// GetProgressByID returns one progress entry.
func (r *Repository) GetProgressByID(ctx context.Context, workspaceID string, id int64) (*models.ProgressEntry, error) {
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		r.d.rebind(`SELECT id, timestamp, status, description, parent_id
		            FROM progress_entries WHERE id = ?`), id)
	e, err := scanProgress(row)
	if err != nil {
		return nil, fmt.Errorf("get progress entry %d: %w", id, translateDBError(err))
	}
	return e, nil
}

// UpdateProgressEntry mutates the given fields of a progress entry.
func (r *Repository) UpdateProgressEntry(ctx context.Context, workspaceID string, id int64, args ProgressUpdateArgs) (*models.ProgressEntry, error) {
	if args.Status == nil && args.Description == nil && args.ParentID == nil {
		return nil, validationErrorf("no fields to update")
	}
	if args.Status != nil && !r.validStatus(*args.Status) {
		return nil, validationErrorf("invalid status %q, expected one of %s",
			*args.Status, strings.Join(r.statusList(), ", "))
	}
	if args.Description != nil && strings.TrimSpace(*args.Description) == "" {
		return nil, validationErrorf("progress description cannot be blank")
	}

	var updated *models.ProgressEntry
	err := r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		if args.ParentID != nil {
			if *args.ParentID == id {
				return validationErrorf("progress entry %d cannot be its own parent", id)
			}
			if err := r.progressExistsTx(ctx, tx, *args.ParentID); err != nil {
				return err
			}
		}

		var sets []string
		var setArgs []any
		if args.Status != nil {
			sets = append(sets, `status = ?`)
			setArgs = append(setArgs, *args.Status)
		}
		if args.Description != nil {
			sets = append(sets, `description = ?`)
			setArgs = append(setArgs, *args.Description)
		}
		if args.ParentID != nil {
			sets = append(sets, `parent_id = ?`)
			setArgs = append(setArgs, *args.ParentID)
		}
		setArgs = append(setArgs, id)

		res, err := tx.ExecContext(ctx,
			r.d.rebind(`UPDATE progress_entries SET `+strings.Join(sets, ", ")+` WHERE id = ?`), setArgs...)
		if err != nil {
			return fmt.Errorf("update progress entry %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: progress entry %d", ErrNotFound, id)
		}

		row := tx.QueryRowContext(ctx,
			r.d.rebind(`SELECT id, timestamp, status, description, parent_id
			            FROM progress_entries WHERE id = ?`), id)
		updated, err = scanProgress(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProgressEntryByID removes a progress entry. Children keep existing
// with their parent reference cleared.
func (r *Repository) DeleteProgressEntryByID(ctx context.Context, workspaceID string, id int64) error {
	return r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.d.rebind(`DELETE FROM progress_entries WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete progress entry %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: progress entry %d", ErrNotFound, id)
		}
		return nil
	})
}

// SearchProgressFTS runs a ranked full-text search over progress
// descriptions. A blank query matches nothing.
func (r *Repository) SearchProgressFTS(ctx context.Context, workspaceID, query string, limit int) ([]models.ProgressHit, error) {
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

	rows, err := db.QueryContext(ctx, r.d.rebind(r.d.searchProgressSQL()), r.d.matchArg(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search progress: %w", translateDBError(err))
	}
	defer rows.Close()

	var hits []models.ProgressHit
	for rows.Next() {
		var h models.ProgressHit
		var parent sql.NullInt64
		if err := rows.Scan(&h.ID, &h.Timestamp, &h.Status, &h.Description, &parent, &h.Score); err != nil {
			return nil, fmt.Errorf("scan progress hit: %w", err)
		}
		if parent.Valid {
			h.ParentID = &parent.Int64
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func scanProgress(row rowScanner) (*models.ProgressEntry, error) {
	var e models.ProgressEntry
	var parent sql.NullInt64
	if err := row.Scan(&e.ID, &e.Timestamp, &e.Status, &e.Description, &parent); err != nil {
		return nil, err
	}
	if parent.Valid {
		e.ParentID = &parent.Int64
	}
	return &e, nil
}
