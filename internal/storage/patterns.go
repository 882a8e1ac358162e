package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/contextport/conport/internal/models"
)

// SystemPatternArgs is the input for logging a system pattern.
type SystemPatternArgs struct {
	Name        string
	Description string
	Tags        []string
}

// PatternFilter narrows a system pattern listing by tags.
type PatternFilter struct {
	TagsAll []string
	TagsAny []string
}

// LogSystemPattern records a named pattern. Names are unique per workspace;
// reusing one fails with a conflict.
func (r *Repository) LogSystemPattern(ctx context.Context, workspaceID string, args SystemPatternArgs) (*models.SystemPattern, error) {
	if strings.TrimSpace(args.Name) == "" {
		return nil, validationErrorf("system pattern name is required")
	}
	tags, err := encodeTags(args.Tags)
	if err != nil {
		return nil, err
	}

	p := models.SystemPattern{
		Timestamp:   now(),
		Name:        args.Name,
		Description: args.Description,
		Tags:        args.Tags,
	}
	err = r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			r.d.rebind(`INSERT INTO system_patterns (timestamp, name, description, tags)
			            VALUES (?, ?, ?, ?) RETURNING id`),
			p.Timestamp, p.Name, nullable(p.Description), tags,
		).Scan(&p.ID)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetSystemPatterns lists patterns newest first with tag filters.
func (r *Repository) GetSystemPatterns(ctx context.Context, workspaceID string, filter PatternFilter, page Page) ([]models.SystemPattern, string, error) {
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}
	limit, offset, err := page.resolve()
	if err != nil {
		return nil, "", err
	}

	query := `SELECT id, timestamp, name, description, tags FROM system_patterns WHERE 1=1`
	var args []any
	for _, tag := range filter.TagsAll {
		query += ` AND tags LIKE ?`
		args = append(args, tagPattern(tag))
	}
	if len(filter.TagsAny) > 0 {
		var ors []string
		for _, tag := range filter.TagsAny {
			ors = append(ors, `tags LIKE ?`)
			args = append(args, tagPattern(tag))
		}
		query += ` AND (` + strings.Join(ors, ` OR `) + `)`
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, r.d.rebind(query), args...)
	if err != nil {
		return nil, "", fmt.Errorf("list system patterns: %w", translateDBError(err))
	}
	defer rows.Close()

	var patterns []models.SystemPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, "", fmt.Errorf("scan system pattern: %w", err)
		}
		patterns = append(patterns, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	return patterns, nextCursor(offset, len(patterns), limit), nil
}

// GetSystemPatternByID returns one pattern.
func (r *Repository) GetSystemPatternByID(ctx context.Context, workspaceID string, id int64) (*models.SystemPattern, error) {
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		r.d.rebind(`SELECT id, timestamp, name, description, tags FROM system_patterns WHERE id = ?`), id)
	p, err := scanPattern(row)
	if err != nil {
		return nil, fmt.Errorf("get system pattern %d: %w", id, translateDBError(err))
	}
	return p, nil
}

// DeleteSystemPatternByID removes a pattern.
func (r *Repository) DeleteSystemPatternByID(ctx context.Context, workspaceID string, id int64) error {
	return r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.d.rebind(`DELETE FROM system_patterns WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete system pattern %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: system pattern %d", ErrNotFound, id)
		}
		return nil
	})
}

// SearchSystemPatternsFTS runs a ranked full-text search over pattern names
// and descriptions. A blank query matches nothing.
func (r *Repository) SearchSystemPatternsFTS(ctx context.Context, workspaceID, query string, limit int) ([]models.SystemPatternHit, error) {
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

	rows, err := db.QueryContext(ctx, r.d.rebind(r.d.searchPatternsSQL()), r.d.matchArg(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search system patterns: %w", translateDBError(err))
	}
	defer rows.Close()

	var hits []models.SystemPatternHit
	for rows.Next() {
		var h models.SystemPatternHit
		var description, tags sql.NullString
		if err := rows.Scan(&h.ID, &h.Timestamp, &h.Name, &description, &tags, &h.Score); err != nil {
			return nil, fmt.Errorf("scan system pattern hit: %w", err)
		}
		h.Description = description.String
		h.Tags = decodeTags(tags)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func scanPattern(row rowScanner) (*models.SystemPattern, error) {
	var p models.SystemPattern
	var description, tags sql.NullString
	if err := row.Scan(&p.ID, &p.Timestamp, &p.Name, &description, &tags); err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Tags = decodeTags(tags)
	return &p, nil
}
