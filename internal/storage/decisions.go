package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/contextport/conport/internal/models"
)

// DecisionArgs is the input for logging a decision.
type DecisionArgs struct {
	Summary               string
	Rationale             string
	ImplementationDetails string
	Tags                  []string
}

// DecisionFilter narrows a decision listing by tags.
type DecisionFilter struct {
	// TagsAll keeps decisions carrying every listed tag.
	TagsAll []string
	// TagsAny keeps decisions carrying at least one listed tag.
	TagsAny []string
}

// LogDecision appends a decision and returns it with the store-assigned id
// and timestamp.
func (r *Repository) LogDecision(ctx context.Context, workspaceID string, args DecisionArgs) (*models.Decision, error) {
	var created *models.Decision
	err := r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		var err error
		created, err = r.logDecisionTx(ctx, tx, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// logDecisionTx inserts one decision inside an existing transaction; batch
// operations reuse it.
func (r *Repository) logDecisionTx(ctx context.Context, tx *sql.Tx, args DecisionArgs) (*models.Decision, error) {
	if strings.TrimSpace(args.Summary) == "" {
		return nil, validationErrorf("decision summary is required")
	}
	tags, err := encodeTags(args.Tags)
	if err != nil {
		return nil, err
	}

	d := models.Decision{
		Timestamp:             now(),
		Summary:               args.Summary,
		Rationale:             args.Rationale,
		ImplementationDetails: args.ImplementationDetails,
		Tags:                  args.Tags,
	}
	err = tx.QueryRowContext(ctx,
		r.d.rebind(`INSERT INTO decisions (timestamp, summary, rationale, implementation_details, tags)
		            VALUES (?, ?, ?, ?, ?) RETURNING id`),
		d.Timestamp, d.Summary, nullable(d.Rationale), nullable(d.ImplementationDetails), tags,
	).Scan(&d.ID)
	if err != nil {
		return nil, fmt.Errorf("insert decision: %w", err)
	}
	return &d, nil
}

// GetDecisionByID returns one decision.
func (r *Repository) GetDecisionByID(ctx context.Context, workspaceID string, id int64) (*models.Decision, error) {
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		r.d.rebind(`SELECT id, timestamp, summary, rationale, implementation_details, tags
		            FROM decisions WHERE id = ?`), id)
	d, err := scanDecision(row)
	if err != nil {
		return nil, fmt.Errorf("get decision %d: %w", id, translateDBError(err))
	}
	return d, nil
}

// GetDecisions lists decisions newest first with tag filters and pagination.
// It returns the page and an opaque cursor for the next one; a page past the
// end is empty with an empty cursor.
func (r *Repository) GetDecisions(ctx context.Context, workspaceID string, filter DecisionFilter, page Page) ([]models.Decision, string, error) {
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}
	limit, offset, err := page.resolve()
	if err != nil {
		return nil, "", err
	}

	query := `SELECT id, timestamp, summary, rationale, implementation_details, tags
	          FROM decisions WHERE 1=1`
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
		return nil, "", fmt.Errorf("list decisions: %w", translateDBError(err))
	}
	defer rows.Close()

	var decisions []models.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, "", fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	return decisions, nextCursor(offset, len(decisions), limit), nil
}

// DeleteDecisionByID removes a decision and its index entry.
func (r *Repository) DeleteDecisionByID(ctx context.Context, workspaceID string, id int64) error {
	return r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.d.rebind(`DELETE FROM decisions WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete decision %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: decision %d", ErrNotFound, id)
		}
		return nil
	})
}

// SearchDecisionsFTS runs a ranked full-text search over decisions. A blank
// query matches nothing.
func (r *Repository) SearchDecisionsFTS(ctx context.Context, workspaceID, query string, limit int) ([]models.DecisionHit, error) {
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

	rows, err := db.QueryContext(ctx, r.d.rebind(r.d.searchDecisionsSQL()), r.d.matchArg(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search decisions: %w", translateDBError(err))
	}
	defer rows.Close()

	var hits []models.DecisionHit
	for rows.Next() {
		var h models.DecisionHit
		var rationale, details, tags sql.NullString
		if err := rows.Scan(&h.ID, &h.Timestamp, &h.Summary, &rationale, &details, &tags, &h.Score); err != nil {
			return nil, fmt.Errorf("scan decision hit: %w", err)
		}
		h.Rationale = rationale.String
		h.ImplementationDetails = details.String
		h.Tags = decodeTags(tags)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (*models.Decision, error) {
	var d models.Decision
	var rationale, details, tags sql.NullString
	if err := row.Scan(&d.ID, &d.Timestamp, &d.Summary, &rationale, &details, &tags); err != nil {
		return nil, err
	}
	d.Rationale = rationale.String
	d.ImplementationDetails = details.String
	d.Tags = decodeTags(tags)
	return &d, nil
}

// tagPattern matches a JSON-encoded tag inside the tags column.
func tagPattern(tag string) string {
	return `%"` + tag + `"%`
}

// nullable maps the empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
