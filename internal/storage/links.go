package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/contextport/conport/internal/models"
)

// linkableTables maps link endpoint types to the tables holding them.
var linkableTables = map[string]string{
	"decision":       "decisions",
	"progress_entry": "progress_entries",
	"system_pattern": "system_patterns",
	"custom_data":    "custom_data",
}

// ContextLinkArgs is the input for linking two items.
type ContextLinkArgs struct {
	SourceItemType   string
	SourceItemID     string
	TargetItemType   string
	TargetItemID     string
	RelationshipType string
	Description      string
}

// LinkFilter narrows a link listing. Any zero field is ignored.
type LinkFilter struct {
	ItemType         string
	ItemID           string
	RelationshipType string
}

// LogContextLink relates two existing items. Both endpoints are checked at
// write time; links are not cleaned up when an endpoint is later deleted, so
// reads filter dangling ones instead.
func (r *Repository) LogContextLink(ctx context.Context, workspaceID string, args ContextLinkArgs) (*models.ContextLink, error) {
	if strings.TrimSpace(args.RelationshipType) == "" {
		return nil, validationErrorf("relationship_type is required")
	}

	l := models.ContextLink{
		Timestamp:        now(),
		SourceItemType:   args.SourceItemType,
		SourceItemID:     args.SourceItemID,
		TargetItemType:   args.TargetItemType,
		TargetItemID:     args.TargetItemID,
		RelationshipType: args.RelationshipType,
		Description:      args.Description,
	}
	err := r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		if err := r.checkEndpointTx(ctx, tx, "source", args.SourceItemType, args.SourceItemID); err != nil {
			return err
		}
		if err := r.checkEndpointTx(ctx, tx, "target", args.TargetItemType, args.TargetItemID); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			r.d.rebind(`INSERT INTO context_links
			            (timestamp, source_item_type, source_item_id, target_item_type, target_item_id, relationship_type, description)
			            VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			l.Timestamp, l.SourceItemType, l.SourceItemID, l.TargetItemType, l.TargetItemID,
			l.RelationshipType, nullable(l.Description),
		).Scan(&l.ID)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) checkEndpointTx(ctx context.Context, tx *sql.Tx, role, itemType, itemID string) error {
	table, ok := linkableTables[itemType]
	if !ok {
		return validationErrorf("unknown %s item type %q", role, itemType)
	}
	id, err := strconv.ParseInt(itemID, 10, 64)
	if err != nil {
		return validationErrorf("%s item id %q is not numeric", role, itemID)
	}
	var exists bool
	err = tx.QueryRowContext(ctx,
		r.d.rebind(`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`), id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s %s: %w", itemType, itemID, err)
	}
	if !exists {
		return validationErrorf("%s %s %s does not exist", role, itemType, itemID)
	}
	return nil
}

// GetContextLinks lists links touching an item, or all links when no item is
// given. Links whose endpoints were deleted since are dropped from the result.
func (r *Repository) GetContextLinks(ctx context.Context, workspaceID string, filter LinkFilter, page Page) ([]models.ContextLink, string, error) {
	if filter.ItemID != "" && filter.ItemType == "" {
		return nil, "", validationErrorf("item_type is required when item_id is given")
	}
	db, err := r.acquire(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}
	limit, offset, err := page.resolve()
	if err != nil {
		return nil, "", err
	}

	query := `SELECT id, timestamp, source_item_type, source_item_id, target_item_type, target_item_id, relationship_type, description
	          FROM context_links WHERE 1=1`
	var args []any
	if filter.ItemType != "" && filter.ItemID != "" {
		query += ` AND ((source_item_type = ? AND source_item_id = ?) OR (target_item_type = ? AND target_item_id = ?))`
		args = append(args, filter.ItemType, filter.ItemID, filter.ItemType, filter.ItemID)
	} else if filter.ItemType != "" {
		query += ` AND (source_item_type = ? OR target_item_type = ?)`
		args = append(args, filter.ItemType, filter.ItemType)
	}
	if filter.RelationshipType != "" {
		query += ` AND relationship_type = ?`
		args = append(args, filter.RelationshipType)
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, r.d.rebind(query), args...)
	if err != nil {
		return nil, "", fmt.Errorf("list context links: %w", translateDBError(err))
	}

	var links []models.ContextLink
	for rows.Next() {
		var l models.ContextLink
		var description sql.NullString
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.SourceItemType, &l.SourceItemID,
			&l.TargetItemType, &l.TargetItemID, &l.RelationshipType, &description); err != nil {
			rows.Close()
			return nil, "", fmt.Errorf("scan context link: %w", err)
		}
		l.Description = description.String
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, "", err
	}
	rows.Close()

	cursor := nextCursor(offset, len(links), limit)

	live := links[:0]
	for _, l := range links {
		ok, err := r.endpointAlive(ctx, db, l.SourceItemType, l.SourceItemID)
		if err != nil {
			return nil, "", err
		}
		if !ok {
			continue
		}
		ok, err = r.endpointAlive(ctx, db, l.TargetItemType, l.TargetItemID)
		if err != nil {
			return nil, "", err
		}
		if !ok {
			continue
		}
		live = append(live, l)
	}
	return live, cursor, nil
}

func (r *Repository) endpointAlive(ctx context.Context, db *sql.DB, itemType, itemID string) (bool, error) {
	table, ok := linkableTables[itemType]
	if !ok {
		return false, nil
	}
	id, err := strconv.ParseInt(itemID, 10, 64)
	if err != nil {
		return false, nil
	}
	var exists bool
	err = db.QueryRowContext(ctx,
		r.d.rebind(`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`), id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check link endpoint %s %s: %w", itemType, itemID, translateDBError(err))
	}
	return exists, nil
}

// DeleteContextLinkByID removes a link.
func (r *Repository) DeleteContextLinkByID(ctx context.Context, workspaceID string, id int64) error {
	return r.withTx(ctx, workspaceID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.d.rebind(`DELETE FROM context_links WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete context link %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("%w: context link %d", ErrNotFound, id)
		}
		return nil
	})
}
