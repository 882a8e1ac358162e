package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/contextport/conport/internal/models"
	"github.com/contextport/conport/internal/storage"
)

// MetaTools holds references needed by link, batch and workspace tool
// handlers.
type MetaTools struct {
	Repo *storage.Repository
}

// --- Input types ---

type LogContextLinkInput struct {
	WorkspaceID      string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	SourceItemType   string `json:"source_item_type" jsonschema:"Type of the source item: decision, progress_entry, system_pattern or custom_data"`
	SourceItemID     string `json:"source_item_id" jsonschema:"Identifier of the source item"`
	TargetItemType   string `json:"target_item_type" jsonschema:"Type of the target item"`
	TargetItemID     string `json:"target_item_id" jsonschema:"Identifier of the target item"`
	RelationshipType string `json:"relationship_type" jsonschema:"Relationship in active voice, e.g. implements, blocks"`
	Description      string `json:"description,omitempty" jsonschema:"Optional note about the relationship"`
}

type GetContextLinksInput struct {
	WorkspaceID      string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	ItemType         string `json:"item_type,omitempty" jsonschema:"Only links touching items of this type"`
	ItemID           string `json:"item_id,omitempty" jsonschema:"Only links touching this item (requires item_type)"`
	RelationshipType string `json:"relationship_type_filter,omitempty" jsonschema:"Only links with this relationship type"`
	Limit            int    `json:"limit,omitempty" jsonschema:"Maximum links per page"`
	Cursor           string `json:"cursor,omitempty" jsonschema:"Continuation cursor from a previous page"`
}

type BatchLogItemsInput struct {
	WorkspaceID string              `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	Decisions   []LogDecisionItem   `json:"decisions,omitempty" jsonschema:"Decisions to insert"`
	Progress    []LogProgressItem   `json:"progress,omitempty" jsonschema:"Progress entries to insert"`
	CustomData  []LogCustomDataItem `json:"custom_data,omitempty" jsonschema:"Custom data entries to insert"`
}

type LogDecisionItem struct {
	Summary               string   `json:"summary" jsonschema:"Concise decision summary"`
	Rationale             string   `json:"rationale,omitempty" jsonschema:"Why the decision was made"`
	ImplementationDetails string   `json:"implementation_details,omitempty" jsonschema:"How the decision is being implemented"`
	Tags                  []string `json:"tags,omitempty" jsonschema:"Tags for filtering"`
}

type LogProgressItem struct {
	Status      string `json:"status" jsonschema:"Status value"`
	Description string `json:"description" jsonschema:"What the progress entry tracks"`
	ParentID    *int64 `json:"parent_id,omitempty" jsonschema:"Optional parent entry"`
}

type LogCustomDataItem struct {
	Category string `json:"category" jsonschema:"Grouping category"`
	Key      string `json:"key" jsonschema:"Key unique within the category"`
	Value    any    `json:"value" jsonschema:"Any JSON-serializable value"`
}

type GetRecentActivityInput struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	HoursAgo    int    `json:"hours_ago,omitempty" jsonschema:"Window size in hours (default 24)"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Maximum entries per section"`
}

// --- Handlers ---

func (t *MetaTools) LogContextLink(ctx context.Context, _ *mcp.CallToolRequest, input LogContextLinkInput) (*mcp.CallToolResult, any, error) {
	l, err := t.Repo.LogContextLink(ctx, input.WorkspaceID, storage.ContextLinkArgs{
		SourceItemType:   input.SourceItemType,
		SourceItemID:     input.SourceItemID,
		TargetItemType:   input.TargetItemType,
		TargetItemID:     input.TargetItemID,
		RelationshipType: input.RelationshipType,
		Description:      input.Description,
	})
	if err != nil {
		return toolError("Failed to log context link: %v", err), nil, nil
	}
	return toolJSON(l)
}

func (t *MetaTools) GetContextLinks(ctx context.Context, _ *mcp.CallToolRequest, input GetContextLinksInput) (*mcp.CallToolResult, any, error) {
	links, cursor, err := t.Repo.GetContextLinks(ctx, input.WorkspaceID,
		storage.LinkFilter{
			ItemType:         input.ItemType,
			ItemID:           input.ItemID,
			RelationshipType: input.RelationshipType,
		},
		storage.Page{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		return toolError("Failed to get context links: %v", err), nil, nil
	}
	return toolJSON(pagedResult{Items: links, NextCursor: cursor})
}

func (t *MetaTools) BatchLogItems(ctx context.Context, _ *mcp.CallToolRequest, input BatchLogItemsInput) (*mcp.CallToolResult, any, error) {
	items := storage.BatchItems{}
	for _, d := range input.Decisions {
		items.Decisions = append(items.Decisions, storage.DecisionArgs{
			Summary:               d.Summary,
			Rationale:             d.Rationale,
			ImplementationDetails: d.ImplementationDetails,
			Tags:                  d.Tags,
		})
	}
	for _, p := range input.Progress {
		items.Progress = append(items.Progress, storage.ProgressArgs{
			Status:      p.Status,
			Description: p.Description,
			ParentID:    p.ParentID,
		})
	}
	for _, c := range input.CustomData {
		items.CustomData = append(items.CustomData, storage.CustomDataArgs{
			Category: c.Category,
			Key:      c.Key,
			Value:    c.Value,
		})
	}

	result, err := t.Repo.BatchLogItems(ctx, input.WorkspaceID, items)
	if err != nil {
		return toolError("Batch insert failed, nothing was written: %v", err), nil, nil
	}
	return toolJSON(result)
}

func (t *MetaTools) GetRecentActivitySummary(ctx context.Context, _ *mcp.CallToolRequest, input GetRecentActivityInput) (*mcp.CallToolResult, any, error) {
	summary, err := t.Repo.GetRecentActivitySummary(ctx, input.WorkspaceID,
		time.Duration(input.HoursAgo)*time.Hour, input.Limit)
	if err != nil {
		return toolError("Failed to get recent activity: %v", err), nil, nil
	}
	return toolJSON(summary)
}

func (t *MetaTools) ListWorkspaces(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	reg := t.Repo.Registry()
	if reg == nil {
		return toolJSON([]models.Workspace{})
	}
	workspaces, err := reg.List()
	if err != nil {
		return toolError("Failed to list workspaces: %v", err), nil, nil
	}
	if workspaces == nil {
		workspaces = []models.Workspace{}
	}
	return toolJSON(workspaces)
}
