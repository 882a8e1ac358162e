package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/contextport/conport/internal/storage"
)

// ItemTools holds references needed by entry CRUD tool handlers.
type ItemTools struct {
	Repo *storage.Repository
}

// pagedResult wraps a listing with its continuation cursor.
type pagedResult struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// --- Input types ---

type LogDecisionInput struct {
	WorkspaceID           string   `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	Summary               string   `json:"summary" jsonschema:"Concise decision summary"`
	Rationale             string   `json:"rationale,omitempty" jsonschema:"Why the decision was made"`
	ImplementationDetails string   `json:"implementation_details,omitempty" jsonschema:"How the decision is being implemented"`
	Tags                  []string `json:"tags,omitempty" jsonschema:"Tags for filtering"`
}

type GetDecisionsInput struct {
	WorkspaceID   string   `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	Limit         int      `json:"limit,omitempty" jsonschema:"Maximum entries per page"`
	Cursor        string   `json:"cursor,omitempty" jsonschema:"Continuation cursor from a previous page"`
	TagsFilterAll []string `json:"tags_filter_include_all,omitempty" jsonschema:"Keep decisions carrying every listed tag"`
	TagsFilterAny []string `json:"tags_filter_include_any,omitempty" jsonschema:"Keep decisions carrying at least one listed tag"`
}

type DeleteByIDInput struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	ID          int64  `json:"id" jsonschema:"Identifier of the entry to delete"`
}

type LogProgressInput struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	Status      string `json:"status" jsonschema:"Status value, e.g. TODO, IN_PROGRESS, DONE, BLOCKED"`
	Description string `json:"description" jsonschema:"What the progress entry tracks"`
	ParentID    *int64 `json:"parent_id,omitempty" jsonschema:"Optional parent entry for subtasks"`
}

type GetProgressInput struct {
	WorkspaceID  string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	StatusFilter string `json:"status_filter,omitempty" jsonschema:"Only entries with this status"`
	ParentID     *int64 `json:"parent_id_filter,omitempty" jsonschema:"Only children of this entry"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Maximum entries per page"`
	Cursor       string `json:"cursor,omitempty" jsonschema:"Continuation cursor from a previous page"`
}

type UpdateProgressInput struct {
	WorkspaceID string  `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	ID          int64   `json:"progress_id" jsonschema:"Identifier of the entry to update"`
	Status      *string `json:"status,omitempty" jsonschema:"New status"`
	Description *string `json:"description,omitempty" jsonschema:"New description"`
	ParentID    *int64  `json:"parent_id,omitempty" jsonschema:"New parent entry"`
}

type LogSystemPatternInput struct {
	WorkspaceID string   `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	Name        string   `json:"name" jsonschema:"Unique pattern name"`
	Description string   `json:"description,omitempty" jsonschema:"What the pattern covers"`
	Tags        []string `json:"tags,omitempty" jsonschema:"Tags for filtering"`
}

type GetSystemPatternsInput struct {
	WorkspaceID   string   `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	Limit         int      `json:"limit,omitempty" jsonschema:"Maximum entries per page"`
	Cursor        string   `json:"cursor,omitempty" jsonschema:"Continuation cursor from a previous page"`
	TagsFilterAll []string `json:"tags_filter_include_all,omitempty" jsonschema:"Keep patterns carrying every listed tag"`
	TagsFilterAny []string `json:"tags_filter_include_any,omitempty" jsonschema:"Keep patterns carrying at least one listed tag"`
}

type LogCustomDataInput struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	Category    string `json:"category" jsonschema:"Grouping category, e.g. ProjectGlossary"`
	Key         string `json:"key" jsonschema:"Key unique within the category"`
	Value       any    `json:"value" jsonschema:"Any JSON-serializable value; replaces an existing value at the same category and key"`
}

type GetCustomDataInput struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	Category    string `json:"category,omitempty" jsonschema:"Only entries in this category"`
	Key         string `json:"key,omitempty" jsonschema:"Single entry by key (requires category)"`
}

type DeleteCustomDataInput struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	Category    string `json:"category" jsonschema:"Category of the entry to delete"`
	Key         string `json:"key" jsonschema:"Key of the entry to delete"`
}

// --- Decision handlers ---

func (t *ItemTools) LogDecision(ctx context.Context, _ *mcp.CallToolRequest, input LogDecisionInput) (*mcp.CallToolResult, any, error) {
	d, err := t.Repo.LogDecision(ctx, input.WorkspaceID, storage.DecisionArgs{
		Summary:               input.Summary,
		Rationale:             input.Rationale,
		ImplementationDetails: input.ImplementationDetails,
		Tags:                  input.Tags,
	})
	if err != nil {
		return toolError("Failed to log decision: %v", err), nil, nil
	}
	return toolJSON(d)
}

func (t *ItemTools) GetDecisions(ctx context.Context, _ *mcp.CallToolRequest, input GetDecisionsInput) (*mcp.CallToolResult, any, error) {
	decisions, cursor, err := t.Repo.GetDecisions(ctx, input.WorkspaceID,
		storage.DecisionFilter{TagsAll: input.TagsFilterAll, TagsAny: input.TagsFilterAny},
		storage.Page{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		return toolError("Failed to get decisions: %v", err), nil, nil
	}
	return toolJSON(pagedResult{Items: decisions, NextCursor: cursor})
}

func (t *ItemTools) DeleteDecisionByID(ctx context.Context, _ *mcp.CallToolRequest, input DeleteByIDInput) (*mcp.CallToolResult, any, error) {
	if err := t.Repo.DeleteDecisionByID(ctx, input.WorkspaceID, input.ID); err != nil {
		return toolError("Failed to delete decision: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Decision %d deleted.", input.ID)), nil, nil
}

// --- Progress handlers ---

func (t *ItemTools) LogProgress(ctx context.Context, _ *mcp.CallToolRequest, input LogProgressInput) (*mcp.CallToolResult, any, error) {
	e, err := t.Repo.LogProgress(ctx, input.WorkspaceID, storage.ProgressArgs{
		Status:      input.Status,
		Description: input.Description,
		ParentID:    input.ParentID,
	})
	if err != nil {
		return toolError("Failed to log progress: %v", err), nil, nil
	}
	return toolJSON(e)
}

func (t *ItemTools) GetProgress(ctx context.Context, _ *mcp.CallToolRequest, input GetProgressInput) (*mcp.CallToolResult, any, error) {
	entries, cursor, err := t.Repo.GetProgress(ctx, input.WorkspaceID,
		storage.ProgressFilter{Status: input.StatusFilter, ParentID: input.ParentID},
		storage.Page{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		return toolError("Failed to get progress: %v", err), nil, nil
	}
	return toolJSON(pagedResult{Items: entries, NextCursor: cursor})
}

func (t *ItemTools) UpdateProgress(ctx context.Context, _ *mcp.CallToolRequest, input UpdateProgressInput) (*mcp.CallToolResult, any, error) {
	e, err := t.Repo.UpdateProgressEntry(ctx, input.WorkspaceID, input.ID, storage.ProgressUpdateArgs{
		Status:      input.Status,
		Description: input.Description,
		ParentID:    input.ParentID,
	})
	if err != nil {
		return toolError("Failed to update progress entry: %v", err), nil, nil
	}
	return toolJSON(e)
}

func (t *ItemTools) DeleteProgressByID(ctx context.Context, _ *mcp.CallToolRequest, input DeleteByIDInput) (*mcp.CallToolResult, any, error) {
	if err := t.Repo.DeleteProgressEntryByID(ctx, input.WorkspaceID, input.ID); err != nil {
		return toolError("Failed to delete progress entry: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Progress entry %d deleted.", input.ID)), nil, nil
}

// --- System pattern handlers ---

func (t *ItemTools) LogSystemPattern(ctx context.Context, _ *mcp.CallToolRequest, input LogSystemPatternInput) (*mcp.CallToolResult, any, error) {
	p, err := t.Repo.LogSystemPattern(ctx, input.WorkspaceID, storage.SystemPatternArgs{
		Name:        input.Name,
		Description: input.Description,
		Tags:        input.Tags,
	})
	if err != nil {
		return toolError("Failed to log system pattern: %v", err), nil, nil
	}
	return toolJSON(p)
}

func (t *ItemTools) GetSystemPatterns(ctx context.Context, _ *mcp.CallToolRequest, input GetSystemPatternsInput) (*mcp.CallToolResult, any, error) {
	patterns, cursor, err := t.Repo.GetSystemPatterns(ctx, input.WorkspaceID,
		storage.PatternFilter{TagsAll: input.TagsFilterAll, TagsAny: input.TagsFilterAny},
		storage.Page{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		return toolError("Failed to get system patterns: %v", err), nil, nil
	}
	return toolJSON(pagedResult{Items: patterns, NextCursor: cursor})
}

func (t *ItemTools) DeleteSystemPatternByID(ctx context.Context, _ *mcp.CallToolRequest, input DeleteByIDInput) (*mcp.CallToolResult, any, error) {
	if err := t.Repo.DeleteSystemPatternByID(ctx, input.WorkspaceID, input.ID); err != nil {
		return toolError("Failed to delete system pattern: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("System pattern %d deleted.", input.ID)), nil, nil
}

// --- Custom data handlers ---

func (t *ItemTools) LogCustomData(ctx context.Context, _ *mcp.CallToolRequest, input LogCustomDataInput) (*mcp.CallToolResult, any, error) {
	c, err := t.Repo.LogCustomData(ctx, input.WorkspaceID, storage.CustomDataArgs{
		Category: input.Category,
		Key:      input.Key,
		Value:    input.Value,
	})
	if err != nil {
		return toolError("Failed to log custom data: %v", err), nil, nil
	}
	return toolJSON(c)
}

func (t *ItemTools) GetCustomData(ctx context.Context, _ *mcp.CallToolRequest, input GetCustomDataInput) (*mcp.CallToolResult, any, error) {
	entries, err := t.Repo.GetCustomData(ctx, input.WorkspaceID, input.Category, input.Key)
	if err != nil {
		return toolError("Failed to get custom data: %v", err), nil, nil
	}
	return toolJSON(entries)
}

func (t *ItemTools) DeleteCustomData(ctx context.Context, _ *mcp.CallToolRequest, input DeleteCustomDataInput) (*mcp.CallToolResult, any, error) {
	if err := t.Repo.DeleteCustomData(ctx, input.WorkspaceID, input.Category, input.Key); err != nil {
		return toolError("Failed to delete custom data: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Custom data %s/%s deleted.", input.Category, input.Key)), nil, nil
}
