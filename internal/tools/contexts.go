package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/contextport/conport/internal/storage"
)

// ContextTools holds references needed by context singleton tool handlers.
type ContextTools struct {
	Repo *storage.Repository
}

// --- Input types ---

type GetContextInput struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
}

type UpdateContextInput struct {
	WorkspaceID  string         `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	Content      map[string]any `json:"content,omitempty" jsonschema:"Full replacement content (mutually exclusive with patch_content)"`
	PatchContent map[string]any `json:"patch_content,omitempty" jsonschema:"Partial update; use the value \"__DELETE__\" to remove a key"`
	ChangeSource string         `json:"change_source,omitempty" jsonschema:"Free-form note on what caused this change"`
}

type GetItemHistoryInput struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	ItemType    string `json:"item_type" jsonschema:"History to read: product_context or active_context"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Maximum versions to return"`
	VersionMin  int    `json:"version_min,omitempty" jsonschema:"Lowest version to include"`
	VersionMax  int    `json:"version_max,omitempty" jsonschema:"Highest version to include"`
}

// --- Handlers ---

func (t *ContextTools) GetProductContext(ctx context.Context, _ *mcp.CallToolRequest, input GetContextInput) (*mcp.CallToolResult, any, error) {
	pc, err := t.Repo.GetProductContext(ctx, input.WorkspaceID)
	if err != nil {
		return toolError("Failed to get product context: %v", err), nil, nil
	}
	return toolJSON(pc.Content)
}

func (t *ContextTools) GetActiveContext(ctx context.Context, _ *mcp.CallToolRequest, input GetContextInput) (*mcp.CallToolResult, any, error) {
	ac, err := t.Repo.GetActiveContext(ctx, input.WorkspaceID)
	if err != nil {
		return toolError("Failed to get active context: %v", err), nil, nil
	}
	return toolJSON(ac.Content)
}

func (t *ContextTools) UpdateProductContext(ctx context.Context, _ *mcp.CallToolRequest, input UpdateContextInput) (*mcp.CallToolResult, any, error) {
	pc, err := t.Repo.UpdateProductContext(ctx, input.WorkspaceID, storage.UpdateContextArgs{
		Content:      input.Content,
		PatchContent: input.PatchContent,
		ChangeSource: input.ChangeSource,
	})
	if err != nil {
		return toolError("Failed to update product context: %v", err), nil, nil
	}
	return toolJSON(pc.Content)
}

func (t *ContextTools) UpdateActiveContext(ctx context.Context, _ *mcp.CallToolRequest, input UpdateContextInput) (*mcp.CallToolResult, any, error) {
	ac, err := t.Repo.UpdateActiveContext(ctx, input.WorkspaceID, storage.UpdateContextArgs{
		Content:      input.Content,
		PatchContent: input.PatchContent,
		ChangeSource: input.ChangeSource,
	})
	if err != nil {
		return toolError("Failed to update active context: %v", err), nil, nil
	}
	return toolJSON(ac.Content)
}

func (t *ContextTools) GetItemHistory(ctx context.Context, _ *mcp.CallToolRequest, input GetItemHistoryInput) (*mcp.CallToolResult, any, error) {
	entries, err := t.Repo.GetItemHistory(ctx, input.WorkspaceID, input.ItemType, storage.HistoryArgs{
		Limit:      input.Limit,
		VersionMin: input.VersionMin,
		VersionMax: input.VersionMax,
	})
	if err != nil {
		return toolError("Failed to get %s history: %v", input.ItemType, err), nil, nil
	}
	return toolJSON(entries)
}

// --- Helpers ---

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
