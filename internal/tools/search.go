package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/contextport/conport/internal/storage"
)

// SearchTools holds references needed by full-text search tool handlers.
type SearchTools struct {
	Repo *storage.Repository
}

// --- Input types ---

type SearchInput struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	QueryTerm   string `json:"query_term" jsonschema:"Free-text query; terms are matched as plain words"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Maximum hits to return (default 10)"`
}

type SearchCustomDataInput struct {
	WorkspaceID    string `json:"workspace_id" jsonschema:"Absolute path identifying the workspace"`
	QueryTerm      string `json:"query_term" jsonschema:"Free-text query; terms are matched as plain words"`
	CategoryFilter string `json:"category_filter,omitempty" jsonschema:"Only hits in this category"`
	Limit          int    `json:"limit,omitempty" jsonschema:"Maximum hits to return (default 10)"`
}

// --- Handlers ---

func (t *SearchTools) SearchDecisionsFTS(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
	hits, err := t.Repo.SearchDecisionsFTS(ctx, input.WorkspaceID, input.QueryTerm, input.Limit)
	if err != nil {
		return toolError("Decision search failed: %v", err), nil, nil
	}
	return toolJSON(hits)
}

func (t *SearchTools) SearchSystemPatternsFTS(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
	hits, err := t.Repo.SearchSystemPatternsFTS(ctx, input.WorkspaceID, input.QueryTerm, input.Limit)
	if err != nil {
		return toolError("System pattern search failed: %v", err), nil, nil
	}
	return toolJSON(hits)
}

func (t *SearchTools) SearchProgressFTS(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
	hits, err := t.Repo.SearchProgressFTS(ctx, input.WorkspaceID, input.QueryTerm, input.Limit)
	if err != nil {
		return toolError("Progress search failed: %v", err), nil, nil
	}
	return toolJSON(hits)
}

func (t *SearchTools) SearchCustomDataValueFTS(ctx context.Context, _ *mcp.CallToolRequest, input SearchCustomDataInput) (*mcp.CallToolResult, any, error) {
	hits, err := t.Repo.SearchCustomDataValueFTS(ctx, input.WorkspaceID, input.QueryTerm, input.CategoryFilter, input.Limit)
	if err != nil {
		return toolError("Custom data search failed: %v", err), nil, nil
	}
	return toolJSON(hits)
}

func (t *SearchTools) SearchProjectGlossaryFTS(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
	hits, err := t.Repo.SearchProjectGlossaryFTS(ctx, input.WorkspaceID, input.QueryTerm, input.Limit)
	if err != nil {
		return toolError("Glossary search failed: %v", err), nil, nil
	}
	return toolJSON(hits)
}
