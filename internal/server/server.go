package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/contextport/conport/internal/storage"
	"github.com/contextport/conport/internal/tools"
)

// New creates a fully configured MCP server with all tools registered.
func New(repo *storage.Repository) *mcp.Server {
	ct := &tools.ContextTools{Repo: repo}
	it := &tools.ItemTools{Repo: repo}
	st := &tools.SearchTools{Repo: repo}
	mt := &tools.MetaTools{Repo: repo}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "conport",
		Version: "0.1.0",
	}, nil)

	// Context singletons
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_product_context",
		Description: "Get the long-term product context for a workspace",
	}, ct.GetProductContext)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_product_context",
		Description: "Replace or patch the product context (patch values of \"__DELETE__\" remove keys)",
	}, ct.UpdateProductContext)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_active_context",
		Description: "Get the current session context for a workspace",
	}, ct.GetActiveContext)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_active_context",
		Description: "Replace or patch the active context (patch values of \"__DELETE__\" remove keys)",
	}, ct.UpdateActiveContext)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_item_history",
		Description: "Read prior versions of the product or active context, newest first",
	}, ct.GetItemHistory)

	// Decisions
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "log_decision",
		Description: "Record an architectural or implementation decision",
	}, it.LogDecision)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_decisions",
		Description: "List decisions newest first with optional tag filters and pagination",
	}, it.GetDecisions)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_decision_by_id",
		Description: "Delete a decision by its identifier",
	}, it.DeleteDecisionByID)

	// Progress
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "log_progress",
		Description: "Record a progress entry or task, optionally under a parent entry",
	}, it.LogProgress)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_progress",
		Description: "List progress entries newest first with optional status and parent filters",
	}, it.GetProgress)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_progress",
		Description: "Update the status, description or parent of a progress entry",
	}, it.UpdateProgress)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_progress_by_id",
		Description: "Delete a progress entry; child entries are kept with their parent cleared",
	}, it.DeleteProgressByID)

	// System patterns
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "log_system_pattern",
		Description: "Record a named system pattern (names are unique per workspace)",
	}, it.LogSystemPattern)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_system_patterns",
		Description: "List system patterns newest first with optional tag filters",
	}, it.GetSystemPatterns)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_system_pattern_by_id",
		Description: "Delete a system pattern by its identifier",
	}, it.DeleteSystemPatternByID)

	// Custom data
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "log_custom_data",
		Description: "Store a JSON value under a category and key, replacing any previous value",
	}, it.LogCustomData)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_custom_data",
		Description: "Read custom data by category and key, by category, or all of it",
	}, it.GetCustomData)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_custom_data",
		Description: "Delete one custom data entry by category and key",
	}, it.DeleteCustomData)

	// Full-text search
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_decisions_fts",
		Description: "Full-text search over decision summaries, rationale, details and tags",
	}, st.SearchDecisionsFTS)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_system_patterns_fts",
		Description: "Full-text search over system pattern names, descriptions and tags",
	}, st.SearchSystemPatternsFTS)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_progress_fts",
		Description: "Full-text search over progress entry descriptions and statuses",
	}, st.SearchProgressFTS)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_custom_data_value_fts",
		Description: "Full-text search over custom data categories, keys and values",
	}, st.SearchCustomDataValueFTS)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_project_glossary_fts",
		Description: "Full-text search scoped to the ProjectGlossary custom data category",
	}, st.SearchProjectGlossaryFTS)

	// Links, batching, activity, workspaces
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "link_conport_items",
		Description: "Create a typed relationship between two existing items",
	}, mt.LogContextLink)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_linked_items",
		Description: "List relationships touching an item, skipping links whose endpoints were deleted",
	}, mt.GetContextLinks)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "batch_log_items",
		Description: "Insert multiple decisions, progress entries and custom data atomically",
	}, mt.BatchLogItems)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_recent_activity_summary",
		Description: "Summarize decisions and progress logged in a trailing time window",
	}, mt.GetRecentActivitySummary)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_workspaces",
		Description: "List workspaces known to this installation",
	}, mt.ListWorkspaces)

	return srv
}
