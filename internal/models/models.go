package models

// ProductContext is the singleton row describing the product for a workspace.
type ProductContext struct {
	ID      int64          `json:"id"`
	Content map[string]any `json:"content"`
}

// ActiveContext is the singleton row holding current working-session state.
type ActiveContext struct {
	ID      int64          `json:"id"`
	Content map[string]any `json:"content"`
}

// ContextHistoryEntry is a prior version of a context row, written on every
// update.
type ContextHistoryEntry struct {
	ID           int64          `json:"id"`
	Timestamp    string         `json:"timestamp"`
	Version      int            `json:"version"`
	Content      map[string]any `json:"content"`
	ChangeSource string         `json:"change_source,omitempty"`
}

// Decision is an append-mostly log entry for an architectural decision.
type Decision struct {
	ID                    int64    `json:"id"`
	Timestamp             string   `json:"timestamp"`
	Summary               string   `json:"summary"`
	Rationale             string   `json:"rationale,omitempty"`
	ImplementationDetails string   `json:"implementation_details,omitempty"`
	Tags                  []string `json:"tags,omitempty"`
}

// ProgressEntry is a task/progress item; entries form a tree via ParentID.
type ProgressEntry struct {
	ID          int64  `json:"id"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id,omitempty"`
}

// SystemPattern records a named architectural or coding pattern. Names are
// unique per workspace.
type SystemPattern struct {
	ID          int64    `json:"id"`
	Timestamp   string   `json:"timestamp"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// CustomData is an arbitrary JSON value keyed by (category, key).
type CustomData struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Category  string `json:"category"`
	Key       string `json:"key"`
	Value     any    `json:"value"`
}

// ContextLink is a directed relationship between two items. Endpoints are
// checked at creation time but links may outlive their endpoints; dangling
// links are filtered at read time.
type ContextLink struct {
	ID               int64  `json:"id"`
	Timestamp        string `json:"timestamp"`
	SourceItemType   string `json:"source_item_type"`
	SourceItemID     string `json:"source_item_id"`
	TargetItemType   string `json:"target_item_type"`
	TargetItemID     string `json:"target_item_id"`
	RelationshipType string `json:"relationship_type"`
	Description      string `json:"description,omitempty"`
}

// Workspace is a registry entry for a workspace known to the embedded backend.
type Workspace struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	CreatedAt string `json:"created_at"`
}

// Search hits pair an entity with its backend-native relevance score.

type DecisionHit struct {
	Decision
	Score float64 `json:"score"`
}

type SystemPatternHit struct {
	SystemPattern
	Score float64 `json:"score"`
}

type CustomDataHit struct {
	CustomData
	Score float64 `json:"score"`
}

type ProgressHit struct {
	ProgressEntry
	Score float64 `json:"score"`
}

// ActivitySummary bundles the most recent activity across entity types.
type ActivitySummary struct {
	Decisions []Decision      `json:"decisions"`
	Progress  []ProgressEntry `json:"progress"`
	Since     string          `json:"since,omitempty"`
}
