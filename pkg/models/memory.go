package models

// History roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// HistoryEntry is one turn in the rolling per-session history. A user or
// assistant entry carries Content; a tool entry carries the tool name and
// the arguments it was called with.
type HistoryEntry struct {
	Role     string         `json:"role"`
	Content  string         `json:"content,omitempty"`
	ToolName string         `json:"tool_name,omitempty"`
	ToolArgs map[string]any `json:"tool_args,omitempty"`
}

// HistoryLimit bounds the rolling history per (user, session).
const HistoryLimit = 5

// SessionSummary is the short structured memory per (user, session),
// replaced atomically after each turn by the background summary job.
type SessionSummary struct {
	UserID          string   `json:"user_id,omitempty"`
	SessionID       string   `json:"session_id,omitempty"`
	ImportantPoints []string `json:"important_points"`
	UserDetails     []string `json:"user_details"`
	LastUpdated     float64  `json:"last_updated,omitempty"`
}
