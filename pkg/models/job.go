package models

// LLM pipeline step names carried on the jobs topic.
const (
	StepCheckToolRequired = "check_tool_required"
	StepSelectTool        = "select_tool"
	StepGetToolArgs       = "get_tool_args"
	StepSummarize         = "summarize"
	StepCustom            = "custom"
	StepPing              = "ping"
)

// SummaryJobPrefix marks synthetic background summary-update jobs. The
// response loop routes responses with this prefix to the summary writer
// instead of a pending future.
const SummaryJobPrefix = "SUMMARY-"

// OrchestratorSource tags records the orchestrator itself publishes on the
// responses topic; the response loop ignores them.
const OrchestratorSource = "orchestrator"

// LLMJob is one unit of work published on the jobs topic for the remote
// worker pool.
type LLMJob struct {
	RequestID     string         `json:"request_id"`
	Step          string         `json:"step"`
	Message       string         `json:"message,omitempty"`
	SystemPrompt  string         `json:"system_prompt,omitempty"`
	JSONResponse  bool           `json:"json_response,omitempty"`
	ResponseTopic string         `json:"response_topic"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// TokenUsage is the worker-reported cost of one LLM call.
type TokenUsage struct {
	TokenCount int     `json:"token_count,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
}

// LLMResponse is one record consumed from the responses topic. Which
// fields are set depends on the step that produced it.
type LLMResponse struct {
	RequestID      string         `json:"request_id"`
	Step           string         `json:"step,omitempty"`
	Type           string         `json:"type,omitempty"`
	Decision       string         `json:"decision,omitempty"`
	SelectedTool   string         `json:"selected_tool,omitempty"`
	ToolArgs       map[string]any `json:"tool_args,omitempty"`
	ToolResult     map[string]any `json:"tool_result,omitempty"`
	FinalAnswer    string         `json:"final_answer,omitempty"`
	CustomResponse string         `json:"custom_response,omitempty"`
	Error          string         `json:"error,omitempty"`
	Usage          *TokenUsage    `json:"usage,omitempty"`
	Source         string         `json:"source,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// IsPong reports whether the record is a keep-alive echo from the worker
// pool. Pongs are accepted and discarded.
func (r *LLMResponse) IsPong() bool {
	return r.Type == "pong" || r.Step == StepPing
}
