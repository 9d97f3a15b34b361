package mcp

import (
	"encoding/json"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolResult is the normalized outcome of one tool call.
type ToolResult struct {
	Success   bool           `json:"success"`
	Output    map[string]any `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
	Traceback string         `json:"traceback,omitempty"`
}

// normalizeResult converts an SDK call result into a ToolResult. Output
// payloads arrive either as structuredContent or as a JSON-encoded text
// content block; both forms end up as a parsed object.
func normalizeResult(result *mcpsdk.CallToolResult) *ToolResult {
	if result.IsError {
		return &ToolResult{
			Error:     firstText(result),
			Traceback: textAfterFirst(result),
		}
	}

	if sc, ok := result.StructuredContent.(map[string]any); ok && len(sc) > 0 {
		return &ToolResult{Success: true, Output: sc}
	}

	// Fall back to the first text block that decodes as a JSON object
	for _, content := range result.Content {
		text, ok := content.(*mcpsdk.TextContent)
		if !ok {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(text.Text), &obj); err == nil {
			return &ToolResult{Success: true, Output: obj}
		}
	}

	// No structured payload; keep the raw text so summarization still has
	// something to work with
	if text := firstText(result); text != "" {
		return &ToolResult{Success: true, Output: map[string]any{"text": text}}
	}
	return &ToolResult{Success: true, Output: map[string]any{}}
}

func firstText(result *mcpsdk.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(*mcpsdk.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

// textAfterFirst joins any additional text blocks; error results carry
// the traceback there.
func textAfterFirst(result *mcpsdk.CallToolResult) string {
	var seen bool
	var out string
	for _, content := range result.Content {
		text, ok := content.(*mcpsdk.TextContent)
		if !ok {
			continue
		}
		if !seen {
			seen = true
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += text.Text
	}
	return out
}
