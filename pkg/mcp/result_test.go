package mcp

import (
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeResult(t *testing.T) {
	t.Run("structured content wins", func(t *testing.T) {
		result := normalizeResult(&mcpsdk.CallToolResult{
			StructuredContent: map[string]any{
				"docs": []any{map[string]any{"id": "p1"}},
			},
		})
		assert.True(t, result.Success)
		assert.Contains(t, result.Output, "docs")
	})

	t.Run("json text block parsed", func(t *testing.T) {
		result := normalizeResult(&mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: `{"docs": [], "total": 0}`},
			},
		})
		assert.True(t, result.Success)
		assert.Equal(t, float64(0), result.Output["total"])
	})

	t.Run("plain text preserved", func(t *testing.T) {
		result := normalizeResult(&mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: "no structured payload"},
			},
		})
		assert.True(t, result.Success)
		assert.Equal(t, "no structured payload", result.Output["text"])
	})

	t.Run("error result", func(t *testing.T) {
		result := normalizeResult(&mcpsdk.CallToolResult{
			IsError: true,
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: "index unavailable"},
				&mcpsdk.TextContent{Text: "trace line 1"},
				&mcpsdk.TextContent{Text: "trace line 2"},
			},
		})
		assert.False(t, result.Success)
		assert.Equal(t, "index unavailable", result.Error)
		assert.Equal(t, "trace line 1\ntrace line 2", result.Traceback)
	})

	t.Run("empty result", func(t *testing.T) {
		result := normalizeResult(&mcpsdk.CallToolResult{})
		assert.True(t, result.Success)
		assert.Empty(t, result.Output)
	})
}
