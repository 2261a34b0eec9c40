package bridge

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
)

// normalizeToolResult converts an MCP call result into the internal
// Result shape. The dispatcher encodes a full Result envelope as text
// content; plain text from foreign servers degrades to a bare
// success or failure message.
func normalizeToolResult(result *mcp.CallToolResult) core.Result {
	if result == nil {
		return core.Failure(string(errors.CodeToolFailure), "dispatcher returned empty result")
	}

	text := extractText(result.Content)

	var decoded core.Result
	if text != "" && json.Unmarshal([]byte(text), &decoded) == nil && decoded.Status != "" {
		return decoded
	}

	if result.IsError {
		if text == "" {
			text = "tool execution failed"
		}
		return core.Failure(string(errors.CodeToolFailure), text)
	}
	return core.Success(text)
}

func extractText(items []mcp.Content) string {
	var parts []string
	for _, item := range items {
		switch content := item.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}
