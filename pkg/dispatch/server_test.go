package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/aura/pkg/core"
)

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestEncodeResultRoundTrips(t *testing.T) {
	success := core.Successf("Navigated to %s", "https://example.com").WithPayload("url", "https://example.com")
	encoded, err := encodeResult(success)
	if err != nil {
		t.Fatal(err)
	}
	if encoded.IsError {
		t.Error("success result marked IsError")
	}
	var decoded core.Result
	if err := json.Unmarshal([]byte(textOf(t, encoded)), &decoded); err != nil {
		t.Fatal(err)
	}
	if !decoded.OK() || decoded.Payload["url"] != "https://example.com" {
		t.Errorf("decoded = %+v", decoded)
	}

	failure := core.Failure("TOOL_FAILURE", "browser crashed").WithResolution("restart it")
	encoded, err = encodeResult(failure)
	if err != nil {
		t.Fatal(err)
	}
	if !encoded.IsError {
		t.Error("error result not marked IsError")
	}
	if err := json.Unmarshal([]byte(textOf(t, encoded)), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.OK() || decoded.Resolution != "restart it" {
		t.Errorf("decoded = %+v", decoded)
	}
}
