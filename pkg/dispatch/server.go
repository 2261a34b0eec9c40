package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jllopis/aura/pkg/core"
)

// Server exposes a Registry over the MCP stdio protocol. Tool results
// are JSON-encoded Result envelopes carried as text content, so the
// bridge on the other side can recover the full success/error shape.
type Server struct {
	mcpServer *server.MCPServer
	registry  *Registry
	logger    *slog.Logger
}

// NewServer wraps a registry in an MCP server. All registered tools
// are exposed immediately.
func NewServer(name, version string, registry *Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcpServer: server.NewMCPServer(name, version),
		registry:  registry,
		logger:    logger,
	}
	for _, toolName := range registry.Names() {
		s.expose(toolName)
	}
	return s
}

func (s *Server) expose(name string) {
	d, ok := s.registry.Get(name)
	if !ok {
		return
	}

	opts := []mcp.ToolOption{mcp.WithDescription(d.Description)}
	for param, desc := range d.Schema {
		opts = append(opts, mcp.WithString(param, mcp.Description(desc)))
	}
	tool := mcp.NewTool(name, opts...)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		result := s.registry.Invoke(ctx, name, args)
		return encodeResult(result)
	})
}

// encodeResult serializes a Result into MCP content. Error Results map
// to IsError so clients that only check the flag still see the failure.
func encodeResult(result core.Result) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		// Result is plain data; this only fires for unmarshalable payloads.
		return mcp.NewToolResultError("failed to encode tool result: " + err.Error()), nil
	}
	if result.OK() {
		return mcp.NewToolResultText(string(payload)), nil
	}
	return mcp.NewToolResultError(string(payload)), nil
}

// ServeStdio blocks serving requests on stdin/stdout until the stream
// closes.
func (s *Server) ServeStdio() error {
	s.logger.Info("dispatcher serving on stdio", "tools", s.registry.Names())
	return server.ServeStdio(s.mcpServer)
}
