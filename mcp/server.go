package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spetersoncode/sage"
	"github.com/spetersoncode/sage/tool"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
	log     *slog.Logger
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithLogger sets the structured logger. Stdio servers must log to stderr.
func WithLogger(l *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// NewServer creates an MCP server that exposes every tool of the executor's
// registry. Calls go through the executor, so arguments are validated and
// coerced exactly as they are for the agent, and failures come back as
// error results rather than protocol errors.
//
//	registry := tool.DefaultRegistry(tool.NewDuckDuckGo())
//	s := mcp.NewServer(tool.NewExecutor(registry), mcp.WithName("sage-tools"))
//	server.ServeStdio(s)
func NewServer(executor *tool.Executor, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "sage",
		version: "1.0.0",
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	for _, t := range executor.Registry().Tools() {
		s.AddTool(ToMCPTool(t), callHandler(t.Name, executor, cfg.log))
	}
	return s
}

func callHandler(toolName string, executor *tool.Executor, log *slog.Logger) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsJSON := "{}"
		if req.Params.Arguments != nil {
			data, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("error: marshal arguments: %v", err)), nil
			}
			argsJSON = string(data)
		}

		// MCP does not carry call ids; one is minted for the executor.
		call := sage.ToolCall{
			ID:        "mcp-" + uuid.NewString(),
			Name:      toolName,
			Arguments: argsJSON,
		}
		result := executor.Execute(ctx, call)
		log.Debug("mcp tool call", "tool", toolName, "is_error", result.IsError)
		return ToMCPCallToolResult(result), nil
	}
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
// This is the standard transport for MCP servers invoked as subprocesses.
func ServeStdio(executor *tool.Executor, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(executor, opts...))
}
