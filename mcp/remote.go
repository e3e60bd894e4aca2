package mcp

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/spetersoncode/sage"
	"github.com/spetersoncode/sage/tool"
)

// Remote runs tool calls on an MCP server. It satisfies the agent's
// ToolExecutor contract: one result per call, in order, failures as error
// content.
//
// Remote is safe for concurrent use. The tool list is cached and can be
// refreshed with Refresh.
type Remote struct {
	client *client.Client
	mu     sync.RWMutex
	tools  map[string]sage.Tool
}

// NewRemote starts the MCP server command as a subprocess and connects over
// stdio.
func NewRemote(ctx context.Context, command string, env []string, args ...string) (*Remote, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: create stdio client: %w", err)
	}
	return NewRemoteFromClient(ctx, c)
}

// NewRemoteFromClient initializes a session on an existing client and
// fetches its tools.
func NewRemoteFromClient(ctx context.Context, c *client.Client) (*Remote, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcp: start client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "sage",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: initialize session: %w", err)
	}

	r := &Remote{client: c, tools: make(map[string]sage.Tool)}
	if err := r.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}
	return r, nil
}

// Close closes the connection to the MCP server.
func (r *Remote) Close() error {
	return r.client.Close()
}

// Refresh re-reads the server's tool list.
func (r *Remote) Refresh(ctx context.Context) error {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]sage.Tool, len(result.Tools))
	for _, t := range result.Tools {
		r.tools[t.Name] = FromMCPTool(t)
	}
	return nil
}

// Tools returns the server's tools sorted by name.
func (r *Remote) Tools() []sage.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]sage.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	slices.SortFunc(tools, func(a, b sage.Tool) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return tools
}

// Has reports whether the server offers a tool with the given name.
func (r *Remote) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Execute runs one call on the server. Unknown tools and transport failures
// become error results.
func (r *Remote) Execute(ctx context.Context, call sage.ToolCall) sage.ToolResult {
	if !r.Has(call.Name) {
		return errorResult(call.ID, &tool.ErrUnknownTool{Name: call.Name})
	}
	result, err := r.client.CallTool(ctx, ToMCPCallToolRequest(call))
	if err != nil {
		return errorResult(call.ID, fmt.Errorf("mcp call %s: %w", call.Name, err))
	}
	return FromMCPCallToolResult(call.ID, result)
}

// ExecuteAll runs the calls sequentially and returns results in call order.
func (r *Remote) ExecuteAll(ctx context.Context, calls []sage.ToolCall) []sage.ToolResult {
	results := make([]sage.ToolResult, len(calls))
	for i, call := range calls {
		results[i] = r.Execute(ctx, call)
	}
	return results
}

func errorResult(callID string, err error) sage.ToolResult {
	return sage.ToolResult{ToolCallID: callID, Content: tool.ErrorContent(err), IsError: true}
}
