package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/sage"
	"github.com/spetersoncode/sage/agent"
	"github.com/spetersoncode/sage/store"
	"github.com/spetersoncode/sage/tool"
)

func TestToMCPTool(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}}}`)
	mcpTool := ToMCPTool(sage.Tool{Name: "greet", Description: "Greet someone", Parameters: schema})

	assert.Equal(t, "greet", mcpTool.Name)
	assert.Equal(t, "Greet someone", mcpTool.Description)
	assert.Equal(t, schema, mcpTool.RawInputSchema)
}

func TestFromMCPTool(t *testing.T) {
	t.Run("raw schema", func(t *testing.T) {
		got := FromMCPTool(mcp.NewToolWithRawSchema("weather", "Get weather", json.RawMessage(`{"type":"object"}`)))
		assert.Equal(t, "weather", got.Name)
		assert.JSONEq(t, `{"type":"object"}`, string(got.Parameters))
	})

	t.Run("structured schema", func(t *testing.T) {
		got := FromMCPTool(mcp.NewTool("search",
			mcp.WithDescription("Search the web"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		))
		assert.Equal(t, "Search the web", got.Description)

		var schema map[string]any
		require.NoError(t, json.Unmarshal(got.Parameters, &schema))
		assert.Equal(t, "object", schema["type"])
		assert.Contains(t, schema["properties"], "query")
	})
}

func TestToMCPCallToolRequest(t *testing.T) {
	req := ToMCPCallToolRequest(sage.ToolCall{ID: "c1", Name: "add", Arguments: `{"a":1,"b":2}`})
	assert.Equal(t, "add", req.Params.Name)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, req.Params.Arguments)

	req = ToMCPCallToolRequest(sage.ToolCall{ID: "c2", Name: "raw", Arguments: "not json"})
	assert.Equal(t, "not json", req.Params.Arguments)

	req = ToMCPCallToolRequest(sage.ToolCall{ID: "c3", Name: "none"})
	assert.Nil(t, req.Params.Arguments)
}

func TestFromMCPCallToolResult(t *testing.T) {
	got := FromMCPCallToolResult("c1", &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent("line 1"), mcp.NewTextContent("line 2")},
	})
	assert.Equal(t, sage.ToolResult{ToolCallID: "c1", Content: "line 1\nline 2"}, got)

	got = FromMCPCallToolResult("c2", mcp.NewToolResultError("boom"))
	assert.True(t, got.IsError)
	assert.Equal(t, "boom", got.Content)

	got = FromMCPCallToolResult("c3", nil)
	assert.True(t, got.IsError)
}

func TestToMCPCallToolResult(t *testing.T) {
	ok := ToMCPCallToolResult(sage.ToolResult{ToolCallID: "c1", Content: "6"})
	assert.False(t, ok.IsError)
	require.Len(t, ok.Content, 1)
	assert.Equal(t, "6", ok.Content[0].(mcp.TextContent).Text)

	failed := ToMCPCallToolResult(sage.ToolResult{ToolCallID: "c2", Content: "error: nope", IsError: true})
	assert.True(t, failed.IsError)
}

// startClient serves the registry in-process and returns an initialized client.
func startClient(t *testing.T, registry *tool.Registry) *client.Client {
	t.Helper()
	ctx := context.Background()

	c, err := client.NewInProcessClient(NewServer(tool.NewExecutor(registry), WithName("test-server")))
	require.NoError(t, err)
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { c.Close() })

	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "test-client", Version: "1.0.0"},
		},
	})
	require.NoError(t, err)
	return c
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	return result
}

func TestServer(t *testing.T) {
	c := startClient(t, tool.NewRegistry().Add(tool.MathTools()...))

	t.Run("lists tools", func(t *testing.T) {
		result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
		require.NoError(t, err)

		names := make([]string, len(result.Tools))
		for i, tl := range result.Tools {
			names[i] = tl.Name
		}
		assert.ElementsMatch(t, []string{"add", "multiply"}, names)
	})

	t.Run("calls tools", func(t *testing.T) {
		result := callTool(t, c, "multiply", map[string]any{"a": 2, "b": 3})
		assert.False(t, result.IsError)
		require.Len(t, result.Content, 1)
		assert.Equal(t, "6", result.Content[0].(mcp.TextContent).Text)
	})

	t.Run("invalid arguments come back as error results", func(t *testing.T) {
		result := callTool(t, c, "add", map[string]any{"a": "two"})
		assert.True(t, result.IsError)
		require.Len(t, result.Content, 1)
		assert.Contains(t, result.Content[0].(mcp.TextContent).Text, "error: ")
	})
}

func TestServer_HandlerError(t *testing.T) {
	c := startClient(t, tool.NewRegistry().Add(
		tool.Func("fail", "Always fails", func(ctx context.Context, args struct{}) (string, error) {
			return "", assert.AnError
		}),
	))

	result := callTool(t, c, "fail", map[string]any{})
	assert.True(t, result.IsError)
	assert.Equal(t, "error: "+assert.AnError.Error(), result.Content[0].(mcp.TextContent).Text)
}

func TestRemote(t *testing.T) {
	ctx := context.Background()
	registry := tool.NewRegistry().Add(tool.MathTools()...).Add(
		tool.Func("ping", "Ping pong", func(ctx context.Context, args struct{}) (string, error) {
			return "pong", nil
		}),
	)

	c, err := client.NewInProcessClient(NewServer(tool.NewExecutor(registry)))
	require.NoError(t, err)
	remote, err := NewRemoteFromClient(ctx, c)
	require.NoError(t, err)
	defer remote.Close()

	t.Run("tools are sorted", func(t *testing.T) {
		tools := remote.Tools()
		require.Len(t, tools, 3)
		assert.Equal(t, "add", tools[0].Name)
		assert.Equal(t, "multiply", tools[1].Name)
		assert.Equal(t, "ping", tools[2].Name)
		assert.True(t, remote.Has("ping"))
		assert.False(t, remote.Has("divide"))
	})

	t.Run("execute", func(t *testing.T) {
		result := remote.Execute(ctx, sage.ToolCall{ID: "call_1", Name: "add", Arguments: `{"a":10,"b":5}`})
		assert.Equal(t, sage.ToolResult{ToolCallID: "call_1", Content: "15"}, result)
	})

	t.Run("execute all keeps call order", func(t *testing.T) {
		results := remote.ExecuteAll(ctx, []sage.ToolCall{
			{ID: "call_1", Name: "multiply", Arguments: `{"a":2,"b":3}`},
			{ID: "call_2", Name: "divide", Arguments: `{"a":6,"b":3}`},
			{ID: "call_3", Name: "ping", Arguments: `{}`},
		})
		require.Len(t, results, 3)

		assert.Equal(t, "call_1", results[0].ToolCallID)
		assert.Equal(t, "6", results[0].Content)

		assert.Equal(t, "call_2", results[1].ToolCallID)
		assert.True(t, results[1].IsError)
		assert.Contains(t, results[1].Content, `unknown tool "divide"`)

		assert.Equal(t, "pong", results[2].Content)
	})
}

// multiplyInvoker asks for multiply once, then answers with the tool output.
type multiplyInvoker struct{}

func (multiplyInvoker) Invoke(_ context.Context, history []sage.Message, tools []sage.Tool, _ sage.ProviderConfig) (sage.Message, error) {
	last := history[len(history)-1]
	if last.Role == sage.RoleTool {
		return sage.NewAssistantMessage("The product is " + last.Content), nil
	}
	return sage.NewAssistantMessage("", sage.ToolCall{ID: "call_1", Name: "multiply", Arguments: `{"a":2,"b":3}`}), nil
}

func TestRemote_DrivesAgent(t *testing.T) {
	ctx := context.Background()
	c, err := client.NewInProcessClient(NewServer(tool.NewExecutor(tool.NewRegistry().Add(tool.MathTools()...))))
	require.NoError(t, err)
	remote, err := NewRemoteFromClient(ctx, c)
	require.NoError(t, err)
	defer remote.Close()

	convs := store.NewConversations(nil)
	a := agent.New(multiplyInvoker{}, convs, remote, remote.Tools(), agent.WithSystemPrompt(""))

	answer, err := a.Submit(ctx, "remote-thread", "What is 2*3?", sage.ProviderConfig{})
	require.NoError(t, err)
	assert.Equal(t, "The product is 6", answer)

	msgs, err := convs.Load(ctx, "remote-thread")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "call_1", msgs[2].ToolCallID)
}
