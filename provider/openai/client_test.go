package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/sage"
)

const toolCallCompletion = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "llama-3.3-70b",
	"choices": [{
		"index": 0,
		"finish_reason": "tool_calls",
		"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [{
				"id": "call_1",
				"type": "function",
				"function": {"name": "multiply", "arguments": "{\"a\":2,\"b\":3}"}
			}]
		}
	}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

const finalCompletion = `{
	"id": "chatcmpl-2",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "llama-3.3-70b",
	"choices": [{
		"index": 0,
		"finish_reason": "stop",
		"message": {"role": "assistant", "content": "2*3 = 6"}
	}],
	"usage": {"prompt_tokens": 20, "completion_tokens": 4, "total_tokens": 24}
}`

type capturedRequest struct {
	Model       string           `json:"model"`
	Temperature *float64         `json:"temperature"`
	Messages    []map[string]any `json:"messages"`
	Tools       []map[string]any `json:"tools"`
}

func newTestServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChat_ToolCalls(t *testing.T) {
	var req capturedRequest
	srv := newTestServer(t, http.StatusOK, toolCallCompletion, &req)
	client := NewCerebras("test-key", WithBaseURL(srv.URL))

	tools := []sage.Tool{{
		Name:        "multiply",
		Description: "Multiply two integers.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"a":{"type":"integer"},"b":{"type":"integer"}},"required":["a","b"]}`),
	}}
	resp, err := client.Chat(context.Background(), []sage.Message{
		sage.NewSystemMessage("You are helpful."),
		sage.NewUserMessage("What is 2*3?"),
	}, sage.WithTools(tools), sage.WithTemperature(0))
	require.NoError(t, err)

	assert.Equal(t, sage.CerebrasDefaultModel, req.Model)
	require.NotNil(t, req.Temperature)
	assert.Zero(t, *req.Temperature)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0]["role"])
	assert.Equal(t, "user", req.Messages[1]["role"])
	require.Len(t, req.Tools, 1)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, sage.ToolCall{ID: "call_1", Name: "multiply", Arguments: `{"a":2,"b":3}`}, resp.ToolCalls[0])
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.False(t, resp.Message().IsFinal())
}

func TestChat_FinalAnswerAndToolHistory(t *testing.T) {
	var req capturedRequest
	srv := newTestServer(t, http.StatusOK, finalCompletion, &req)
	client := New("test-key", WithBaseURL(srv.URL), WithModel("gpt-4o"))

	history := []sage.Message{
		sage.NewUserMessage("What is 2*3 and 1+1?"),
		sage.NewAssistantMessage("",
			sage.ToolCall{ID: "call_1", Name: "multiply", Arguments: `{"a":2,"b":3}`},
			sage.ToolCall{ID: "call_2", Name: "add", Arguments: `{"a":1,"b":1}`},
		),
		sage.NewToolResultMessage(sage.ToolResult{ToolCallID: "call_1", Content: "6"}),
		sage.NewToolResultMessage(sage.ToolResult{ToolCallID: "call_2", Content: "2"}),
	}
	resp, err := client.Chat(context.Background(), history, sage.WithModel("gpt-4.1"))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", req.Model)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "assistant", req.Messages[1]["role"])
	assert.Len(t, req.Messages[1]["tool_calls"], 2)
	assert.Equal(t, "tool", req.Messages[2]["role"])
	assert.Equal(t, "call_1", req.Messages[2]["tool_call_id"])
	assert.Equal(t, "call_2", req.Messages[3]["tool_call_id"])

	assert.Equal(t, "2*3 = 6", resp.Content)
	assert.Empty(t, resp.ToolCalls)
	assert.True(t, resp.Message().IsFinal())
}

func TestChat_ErrorCategorization(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
		userInput bool
	}{
		{"rate limited", http.StatusTooManyRequests, true, false},
		{"server error", http.StatusInternalServerError, true, false},
		{"bad request", http.StatusBadRequest, false, true},
		{"unauthorized", http.StatusUnauthorized, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"error"}}`))
			}))
			defer srv.Close()

			_, err := New("test-key", WithBaseURL(srv.URL)).Chat(context.Background(), []sage.Message{sage.NewUserMessage("hi")})
			require.Error(t, err)
			assert.Equal(t, tt.transient, sage.IsTransient(err))
			assert.Equal(t, tt.userInput, sage.IsUserInput(err))
			assert.Equal(t, tt.status, sage.StatusCodeOf(err))
			assert.Equal(t, int32(1), calls.Load(), "client must not retry")
		})
	}
}

func TestChat_RetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := New("test-key", WithBaseURL(srv.URL)).Chat(context.Background(), []sage.Message{sage.NewUserMessage("hi")})
	require.Error(t, err)
	assert.Equal(t, int64(3), int64(sage.RetryAfterOf(err).Seconds()))
}

func TestConvertToolChoice(t *testing.T) {
	assert.Equal(t, "none", convertToolChoice(sage.ToolChoiceNone).OfAuto.Value)
	assert.Equal(t, "required", convertToolChoice(sage.ToolChoiceRequired).OfAuto.Value)
	assert.Equal(t, "auto", convertToolChoice(sage.ToolChoiceAuto).OfAuto.Value)
}
