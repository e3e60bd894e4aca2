// Package sage is a resumable, tool-calling agent runtime.
//
// A user message submitted for a conversation thread is answered by
// repeatedly invoking a language model, executing the tool calls it requests
// and feeding the results back until the model produces a final answer.
// Every step is appended to the thread's history, so the next message on the
// same thread continues the conversation.
//
// This package holds the shared data model; the runtime is assembled from
// the sub-packages:
//
//   - [github.com/spetersoncode/sage/agent]: the state machine that sequences
//     model invocation and tool dispatch for one run.
//   - [github.com/spetersoncode/sage/store]: per-thread conversation memory
//     backed by a pluggable adapter (in-memory or SQLite).
//   - [github.com/spetersoncode/sage/model]: the model invoker that resolves a
//     [ProviderConfig] to a backend client.
//   - [github.com/spetersoncode/sage/tool]: the tool registry, the executor and
//     the built-in arithmetic and web-search tools.
//
// # Messages
//
// A conversation is an ordered list of [Message] values. An assistant message
// either carries [ToolCall] requests or is the final answer; each tool call is
// answered by exactly one tool-role message whose ToolCallID links back to
// the request:
//
//	history := []sage.Message{
//	    sage.NewUserMessage("What is 2*3?"),
//	    sage.NewAssistantMessage("", sage.ToolCall{ID: "call_1", Name: "multiply", Arguments: `{"a":2,"b":3}`}),
//	    sage.NewToolResultMessage(sage.ToolResult{ToolCallID: "call_1", Content: "6"}),
//	    sage.NewAssistantMessage("The result is 6."),
//	}
//
// # Errors
//
// Backend failures are reported as [*BackendError], which matches
// [ErrBackendUnavailable]. Provider adapters categorize SDK errors with
// [NewTransientError], [NewPermanentError] and [NewUserInputError]; use
// [IsTransient] to decide whether a retry makes sense.
package sage
