package sage

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// Message represents a single turn in a conversation.
// Messages are treated as immutable once appended to a thread.
type Message struct {
	// ID is an optional unique identifier for the message.
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// ToolCalls contains tool invocation requests from an assistant message.
	// Empty for every other role and for final answers.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// ToolCallID links a tool message back to the request that produced it.
	// Only set when Role is RoleTool.
	ToolCallID string `json:"toolCallId,omitempty"`
	// IsError marks a tool message whose content describes a failure.
	IsError bool `json:"isError,omitempty"`
}

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}

// NewUserMessage creates a user message with a generated ID.
func NewUserMessage(content string) Message {
	return Message{ID: GenerateMessageID(), Role: RoleUser, Content: content}
}

// NewSystemMessage creates a system message with a generated ID.
func NewSystemMessage(content string) Message {
	return Message{ID: GenerateMessageID(), Role: RoleSystem, Content: content}
}

// NewAssistantMessage creates an assistant message. A message with tool calls
// is a tool request; one without is a final answer.
func NewAssistantMessage(content string, calls ...ToolCall) Message {
	return Message{ID: GenerateMessageID(), Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// HasToolCalls returns true if the message requests tool execution.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// IsFinal returns true for an assistant message with no pending tool calls.
func (m Message) IsFinal() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) == 0
}

// Clone returns a copy of the message that shares no slices with m.
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		calls := make([]ToolCall, len(m.ToolCalls))
		copy(calls, m.ToolCalls)
		m.ToolCalls = calls
	}
	return m
}

// CloneMessages deep-copies a message slice. A nil input yields an empty slice.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// Response represents a complete response from a chat provider.
type Response struct {
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
	Usage        Usage  `json:"usage"`
	// ToolCalls contains any tool invocation requests from the model.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
}

// Message converts the response into an assistant message.
func (r *Response) Message() Message {
	return NewAssistantMessage(r.Content, r.ToolCalls...)
}

// Usage contains token usage information for a request.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Add accumulates another usage record.
func (u *Usage) Add(o Usage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
}

// MarshalMessages encodes a message history as JSON.
func MarshalMessages(msgs []Message) (json.RawMessage, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	return json.Marshal(msgs)
}
