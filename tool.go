package sage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tool defines a function that can be called by the model.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string `json:"name"`
	// Description explains what the tool does (helps the model decide when to use it).
	Description string `json:"description"`
	// Parameters is a JSON Schema object defining the function parameters.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall represents a request from the model to invoke a tool.
type ToolCall struct {
	// ID is a unique identifier for this tool call (used to match results).
	ID string `json:"id"`
	// Name is the name of the tool to invoke.
	Name string `json:"name"`
	// Arguments is a JSON object containing the arguments to pass,
	// exactly as the backend produced it.
	Arguments string `json:"arguments"`
}

// Args decodes the arguments into a parameter map.
// Empty arguments decode to an empty map.
func (c ToolCall) Args() (map[string]any, error) {
	args := map[string]any{}
	raw := strings.TrimSpace(c.Arguments)
	if raw == "" {
		return args, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	if args == nil {
		return nil, fmt.Errorf("arguments are not a JSON object: null")
	}
	return args, nil
}

// NewToolCall builds a ToolCall from an argument map.
func NewToolCall(id, name string, args map[string]any) ToolCall {
	raw := "{}"
	if len(args) > 0 {
		if b, err := json.Marshal(args); err == nil {
			raw = string(b)
		}
	}
	return ToolCall{ID: id, Name: name, Arguments: raw}
}

// ToolResult represents the result of executing a tool call.
type ToolResult struct {
	// ToolCallID matches the ID from the corresponding ToolCall.
	ToolCallID string `json:"toolCallId"`
	// Content is the result content to return to the model.
	Content string `json:"content"`
	// IsError indicates if the result represents an error.
	IsError bool `json:"isError,omitempty"`
}

// NewToolResultMessage creates the tool-role message carrying one result.
func NewToolResultMessage(r ToolResult) Message {
	return Message{
		ID:         GenerateMessageID(),
		Role:       RoleTool,
		Content:    r.Content,
		ToolCallID: r.ToolCallID,
		IsError:    r.IsError,
	}
}

// ToolChoice controls how the model uses tools.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide when to use tools (default).
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone disables tool use for the request.
	ToolChoiceNone ToolChoice = "none"
	// ToolChoiceRequired forces the model to use a tool.
	ToolChoiceRequired ToolChoice = "required"
)
