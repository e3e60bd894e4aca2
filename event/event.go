// Package event defines the observable lifecycle of an agent run. Events are
// informational: they are never persisted and a slow consumer never blocks
// the run.
package event

import (
	"time"

	"github.com/spetersoncode/sage"
)

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	// RunStart fires once the thread lease is held and the user message is stored.
	RunStart Type = "run_start"

	// RunEnd fires when the run reaches its final answer.
	RunEnd Type = "run_end"

	// RunError fires when the run aborts.
	RunError Type = "run_error"
)

// Step events
const (
	// StepStart fires before each model invocation.
	StepStart Type = "step_start"

	// ModelResponse fires after the assistant message of a step is stored.
	ModelResponse Type = "model_response"

	// ToolResult fires after each tool-result message is stored.
	ToolResult Type = "tool_result"

	// Retry fires before a transient backend failure is retried.
	Retry Type = "retry"
)

// Event represents an observable occurrence during a run.
type Event struct {
	// Type identifies the kind of event.
	Type Type

	// ThreadID is the thread the run belongs to.
	ThreadID string

	// Step is the model invocation count (1-indexed).
	Step int

	// State is the state machine state the event was emitted from.
	State string

	// Message is the stored message for ModelResponse, ToolResult and RunEnd.
	Message *sage.Message

	// ToolCall is the request a ToolResult event answers.
	ToolCall *sage.ToolCall

	// Error is set for RunError and Retry events.
	Error error

	// Reason is the termination reason for RunEnd and RunError.
	Reason string

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Emit sends an event with timestamp to the channel (non-blocking).
// A nil channel drops every event.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
		// Channel full - don't block
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}
