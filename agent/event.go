package agent

import (
	"github.com/spetersoncode/sage"
	"github.com/spetersoncode/sage/event"
)

// Event is an observable occurrence during a run.
type Event = event.Event

// State is a state of the run state machine.
type State string

const (
	// StateAwaitModel invokes the model with the full thread history.
	StateAwaitModel State = "await_model"

	// StateDispatchTools executes the pending tool calls as one batch.
	StateDispatchTools State = "dispatch_tools"

	// StateDone is terminal; the last assistant message is the answer.
	StateDone State = "done"
)

// TerminationReason indicates why a run stopped.
type TerminationReason string

const (
	// TerminationComplete indicates a final answer (no more tool calls).
	TerminationComplete TerminationReason = "complete"

	// TerminationMaxSteps indicates the step ceiling was hit.
	TerminationMaxSteps TerminationReason = "max_steps"

	// TerminationBackend indicates the model backend failed.
	TerminationBackend TerminationReason = "backend_unavailable"

	// TerminationBusy indicates the thread was busy under BusyReject.
	TerminationBusy TerminationReason = "busy"

	// TerminationCancelled indicates context cancellation or deadline.
	TerminationCancelled TerminationReason = "cancelled"

	// TerminationError indicates a store failure or other fault.
	TerminationError TerminationReason = "error"
)

// Result represents the outcome of a run.
type Result struct {
	// ThreadID is the thread the run belongs to.
	ThreadID string

	// Message is the final assistant message. Zero unless the run completed.
	Message sage.Message

	// Steps is the number of model invocations made.
	Steps int

	// Termination indicates why execution stopped.
	Termination TerminationReason
}

// Answer returns the final answer text.
func (r *Result) Answer() string {
	return r.Message.Content
}
