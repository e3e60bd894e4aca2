package agent

import (
	"errors"

	"github.com/spetersoncode/sage/store"
)

// Sentinel errors for agent termination conditions.
var (
	// ErrStepLimitExceeded indicates the run needed more model invocations
	// than the step ceiling allows. Messages stored so far are kept.
	ErrStepLimitExceeded = errors.New("agent: step limit exceeded")

	// ErrThreadBusy indicates another run holds the thread under BusyReject.
	ErrThreadBusy = store.ErrThreadBusy

	// ErrInvalidThreadID indicates an empty thread id.
	ErrInvalidThreadID = store.ErrInvalidThreadID
)
