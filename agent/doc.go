// Package agent runs the tool-calling loop for one conversation thread.
//
// A run answers one user message. It holds the thread's lease for its whole
// duration, stores the user message, installs the system prompt and then
// alternates between two states until the model gives a final answer:
//
//	AWAIT_MODEL     invoke the model on the stored history and store its reply;
//	                a reply with tool calls moves to DISPATCH_TOOLS, one
//	                without ends the run
//	DISPATCH_TOOLS  execute the batch and store one tool message per result,
//	                in request order, then return to AWAIT_MODEL
//
// Every message is stored before the next state runs, so a thread can be
// resumed after any step.
//
// # Basic Usage
//
//	registry := tool.DefaultRegistry(tool.NewDuckDuckGo())
//	a := agent.New(
//	    model.NewInvoker(&model.DefaultFactory{Keys: keys}),
//	    store.NewConversations(nil),
//	    tool.NewExecutor(registry),
//	    registry.Tools(),
//	    agent.WithMaxSteps(10),
//	)
//
//	answer, err := a.Submit(ctx, threadID, "What is 2*3?", sage.DefaultProviderConfig())
//
// # Termination
//
// A run that needs more than MaxSteps model invocations fails with
// ErrStepLimitExceeded; everything stored up to that point stays. A backend
// failure aborts the run with an error matching sage.ErrBackendUnavailable
// and stores nothing for that step. WithRetry retries transient failures
// before giving up.
//
// Cancellation is observed between steps only. A tool batch that has started
// runs to completion and its results are stored before the run stops.
//
// # Concurrency
//
// Runs on distinct threads proceed in parallel. A second run on a busy
// thread waits for the first under BusyWait (the default) or fails with
// ErrThreadBusy under BusyReject, without touching the thread.
//
// # Events
//
// WithEvents receives RunStart, StepStart, ModelResponse, ToolResult, Retry,
// RunEnd and RunError events. Sends never block; a full channel drops events.
package agent
