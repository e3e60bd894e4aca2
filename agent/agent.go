package agent

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/spetersoncode/sage"
	"github.com/spetersoncode/sage/event"
	"github.com/spetersoncode/sage/retry"
)

// ConversationStore persists per-thread histories and serializes runs.
type ConversationStore interface {
	Load(ctx context.Context, threadID string) ([]sage.Message, error)
	Append(ctx context.Context, threadID string, msg sage.Message) error
	EnsureSystemPrompt(ctx context.Context, threadID, prompt string) error
	Routing(ctx context.Context, threadID string) (sage.ProviderConfig, bool, error)
	SetRouting(ctx context.Context, threadID string, cfg sage.ProviderConfig) error
	Acquire(ctx context.Context, threadID string) (func(), error)
	TryAcquire(threadID string) (func(), error)
}

// ModelInvoker produces one assistant message for a history.
type ModelInvoker interface {
	Invoke(ctx context.Context, history []sage.Message, tools []sage.Tool, cfg sage.ProviderConfig) (sage.Message, error)
}

// ToolExecutor runs a batch of tool calls, returning one result per call in
// request order.
type ToolExecutor interface {
	ExecuteAll(ctx context.Context, calls []sage.ToolCall) []sage.ToolResult
}

// Agent answers user messages on a thread by alternating model invocations
// and tool dispatch until the model gives a final answer.
type Agent struct {
	invoker  ModelInvoker
	store    ConversationStore
	executor ToolExecutor
	tools    []sage.Tool
	opts     *Options
}

// New creates an Agent. tools are the schemas advertised to the model; the
// executor must be able to run every one of them.
func New(invoker ModelInvoker, store ConversationStore, executor ToolExecutor, tools []sage.Tool, opts ...Option) *Agent {
	return &Agent{
		invoker:  invoker,
		store:    store,
		executor: executor,
		tools:    tools,
		opts:     ApplyOptions(opts...),
	}
}

// Submit runs the agent for one user message and returns the final answer.
func (a *Agent) Submit(ctx context.Context, threadID, userText string, cfg sage.ProviderConfig) (string, error) {
	res, err := a.Run(ctx, threadID, userText, cfg)
	if err != nil {
		return "", err
	}
	return res.Answer(), nil
}

// Run executes one run: take the thread lease, store the user message,
// install the system prompt and loop until the model answers. A cfg without
// a provider selects the thread's recorded routing, then the agent default;
// the selection is recorded on the thread. The returned Result is never nil
// and reports how far the run got, also on error.
func (a *Agent) Run(ctx context.Context, threadID, userText string, cfg sage.ProviderConfig) (*Result, error) {
	res := &Result{ThreadID: threadID}
	if threadID == "" {
		res.Termination = TerminationError
		return res, ErrInvalidThreadID
	}

	ctx, span := a.opts.Tracer.Start(ctx, "agent.run", trace.WithAttributes(
		attribute.String("thread.id", threadID),
	))
	defer span.End()

	log := a.opts.Logger.With("thread_id", threadID)

	release, err := a.acquire(ctx, threadID)
	if err != nil {
		res.Termination = TerminationBusy
		if ctx.Err() != nil {
			res.Termination = TerminationCancelled
		}
		return res, a.fail(span, res, err)
	}
	defer release()

	cfg, err = a.route(ctx, threadID, cfg)
	if err != nil {
		res.Termination = TerminationError
		return res, a.fail(span, res, err)
	}
	span.SetAttributes(
		attribute.String("llm.provider", string(cfg.Provider)),
		attribute.String("llm.model", cfg.Model),
	)

	if err := a.store.Append(ctx, threadID, sage.NewUserMessage(userText)); err != nil {
		res.Termination = TerminationError
		return res, a.fail(span, res, fmt.Errorf("agent: store user message: %w", err))
	}
	if a.opts.SystemPrompt != "" {
		if err := a.store.EnsureSystemPrompt(ctx, threadID, a.opts.SystemPrompt); err != nil {
			res.Termination = TerminationError
			return res, a.fail(span, res, fmt.Errorf("agent: install system prompt: %w", err))
		}
	}

	log.Info("run started", "provider", cfg.Provider, "model", cfg.Model, "max_steps", a.opts.MaxSteps)
	a.emit(Event{Type: event.RunStart, ThreadID: threadID, State: string(StateAwaitModel)})

	state := StateAwaitModel
	var pending []sage.ToolCall

	for state != StateDone {
		switch state {
		case StateAwaitModel:
			// Runs are cancelled between steps only.
			if err := ctx.Err(); err != nil {
				res.Termination = TerminationCancelled
				return res, a.fail(span, res, fmt.Errorf("agent: run cancelled: %w", err))
			}
			if res.Steps >= a.opts.MaxSteps {
				res.Termination = TerminationMaxSteps
				log.Warn("step limit exceeded", "steps", res.Steps)
				return res, a.fail(span, res, fmt.Errorf("%w after %d steps", ErrStepLimitExceeded, res.Steps))
			}
			res.Steps++
			a.emit(Event{Type: event.StepStart, ThreadID: threadID, Step: res.Steps, State: string(state)})

			msg, err := a.awaitModel(ctx, threadID, res.Steps, cfg)
			if err != nil {
				res.Termination = TerminationBackend
				if ctx.Err() != nil {
					res.Termination = TerminationCancelled
				}
				return res, a.fail(span, res, err)
			}
			if err := a.store.Append(ctx, threadID, msg); err != nil {
				res.Termination = TerminationError
				if ctx.Err() != nil {
					res.Termination = TerminationCancelled
				}
				return res, a.fail(span, res, fmt.Errorf("agent: store assistant message: %w", err))
			}
			a.emit(Event{Type: event.ModelResponse, ThreadID: threadID, Step: res.Steps, State: string(state), Message: &msg})

			if msg.HasToolCalls() {
				pending = msg.ToolCalls
				state = StateDispatchTools
			} else {
				res.Message = msg
				state = StateDone
			}

		case StateDispatchTools:
			if err := a.dispatchTools(ctx, threadID, res.Steps, pending); err != nil {
				res.Termination = TerminationError
				return res, a.fail(span, res, err)
			}
			pending = nil
			state = StateAwaitModel
		}
	}

	res.Termination = TerminationComplete
	span.SetAttributes(attribute.Int("agent.steps", res.Steps))
	log.Info("run finished", "steps", res.Steps)
	a.emit(Event{
		Type:     event.RunEnd,
		ThreadID: threadID,
		Step:     res.Steps,
		State:    string(StateDone),
		Message:  &res.Message,
		Reason:   string(res.Termination),
	})
	return res, nil
}

// route picks the provider for a run and records it on the thread. An
// explicit provider wins, then the thread's recorded routing, then the
// agent default. Recorded routing carries no API key, so the default's key
// is reused when the provider matches.
func (a *Agent) route(ctx context.Context, threadID string, cfg sage.ProviderConfig) (sage.ProviderConfig, error) {
	if cfg.Provider == "" {
		stored, ok, err := a.store.Routing(ctx, threadID)
		if err != nil {
			return cfg, fmt.Errorf("agent: load routing: %w", err)
		}
		switch {
		case ok:
			if stored.Provider == a.opts.Provider.Provider {
				stored.APIKey = a.opts.Provider.APIKey
			}
			cfg = stored
		default:
			cfg = a.opts.Provider
		}
	}
	if cfg.Provider == "" {
		return cfg, nil
	}
	if err := a.store.SetRouting(ctx, threadID, cfg); err != nil {
		return cfg, fmt.Errorf("agent: record routing: %w", err)
	}
	return cfg, nil
}

func (a *Agent) acquire(ctx context.Context, threadID string) (func(), error) {
	if a.opts.BusyPolicy == BusyReject {
		return a.store.TryAcquire(threadID)
	}
	return a.store.Acquire(ctx, threadID)
}

// awaitModel invokes the model on the stored history, retrying transient
// failures when configured. Nothing is stored here.
func (a *Agent) awaitModel(ctx context.Context, threadID string, step int, cfg sage.ProviderConfig) (sage.Message, error) {
	ctx, span := a.opts.Tracer.Start(ctx, "agent.model", trace.WithAttributes(
		attribute.Int("agent.step", step),
	))
	defer span.End()

	history, err := a.store.Load(ctx, threadID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return sage.Message{}, fmt.Errorf("agent: load history: %w", err)
	}
	span.SetAttributes(attribute.Int("agent.history_len", len(history)))

	notify := func(at retry.Attempt) {
		a.opts.Logger.Warn("retrying model invocation",
			"thread_id", threadID,
			"step", step,
			"attempt", at.Number,
			"max_attempts", at.MaxAttempts,
			"delay", at.Delay,
			"error", at.Err,
		)
		a.emit(Event{Type: event.Retry, ThreadID: threadID, Step: step, State: string(StateAwaitModel), Error: at.Err})
	}
	msg, err := retry.DoNotify(ctx, a.opts.Retry, notify, func(ctx context.Context) (sage.Message, error) {
		return a.invoker.Invoke(ctx, history, a.tools, cfg)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, sage.ErrBackendUnavailable) && ctx.Err() == nil {
			err = &sage.BackendError{Provider: cfg.Provider, Model: cfg.Model, Err: err}
		}
		return sage.Message{}, err
	}
	span.SetAttributes(attribute.Int("agent.tool_calls", len(msg.ToolCalls)))
	return msg, nil
}

// dispatchTools runs the batch to completion and stores one tool message per
// result in request order. The batch is shielded from cancellation so a
// started step always finishes.
func (a *Agent) dispatchTools(ctx context.Context, threadID string, step int, calls []sage.ToolCall) error {
	ctx, span := a.opts.Tracer.Start(ctx, "agent.tools", trace.WithAttributes(
		attribute.Int("agent.step", step),
		attribute.Int("agent.tool_calls", len(calls)),
	))
	defer span.End()

	ctx = context.WithoutCancel(ctx)
	results := a.executor.ExecuteAll(ctx, calls)
	if len(results) != len(calls) {
		err := fmt.Errorf("agent: executor returned %d results for %d calls", len(results), len(calls))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for i, r := range results {
		msg := sage.NewToolResultMessage(r)
		if err := a.store.Append(ctx, threadID, msg); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("agent: store tool result: %w", err)
		}
		a.opts.Logger.Debug("tool result stored",
			"thread_id", threadID,
			"step", step,
			"tool", calls[i].Name,
			"tool_call_id", r.ToolCallID,
			"is_error", r.IsError,
		)
		a.emit(Event{
			Type:     event.ToolResult,
			ThreadID: threadID,
			Step:     step,
			State:    string(StateDispatchTools),
			Message:  &msg,
			ToolCall: &calls[i],
		})
	}
	return nil
}

func (a *Agent) fail(span trace.Span, res *Result, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	a.opts.Logger.Error("run failed",
		"thread_id", res.ThreadID,
		"steps", res.Steps,
		"reason", res.Termination,
		"error", err,
	)
	a.emit(Event{
		Type:     event.RunError,
		ThreadID: res.ThreadID,
		Step:     res.Steps,
		Error:    err,
		Reason:   string(res.Termination),
	})
	return err
}

func (a *Agent) emit(e Event) {
	event.Emit(a.opts.Events, e)
}
