package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/spetersoncode/sage"
)

// DefaultHandlerTimeout bounds a single tool handler unless overridden.
const DefaultHandlerTimeout = 30 * time.Second

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithParallel enables or disables concurrent execution of sibling calls.
// Default is true.
func WithParallel(enabled bool) ExecutorOption {
	return func(e *Executor) {
		e.parallel = enabled
	}
}

// WithHandlerTimeout sets the timeout for each individual tool handler.
// Zero disables the per-handler timeout.
func WithHandlerTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.handlerTimeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTracer sets the tracer used for tool.execute spans.
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// Executor runs batches of tool calls against a Registry.
//
// Failures the model can recover from (unknown tool, invalid arguments,
// handler errors and panics) never escape: they become error results so the
// model can read them and a single failing call never aborts its siblings.
type Executor struct {
	registry       *Registry
	parallel       bool
	handlerTimeout time.Duration
	log            *slog.Logger
	tracer         trace.Tracer
}

// NewExecutor creates an executor for the given registry.
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry:       registry,
		parallel:       true,
		handlerTimeout: DefaultHandlerTimeout,
		log:            slog.New(slog.DiscardHandler),
		tracer:         noop.NewTracerProvider().Tracer("sage/tool"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the executor resolves tools against.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// ExecuteAll runs every call and returns exactly one result per call, in
// request order, with ToolCallID equal to the request ID.
func (e *Executor) ExecuteAll(ctx context.Context, calls []sage.ToolCall) []sage.ToolResult {
	results := make([]sage.ToolResult, len(calls))
	if len(calls) == 0 {
		return results
	}

	if !e.parallel || len(calls) == 1 {
		for i, call := range calls {
			results[i] = e.Execute(ctx, call)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, call sage.ToolCall) {
			defer wg.Done()
			results[idx] = e.Execute(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

// Execute runs a single call and converts any failure into an error result.
func (e *Executor) Execute(ctx context.Context, call sage.ToolCall) sage.ToolResult {
	ctx, span := e.tracer.Start(ctx, "tool.execute", trace.WithAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	))
	defer span.End()

	start := time.Now()
	content, err := e.run(ctx, call)
	log := e.log.With("tool", call.Name, "call_id", call.ID, "duration", time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, ErrUnknown):
			log.Warn("unknown tool requested")
		case errors.Is(err, ErrInvalidArguments):
			log.Warn("invalid tool arguments", "error", err)
		default:
			log.Warn("tool execution failed", "error", err)
		}
		return sage.ToolResult{ToolCallID: call.ID, Content: ErrorContent(err), IsError: true}
	}

	log.Debug("tool executed", "bytes", len(content))
	return sage.ToolResult{ToolCallID: call.ID, Content: content}
}

func (e *Executor) run(ctx context.Context, call sage.ToolCall) (content string, err error) {
	if e.handlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.handlerTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("tool panicked", "tool", call.Name, "panic", r, "stack", string(debug.Stack()))
			err = &ErrToolExecution{Name: call.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	return e.registry.Execute(ctx, call)
}

// ErrorContent renders an error as tool result content the model can read.
func ErrorContent(err error) string {
	return "error: " + err.Error()
}
