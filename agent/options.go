package agent

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/spetersoncode/sage"
	"github.com/spetersoncode/sage/event"
	"github.com/spetersoncode/sage/retry"
)

// DefaultMaxSteps is the default ceiling on model invocations per run.
const DefaultMaxSteps = 10

// BusyPolicy decides what a run does when its thread is already running.
type BusyPolicy int

const (
	// BusyWait blocks until the running run finishes or ctx is done.
	BusyWait BusyPolicy = iota

	// BusyReject fails immediately with ErrThreadBusy.
	BusyReject
)

// String returns the policy name.
func (p BusyPolicy) String() string {
	if p == BusyReject {
		return "reject"
	}
	return "wait"
}

// Options contains configuration for an Agent.
type Options struct {
	// MaxSteps limits model invocations per run. Default is 10.
	// Values below 1 are treated as 1.
	MaxSteps int

	// BusyPolicy applies when a second run targets a running thread.
	// Default is BusyWait.
	BusyPolicy BusyPolicy

	// SystemPrompt is installed at the head of every thread before the
	// first model call of a run. Empty disables it.
	SystemPrompt string

	// Provider is used when Run receives a config without a provider.
	Provider sage.ProviderConfig

	// Retry wraps each model invocation. Default is disabled.
	Retry retry.Config

	// Events receives run events without blocking the run.
	Events chan<- event.Event

	Logger *slog.Logger
	Tracer trace.Tracer
}

// Option is a functional option for configuring an Agent.
type Option func(*Options)

// WithMaxSteps sets the maximum number of model invocations per run.
func WithMaxSteps(n int) Option {
	return func(o *Options) {
		o.MaxSteps = n
	}
}

// WithBusyPolicy sets how a run behaves when its thread is busy.
func WithBusyPolicy(p BusyPolicy) Option {
	return func(o *Options) {
		o.BusyPolicy = p
	}
}

// WithSystemPrompt sets the system prompt installed on every thread.
func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

// WithProvider sets the provider used when a run does not name one.
func WithProvider(cfg sage.ProviderConfig) Option {
	return func(o *Options) {
		o.Provider = cfg
	}
}

// WithVariant applies a preset's system prompt and provider defaults.
func WithVariant(v Variant) Option {
	return func(o *Options) {
		o.SystemPrompt = v.SystemPrompt
		o.Provider = v.Provider
	}
}

// WithRetry retries transient backend failures around each model invocation.
func WithRetry(cfg retry.Config) Option {
	return func(o *Options) {
		o.Retry = cfg
	}
}

// WithEvents sets the channel that receives run events.
// Events are sent non-blocking; if the channel is full, events are dropped.
func WithEvents(ch chan<- event.Event) Option {
	return func(o *Options) {
		o.Events = ch
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithTracer sets the tracer used for agent.run, agent.model and
// agent.tools spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Options) {
		if t != nil {
			o.Tracer = t
		}
	}
}

// ApplyOptions applies functional options to an Options struct with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxSteps:     DefaultMaxSteps,
		BusyPolicy:   BusyWait,
		SystemPrompt: VariantResearch.SystemPrompt,
		Provider:     VariantResearch.Provider,
		Retry:        retry.Disabled(),
		Logger:       slog.New(slog.DiscardHandler),
		Tracer:       noop.NewTracerProvider().Tracer("sage/agent"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.MaxSteps < 1 {
		o.MaxSteps = 1
	}
	return o
}
