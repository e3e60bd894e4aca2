package model

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/spetersoncode/sage"
)

// errEmptyResponse marks a turn with neither content nor tool calls.
var errEmptyResponse = errors.New("empty response: no content and no tool calls")

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(inv *Invoker) {
		if l != nil {
			inv.log = l
		}
	}
}

// Invoker turns a message history into one assistant message using the
// backend a ProviderConfig selects. Provider clients are built lazily and
// cached per provider, model, endpoint and API key.
//
// Invoke never retries; retry policy belongs to the caller.
type Invoker struct {
	factory Factory
	log     *slog.Logger

	mu        sync.RWMutex
	providers map[string]sage.ChatProvider
}

// NewInvoker creates an invoker. A nil factory selects a DefaultFactory
// with no API keys, so every config must then carry its own key.
func NewInvoker(factory Factory, opts ...Option) *Invoker {
	if factory == nil {
		factory = &DefaultFactory{}
	}
	inv := &Invoker{
		factory:   factory,
		log:       slog.New(slog.DiscardHandler),
		providers: make(map[string]sage.ChatProvider),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke sends history and tool schemas to the backend once. The returned
// message has the assistant role and either requests tools or carries a
// final answer. Every failure matches sage.ErrBackendUnavailable.
func (inv *Invoker) Invoke(ctx context.Context, history []sage.Message, tools []sage.Tool, cfg sage.ProviderConfig) (sage.Message, error) {
	resolved := inv.resolve(cfg)

	provider, err := inv.provider(ctx, resolved)
	if err != nil {
		return sage.Message{}, &sage.BackendError{Provider: resolved.Provider, Model: resolved.Model, Err: err}
	}

	opts := []sage.Option{sage.WithTemperature(resolved.Temperature)}
	if resolved.Model != "" {
		opts = append(opts, sage.WithModel(resolved.Model))
	}
	if len(tools) > 0 {
		opts = append(opts, sage.WithTools(tools))
	}

	resp, err := provider.Chat(ctx, history, opts...)
	if err != nil {
		return sage.Message{}, &sage.BackendError{Provider: resolved.Provider, Model: resolved.Model, Err: err}
	}
	if resp == nil || (resp.Content == "" && len(resp.ToolCalls) == 0) {
		return sage.Message{}, &sage.BackendError{Provider: resolved.Provider, Model: resolved.Model, Err: errEmptyResponse}
	}

	inv.log.Debug("model responded",
		"provider", resolved.Provider,
		"model", resolved.Model,
		"tool_calls", len(resp.ToolCalls),
		"finish_reason", resp.FinishReason,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp.Message(), nil
}

func (inv *Invoker) resolve(cfg sage.ProviderConfig) sage.ProviderConfig {
	if cfg.Provider != "" && !cfg.Known() {
		inv.log.Warn("unknown provider, falling back to cerebras",
			"provider", cfg.Provider,
			"model", sage.CerebrasDefaultModel,
		)
	}
	return cfg.Resolved()
}

// provider returns the cached client for cfg, building it if needed.
func (inv *Invoker) provider(ctx context.Context, cfg sage.ProviderConfig) (sage.ChatProvider, error) {
	key := cfg.Key()

	inv.mu.RLock()
	p, ok := inv.providers[key]
	inv.mu.RUnlock()
	if ok {
		return p, nil
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()
	if p, ok := inv.providers[key]; ok {
		return p, nil
	}
	p, err := inv.factory.NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	inv.providers[key] = p
	inv.log.Debug("provider initialized", "provider", cfg.Provider, "model", cfg.Model, "endpoint", cfg.Endpoint)
	return p, nil
}
