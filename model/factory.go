package model

import (
	"context"
	"fmt"

	"github.com/spetersoncode/sage"
	"github.com/spetersoncode/sage/provider/anthropic"
	"github.com/spetersoncode/sage/provider/google"
	"github.com/spetersoncode/sage/provider/openai"
)

// Factory builds a chat provider for a resolved configuration.
type Factory interface {
	NewProvider(ctx context.Context, cfg sage.ProviderConfig) (sage.ChatProvider, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, cfg sage.ProviderConfig) (sage.ChatProvider, error)

// NewProvider calls f.
func (f FactoryFunc) NewProvider(ctx context.Context, cfg sage.ProviderConfig) (sage.ChatProvider, error) {
	return f(ctx, cfg)
}

// APIKeys holds API keys for the supported providers. A key set on the
// ProviderConfig takes precedence.
type APIKeys struct {
	Cerebras  string
	OpenAI    string
	Anthropic string
	Google    string
}

// ErrMissingAPIKey is returned when a provider is selected but no API key
// is configured for it.
type ErrMissingAPIKey struct {
	Provider sage.Provider
}

func (e *ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// DefaultFactory builds the vendor SDK clients under provider/.
type DefaultFactory struct {
	Keys APIKeys
}

// NewProvider implements Factory.
func (f *DefaultFactory) NewProvider(ctx context.Context, cfg sage.ProviderConfig) (sage.ChatProvider, error) {
	key := cfg.APIKey
	if key == "" {
		key = f.keyFor(cfg.Provider)
	}
	if key == "" {
		return nil, &ErrMissingAPIKey{Provider: cfg.Provider}
	}

	switch cfg.Provider {
	case sage.ProviderCerebras:
		return openai.NewCerebras(key, openai.WithBaseURL(cfg.Endpoint), openai.WithModel(cfg.Model)), nil
	case sage.ProviderOpenAI:
		opts := []openai.ClientOption{}
		if cfg.Endpoint != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
		}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		return openai.New(key, opts...), nil
	case sage.ProviderAnthropic:
		opts := []anthropic.ClientOption{}
		if cfg.Endpoint != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
		}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		return anthropic.New(key, opts...), nil
	case sage.ProviderGoogle:
		opts := []google.ClientOption{}
		if cfg.Endpoint != "" {
			opts = append(opts, google.WithBaseURL(cfg.Endpoint))
		}
		if cfg.Model != "" {
			opts = append(opts, google.WithModel(cfg.Model))
		}
		return google.New(ctx, key, opts...)
	default:
		return nil, fmt.Errorf("model: unsupported provider %q", cfg.Provider)
	}
}

func (f *DefaultFactory) keyFor(p sage.Provider) string {
	switch p {
	case sage.ProviderCerebras:
		return f.Keys.Cerebras
	case sage.ProviderOpenAI:
		return f.Keys.OpenAI
	case sage.ProviderAnthropic:
		return f.Keys.Anthropic
	case sage.ProviderGoogle:
		return f.Keys.Google
	}
	return ""
}

var _ Factory = (*DefaultFactory)(nil)
