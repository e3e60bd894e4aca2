package sage

import (
	"crypto/sha256"
	"encoding/hex"
)

// Provider identifies an AI provider.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderCerebras  Provider = "cerebras"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// Cerebras serves an OpenAI-compatible API.
const (
	CerebrasEndpoint     = "https://api.cerebras.ai/v1"
	CerebrasDefaultModel = "llama-3.3-70b"
)

// ProviderConfig selects the backend identity for a run. It is resolved once
// per run and never changes the shape of messages.
type ProviderConfig struct {
	Provider Provider `json:"provider"`
	Model    string   `json:"model,omitempty"`
	// Endpoint overrides the provider base URL (OpenAI-compatible backends).
	Endpoint string `json:"endpoint,omitempty"`
	// APIKey is never persisted with thread metadata.
	APIKey string `json:"-"`
	// Temperature is fixed at 0 unless set explicitly.
	Temperature float64 `json:"temperature,omitempty"`
}

// DefaultProviderConfig returns the Cerebras Llama configuration.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Provider: ProviderCerebras,
		Model:    CerebrasDefaultModel,
		Endpoint: CerebrasEndpoint,
	}
}

// Known reports whether the provider is one this module can build a client for.
func (c ProviderConfig) Known() bool {
	switch c.Provider {
	case ProviderCerebras, ProviderOpenAI, ProviderAnthropic, ProviderGoogle:
		return true
	}
	return false
}

// Resolved fills defaults. An unknown or empty provider falls back to the
// Cerebras defaults; a Cerebras config without endpoint gets the public one.
func (c ProviderConfig) Resolved() ProviderConfig {
	if !c.Known() {
		def := DefaultProviderConfig()
		def.APIKey = c.APIKey
		def.Temperature = c.Temperature
		return def
	}
	if c.Provider == ProviderCerebras {
		if c.Endpoint == "" {
			c.Endpoint = CerebrasEndpoint
		}
		if c.Model == "" {
			c.Model = CerebrasDefaultModel
		}
	}
	return c
}

// Key identifies the backend client a config resolves to. Configs that
// differ only by API key get different keys; the key itself is hashed.
func (c ProviderConfig) Key() string {
	key := string(c.Provider) + "|" + c.Model + "|" + c.Endpoint
	if c.APIKey != "" {
		sum := sha256.Sum256([]byte(c.APIKey))
		key += "|" + hex.EncodeToString(sum[:8])
	}
	return key
}
