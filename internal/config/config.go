// Package config loads sage settings from defaults, an optional YAML file,
// a .env file and SAGE_ environment variables, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/spetersoncode/sage"
	"github.com/spetersoncode/sage/agent"
	"github.com/spetersoncode/sage/model"
	"github.com/spetersoncode/sage/retry"
	"github.com/spetersoncode/sage/telemetry"
)

// EnvPrefix prefixes every environment override: SAGE_LLM_PROVIDER sets
// llm.provider, SAGE_AGENT_MAX_STEPS sets agent.max_steps.
const EnvPrefix = "SAGE_"

// Config holds the process configuration.
type Config struct {
	LLM       LLMConfig       `koanf:"llm"`
	Agent     AgentConfig     `koanf:"agent"`
	Store     StoreConfig     `koanf:"store"`
	Retry     retry.Config    `koanf:"retry"`
	Search    SearchConfig    `koanf:"search"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`

	// Keys come from the provider-native variables (CEREBRAS_API_KEY and
	// friends), never from the config file.
	Keys model.APIKeys `koanf:"-"`
}

type LLMConfig struct {
	Provider    string  `koanf:"provider"` // cerebras, openai, anthropic, google
	Model       string  `koanf:"model"`
	Endpoint    string  `koanf:"endpoint"`
	Temperature float64 `koanf:"temperature"`
}

type AgentConfig struct {
	MaxSteps       int           `koanf:"max_steps"`
	BusyPolicy     string        `koanf:"busy_policy"` // wait, reject
	Variant        string        `koanf:"variant"`
	SystemPrompt   string        `koanf:"system_prompt"` // overrides the variant's prompt
	Parallel       bool          `koanf:"parallel"`
	HandlerTimeout time.Duration `koanf:"handler_timeout"`
}

type StoreConfig struct {
	Driver string `koanf:"driver"` // memory, sqlite
	Path   string `koanf:"path"`
}

type SearchConfig struct {
	Backend    string `koanf:"backend"` // duckduckgo, searxng
	Endpoint   string `koanf:"endpoint"`
	MaxResults int    `koanf:"max_results"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text, json
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // none, stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

func defaults() map[string]any {
	def := sage.DefaultProviderConfig()
	r := retry.DefaultConfig()
	return map[string]any{
		"llm.provider":          string(def.Provider),
		"llm.model":             def.Model,
		"llm.endpoint":          def.Endpoint,
		"llm.temperature":       0.0,
		"agent.max_steps":       agent.DefaultMaxSteps,
		"agent.busy_policy":     agent.BusyWait.String(),
		"agent.variant":         agent.VariantResearch.Name,
		"agent.parallel":        true,
		"agent.handler_timeout": "30s",
		"store.driver":          "memory",
		"store.path":            "sage.db",
		"retry.max_attempts":    r.MaxAttempts,
		"retry.initial_delay":   r.InitialDelay.String(),
		"retry.max_delay":       r.MaxDelay.String(),
		"retry.multiplier":      r.Multiplier,
		"retry.jitter":          r.Jitter,
		"search.backend":        "duckduckgo",
		"search.max_results":    5,
		"log.level":             "info",
		"log.format":            "text",
		"telemetry.exporter":    telemetry.ExporterNone,
	}
}

// Load reads the configuration. An empty path skips the YAML file. A .env
// file in the working directory is loaded if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("config: default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	// Only the first underscore separates section from field, so
	// SAGE_AGENT_MAX_STEPS maps to agent.max_steps.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Keys = model.APIKeys{
		Cerebras:  os.Getenv("CEREBRAS_API_KEY"),
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		Google:    os.Getenv("GOOGLE_API_KEY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable. Missing API keys are
// not reported here; the provider factory reports them on first use.
func (c *Config) Validate() error {
	var errs []error

	if !c.Provider().Known() {
		errs = append(errs, fmt.Errorf("unknown llm.provider %q (must be cerebras, openai, anthropic or google)", c.LLM.Provider))
	}
	if c.Agent.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("agent.max_steps must be at least 1, got %d", c.Agent.MaxSteps))
	}
	if _, err := parseBusyPolicy(c.Agent.BusyPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, ok := agent.Variants[c.Agent.Variant]; !ok && c.Agent.Variant != "" {
		errs = append(errs, fmt.Errorf("unknown agent.variant %q", c.Agent.Variant))
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q (must be memory or sqlite)", c.Store.Driver))
	}
	switch c.Search.Backend {
	case "duckduckgo":
	case "searxng":
		if c.Search.Endpoint == "" {
			errs = append(errs, errors.New("search.endpoint is required for the searxng backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown search.backend %q (must be duckduckgo or searxng)", c.Search.Backend))
	}
	if c.Search.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("search.max_results must be at least 1, got %d", c.Search.MaxResults))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log.format %q (must be text or json)", c.Log.Format))
	}
	switch c.Telemetry.Exporter {
	case "", telemetry.ExporterNone, telemetry.ExporterStdout:
	case telemetry.ExporterOTLP:
		if c.Telemetry.OTLPEndpoint == "" {
			errs = append(errs, errors.New("telemetry.otlp_endpoint is required for the otlp exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown telemetry.exporter %q", c.Telemetry.Exporter))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Provider returns the default routing for runs.
func (c *Config) Provider() sage.ProviderConfig {
	return sage.ProviderConfig{
		Provider:    sage.Provider(c.LLM.Provider),
		Model:       c.LLM.Model,
		Endpoint:    c.LLM.Endpoint,
		Temperature: c.LLM.Temperature,
	}
}

// AgentOptions converts the agent section into agent options. The variant
// supplies the system prompt; llm.* always decides the provider.
func (c *Config) AgentOptions() []agent.Option {
	var opts []agent.Option
	if v, ok := agent.Variants[c.Agent.Variant]; ok {
		opts = append(opts, agent.WithVariant(v))
	}
	opts = append(opts, agent.WithProvider(c.Provider()))
	if c.Agent.SystemPrompt != "" {
		opts = append(opts, agent.WithSystemPrompt(c.Agent.SystemPrompt))
	}
	policy, _ := parseBusyPolicy(c.Agent.BusyPolicy)
	return append(opts,
		agent.WithMaxSteps(c.Agent.MaxSteps),
		agent.WithBusyPolicy(policy),
		agent.WithRetry(c.Retry),
	)
}

// NewLogger builds the process logger on w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// TelemetryConfig converts the telemetry section.
func (c *Config) TelemetryConfig(version string) telemetry.Config {
	return telemetry.Config{
		ServiceName:    "sage",
		ServiceVersion: version,
		Exporter:       c.Telemetry.Exporter,
		OTLPEndpoint:   c.Telemetry.OTLPEndpoint,
		OTLPInsecure:   c.Telemetry.OTLPInsecure,
	}
}

func parseBusyPolicy(s string) (agent.BusyPolicy, error) {
	switch s {
	case "", "wait":
		return agent.BusyWait, nil
	case "reject":
		return agent.BusyReject, nil
	}
	return agent.BusyWait, fmt.Errorf("unknown agent.busy_policy %q (must be wait or reject)", s)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log.level %q", s)
	}
	return level, nil
}
