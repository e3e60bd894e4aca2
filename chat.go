package sage

import "context"

// ChatProvider is one model backend. Chat sends the whole conversation and
// returns a single assistant turn; adapters never retry on their own.
type ChatProvider interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}

// Options are the per-request settings passed to ChatProvider.Chat. Zero
// values leave the adapter's defaults in place.
type Options struct {
	Model     string
	MaxTokens int
	// Temperature is nil when unset, so that 0 can be sent explicitly.
	Temperature *float64
	Tools       []Tool
	ToolChoice  ToolChoice
}

// Option sets one request option.
type Option func(*Options)

// WithModel overrides the adapter's default model.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithMaxTokens caps the length of the reply.
func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = &t }
}

// WithTools advertises tool schemas to the model.
func WithTools(tools []Tool) Option {
	return func(o *Options) { o.Tools = tools }
}

// WithToolChoice controls whether the model may, must or must not call tools.
func WithToolChoice(choice ToolChoice) Option {
	return func(o *Options) { o.ToolChoice = choice }
}

// ApplyOptions folds opts into a fresh Options.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
