package model

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/sage"
)

type mockProvider struct {
	resp *sage.Response
	err  error
	opts *sage.Options
	seen []sage.Message
}

func (m *mockProvider) Chat(_ context.Context, msgs []sage.Message, opts ...sage.Option) (*sage.Response, error) {
	m.opts = sage.ApplyOptions(opts...)
	m.seen = msgs
	return m.resp, m.err
}

func staticFactory(p sage.ChatProvider, built *atomic.Int32, got *sage.ProviderConfig) Factory {
	return FactoryFunc(func(_ context.Context, cfg sage.ProviderConfig) (sage.ChatProvider, error) {
		if built != nil {
			built.Add(1)
		}
		if got != nil {
			*got = cfg
		}
		return p, nil
	})
}

func TestInvoke_ToolRequest(t *testing.T) {
	p := &mockProvider{resp: &sage.Response{
		ToolCalls: []sage.ToolCall{{ID: "c1", Name: "multiply", Arguments: `{"a":2,"b":3}`}},
	}}
	inv := NewInvoker(staticFactory(p, nil, nil))

	tools := []sage.Tool{{Name: "multiply"}}
	history := []sage.Message{sage.NewUserMessage("What is 2*3?")}
	msg, err := inv.Invoke(context.Background(), history, tools, sage.DefaultProviderConfig())
	require.NoError(t, err)

	assert.Equal(t, sage.RoleAssistant, msg.Role)
	assert.NotEmpty(t, msg.ID)
	assert.True(t, msg.HasToolCalls())
	assert.Equal(t, history, p.seen)

	require.NotNil(t, p.opts.Temperature)
	assert.Zero(t, *p.opts.Temperature)
	assert.Equal(t, sage.CerebrasDefaultModel, p.opts.Model)
	assert.Equal(t, tools, p.opts.Tools)
}

func TestInvoke_FinalAnswer(t *testing.T) {
	p := &mockProvider{resp: &sage.Response{Content: "The result is 6."}}
	inv := NewInvoker(staticFactory(p, nil, nil))

	msg, err := inv.Invoke(context.Background(), nil, nil, sage.ProviderConfig{Provider: sage.ProviderOpenAI, Model: "gpt-4o"})
	require.NoError(t, err)
	assert.True(t, msg.IsFinal())
	assert.Equal(t, "The result is 6.", msg.Content)
	assert.Nil(t, p.opts.Tools)
	assert.Equal(t, "gpt-4o", p.opts.Model)
}

func TestInvoke_BackendFailure(t *testing.T) {
	cause := sage.NewTransientError("rate limited", 429, nil)
	inv := NewInvoker(staticFactory(&mockProvider{err: cause}, nil, nil))

	_, err := inv.Invoke(context.Background(), nil, nil, sage.DefaultProviderConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, sage.ErrBackendUnavailable)
	assert.True(t, sage.IsTransient(err))

	var be *sage.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, sage.ProviderCerebras, be.Provider)
}

func TestInvoke_EmptyResponseIsBackendError(t *testing.T) {
	inv := NewInvoker(staticFactory(&mockProvider{resp: &sage.Response{}}, nil, nil))

	_, err := inv.Invoke(context.Background(), nil, nil, sage.DefaultProviderConfig())
	assert.ErrorIs(t, err, sage.ErrBackendUnavailable)
	assert.ErrorIs(t, err, errEmptyResponse)
}

func TestInvoke_FactoryFailure(t *testing.T) {
	inv := NewInvoker(&DefaultFactory{})

	_, err := inv.Invoke(context.Background(), nil, nil, sage.DefaultProviderConfig())
	assert.ErrorIs(t, err, sage.ErrBackendUnavailable)
	var missing *ErrMissingAPIKey
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, sage.ProviderCerebras, missing.Provider)
}

func TestInvoke_CachesProviders(t *testing.T) {
	var built atomic.Int32
	p := &mockProvider{resp: &sage.Response{Content: "ok"}}
	inv := NewInvoker(staticFactory(p, &built, nil))
	ctx := context.Background()

	for range 3 {
		_, err := inv.Invoke(ctx, nil, nil, sage.DefaultProviderConfig())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), built.Load())

	_, err := inv.Invoke(ctx, nil, nil, sage.ProviderConfig{Provider: sage.ProviderOpenAI})
	require.NoError(t, err)
	assert.Equal(t, int32(2), built.Load())
}

func TestInvoke_DistinctAPIKeysGetDistinctProviders(t *testing.T) {
	var built atomic.Int32
	var got sage.ProviderConfig
	p := &mockProvider{resp: &sage.Response{Content: "ok"}}
	inv := NewInvoker(staticFactory(p, &built, &got))
	ctx := context.Background()

	cfgA := sage.DefaultProviderConfig()
	cfgA.APIKey = "key-A"
	cfgB := cfgA
	cfgB.APIKey = "key-B"

	_, err := inv.Invoke(ctx, nil, nil, cfgA)
	require.NoError(t, err)
	assert.Equal(t, "key-A", got.APIKey)

	_, err = inv.Invoke(ctx, nil, nil, cfgB)
	require.NoError(t, err)
	assert.Equal(t, int32(2), built.Load())
	assert.Equal(t, "key-B", got.APIKey)

	_, err = inv.Invoke(ctx, nil, nil, cfgA)
	require.NoError(t, err)
	assert.Equal(t, int32(2), built.Load())
}

func TestInvoke_UnknownProviderFallsBack(t *testing.T) {
	var logs bytes.Buffer
	var got sage.ProviderConfig
	p := &mockProvider{resp: &sage.Response{Content: "ok"}}
	inv := NewInvoker(staticFactory(p, nil, &got),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	_, err := inv.Invoke(context.Background(), nil, nil, sage.ProviderConfig{Provider: "mystery", Model: "x"})
	require.NoError(t, err)

	assert.Equal(t, sage.ProviderCerebras, got.Provider)
	assert.Equal(t, sage.CerebrasDefaultModel, got.Model)
	assert.Equal(t, sage.CerebrasEndpoint, got.Endpoint)
	assert.Contains(t, logs.String(), "unknown provider")
}

func TestDefaultFactory(t *testing.T) {
	ctx := context.Background()
	f := &DefaultFactory{Keys: APIKeys{Cerebras: "c", OpenAI: "o", Anthropic: "a"}}

	for _, cfg := range []sage.ProviderConfig{
		sage.DefaultProviderConfig(),
		{Provider: sage.ProviderOpenAI},
		{Provider: sage.ProviderAnthropic, Model: "claude-haiku-4-5"},
	} {
		p, err := f.NewProvider(ctx, cfg)
		require.NoError(t, err, cfg.Provider)
		assert.NotNil(t, p)
	}

	_, err := f.NewProvider(ctx, sage.ProviderConfig{Provider: sage.ProviderGoogle})
	var missing *ErrMissingAPIKey
	assert.True(t, errors.As(err, &missing))

	_, err = f.NewProvider(ctx, sage.ProviderConfig{Provider: "mystery", APIKey: "k"})
	assert.ErrorContains(t, err, "unsupported provider")
}
