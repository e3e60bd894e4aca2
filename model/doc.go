// Package model invokes a chat backend for one agent step.
//
// An Invoker resolves a sage.ProviderConfig to a provider client through a
// Factory, sends the history with the advertised tool schemas and returns
// one assistant message:
//
//	inv := model.NewInvoker(&model.DefaultFactory{
//	    Keys: model.APIKeys{Cerebras: os.Getenv("CEREBRAS_API_KEY")},
//	})
//	msg, err := inv.Invoke(ctx, history, registry.Tools(), sage.DefaultProviderConfig())
//	if errors.Is(err, sage.ErrBackendUnavailable) {
//	    // inspect sage.IsTransient(err) to decide on a retry
//	}
//
// An empty or unknown provider resolves to Cerebras with llama-3.3-70b at
// temperature 0. A key set on the config takes precedence over the factory's
// keys and is never cached beyond the client it builds.
package model
