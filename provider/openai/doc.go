// Package openai provides a sage.ChatProvider backed by the OpenAI chat
// completions API.
//
// The same client serves any OpenAI-compatible backend. NewCerebras points
// it at https://api.cerebras.ai/v1 with llama-3.3-70b as the default model:
//
//	client := openai.NewCerebras(os.Getenv("CEREBRAS_API_KEY"))
//	resp, err := client.Chat(ctx, history,
//	    sage.WithTools(registry.Tools()),
//	    sage.WithTemperature(0),
//	)
//
// Each sage tool message is sent as its own "tool" message carrying the
// call id it answers. The SDK's built-in retries are turned off.
package openai
