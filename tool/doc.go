// Package tool provides the tool registry and executor used by the agent.
//
// This package includes:
//   - Registry mapping tool names to schema and handler
//   - Function binding with automatic schema generation from struct tags
//   - Argument validation and coercion against the declared schema
//   - Executor running a batch of calls, in parallel, with ordered results
//   - Built-in tools: multiply, add and web search
//
// # Basic Usage
//
// Define tool arguments as a struct with tags, then use Func or Bind:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" desc:"City name" required:"true"`
//	    Unit     string `json:"unit" desc:"Temperature unit" enum:"celsius,fahrenheit"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather",
//	        func(ctx context.Context, args WeatherArgs) (string, error) {
//	            return fmt.Sprintf(`{"temp": 72, "location": %q}`, args.Location), nil
//	        }),
//	)
//
// # Execution
//
// An Executor never fails a batch. Unknown tools, arguments that do not match
// the schema, handler errors and handler panics all become tool results with
// IsError set and content prefixed by "error: ", so the model can read what
// went wrong and try again:
//
//	exec := tool.NewExecutor(registry, tool.WithHandlerTimeout(10*time.Second))
//	results := exec.ExecuteAll(ctx, msg.ToolCalls)
//
// Results are returned in request order and each carries the ID of the call
// it answers.
//
// # Built-in Tools
//
//	registry := tool.DefaultRegistry(tool.NewDuckDuckGo())
//
// registers multiply, add and search_duckduckgo. Search output is a list of
// Title/Link/Snippet blocks, at most five, or "No results found.".
package tool
