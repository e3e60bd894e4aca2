// Command sage is an interactive tool-using research assistant.
//
// Usage:
//
//	sage [-config sage.yaml] [-thread id]
//	sage -mcp
//
// Without flags sage starts a chat loop on a fresh thread; type "quit" or
// "exit" to leave. Each step of a run is printed as it happens: the tool
// calls the model requested, their results, and finally the answer.
//
// With -mcp the built-in tools are served over MCP stdio instead, for use by
// desktop assistants:
//
//	{
//	    "mcpServers": {
//	        "sage": {"command": "sage", "args": ["-mcp"]}
//	    }
//	}
//
// Configuration comes from an optional YAML file, a .env file and SAGE_*
// environment variables; API keys from CEREBRAS_API_KEY, OPENAI_API_KEY,
// ANTHROPIC_API_KEY and GOOGLE_API_KEY.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/spetersoncode/sage/agent"
	"github.com/spetersoncode/sage/event"
	"github.com/spetersoncode/sage/internal/config"
	"github.com/spetersoncode/sage/mcp"
	"github.com/spetersoncode/sage/model"
	"github.com/spetersoncode/sage/store"
	"github.com/spetersoncode/sage/telemetry"
	"github.com/spetersoncode/sage/tool"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	threadID := flag.String("thread", "", "thread id to resume (default: a new one)")
	serveMCP := flag.Bool("mcp", false, "serve the tools over MCP stdio instead of chatting")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("sage", version)
		return
	}

	if err := run(*configPath, *threadID, *serveMCP); err != nil {
		fmt.Fprintln(os.Stderr, "sage:", err)
		os.Exit(1)
	}
}

func run(configPath, threadID string, serveMCP bool) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// stdout belongs to the chat, or to the protocol under -mcp.
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	shutdown, err := telemetry.Init(ctx, cfg.TelemetryConfig(version))
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	executor := tool.NewExecutor(newRegistry(cfg),
		tool.WithParallel(cfg.Agent.Parallel),
		tool.WithHandlerTimeout(cfg.Agent.HandlerTimeout),
		tool.WithLogger(logger.With("component", "tool")),
		tool.WithTracer(otel.Tracer("sage/tool")),
	)

	if serveMCP {
		logger.Info("serving tools over MCP stdio", "tools", executor.Registry().Names())
		return mcp.ServeStdio(executor,
			mcp.WithName("sage"),
			mcp.WithVersion(version),
			mcp.WithLogger(logger.With("component", "mcp")),
		)
	}

	adapter, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	convs := store.NewConversations(adapter, store.WithLogger(logger.With("component", "store")))

	invoker := model.NewInvoker(&model.DefaultFactory{Keys: cfg.Keys},
		model.WithLogger(logger.With("component", "model")),
	)

	events := event.NewChannel()
	opts := append(cfg.AgentOptions(),
		agent.WithEvents(events),
		agent.WithLogger(logger.With("component", "agent")),
		agent.WithTracer(otel.Tracer("sage/agent")),
	)
	a := agent.New(invoker, convs, executor, executor.Registry().Tools(), opts...)

	if threadID == "" {
		threadID = uuid.NewString()
	}
	r := &repl{
		agent:    a,
		threadID: threadID,
		events:   events,
		in:       os.Stdin,
		out:      os.Stdout,
	}
	return r.loop(ctx)
}

func newRegistry(cfg *config.Config) *tool.Registry {
	var provider tool.SearchProvider
	switch cfg.Search.Backend {
	case "searxng":
		provider = tool.NewSearXNG(cfg.Search.Endpoint)
	default:
		var opts []tool.DuckDuckGoOption
		if cfg.Search.Endpoint != "" {
			opts = append(opts, tool.WithDuckDuckGoEndpoint(cfg.Search.Endpoint))
		}
		provider = tool.NewDuckDuckGo(opts...)
	}
	return tool.NewRegistry().
		Add(tool.MathTools()...).
		Add(tool.SearchTools(provider, tool.WithMaxResults(cfg.Search.MaxResults))...)
}

func openStore(cfg *config.Config) (store.Adapter, func(), error) {
	if cfg.Store.Driver != "sqlite" {
		return store.NewMemoryAdapter(), func() {}, nil
	}
	db, err := store.NewSQLiteAdapter(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}
