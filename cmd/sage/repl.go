package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spetersoncode/sage"
	"github.com/spetersoncode/sage/agent"
	"github.com/spetersoncode/sage/event"
)

// flush is sent through the event channel after each run; the printer
// acknowledges it once everything queued before it has been written.
const flush event.Type = "flush"

// maxResultLen truncates tool output in the step log.
const maxResultLen = 300

type runner interface {
	Run(ctx context.Context, threadID, userText string, cfg sage.ProviderConfig) (*agent.Result, error)
}

type repl struct {
	agent    runner
	threadID string
	events   chan event.Event
	in       io.Reader
	out      io.Writer
}

func (r *repl) loop(ctx context.Context) error {
	flushed := make(chan struct{})
	go r.print(flushed)
	defer close(r.events)

	fmt.Fprintf(r.out, "sage (thread %s). Type \"quit\" or \"exit\" to leave.\n", r.threadID)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(r.out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		r.turn(ctx, line)
		r.events <- event.Event{Type: flush}
		<-flushed
	}
}

// turn runs one user message. Ctrl-C cancels the run, not the process.
func (r *repl) turn(ctx context.Context, line string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	// No explicit provider: a resumed thread keeps its recorded routing and
	// new threads take llm.* from the agent options.
	_, err := r.agent.Run(ctx, r.threadID, line, sage.ProviderConfig{})
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(r.out, "(cancelled)")
	case errors.Is(err, agent.ErrStepLimitExceeded):
		fmt.Fprintln(r.out, "Stopped: too many steps without a final answer.")
	case errors.Is(err, sage.ErrBackendUnavailable):
		fmt.Fprintf(r.out, "The model backend is unavailable: %v\n", err)
	default:
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
}

func (r *repl) print(flushed chan<- struct{}) {
	for e := range r.events {
		switch e.Type {
		case flush:
			flushed <- struct{}{}
		case event.StepStart:
			fmt.Fprintf(r.out, "[step %d]\n", e.Step)
		case event.ModelResponse:
			if e.Message == nil {
				continue
			}
			for _, tc := range e.Message.ToolCalls {
				fmt.Fprintf(r.out, "  -> %s %s\n", tc.Name, tc.Arguments)
			}
		case event.ToolResult:
			if e.Message == nil || e.ToolCall == nil {
				continue
			}
			fmt.Fprintf(r.out, "  <- %s: %s\n", e.ToolCall.Name, truncate(e.Message.Content, maxResultLen))
		case event.Retry:
			fmt.Fprintf(r.out, "  (retrying: %v)\n", e.Error)
		case event.RunEnd:
			if e.Message != nil {
				fmt.Fprintf(r.out, "\n%s\n", e.Message.Content)
			}
		}
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
