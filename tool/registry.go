package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/spetersoncode/sage"
)

// registeredTool combines a tool definition with its handler and parsed schema.
type registeredTool struct {
	tool    sage.Tool
	handler Handler
	schema  *objectSchema
}

// Registry maps tool names to their schema and handler.
// It is built once at startup; it is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]registeredTool),
	}
}

// Register adds a tool with its handler to the registry.
// Returns an error if a tool with the same name is already registered or the
// tool's parameter schema cannot be parsed.
func (r *Registry) Register(tool sage.Tool, handler Handler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool: name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool: %s has no handler", tool.Name)
	}
	schema, err := parseObjectSchema(tool.Parameters)
	if err != nil {
		return fmt.Errorf("tool: %s: %w", tool.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: tool.Name}
	}

	r.tools[tool.Name] = registeredTool{
		tool:    tool,
		handler: handler,
		schema:  schema,
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(tool sage.Tool, handler Handler) {
	if err := r.Register(tool, handler); err != nil {
		panic(err)
	}
}

// Get retrieves a handler by tool name.
// Returns the handler and true if found, or nil and false if not found.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.handler, true
}

// GetTool retrieves a tool definition by name.
func (r *Registry) GetTool(name string) (sage.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	if !ok {
		return sage.Tool{}, false
	}
	return rt.tool, true
}

// Resolve returns the executable handler for a tool name.
// Fails with *ErrUnknownTool if the tool is not registered.
func (r *Registry) Resolve(name string) (Handler, error) {
	rt, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return rt.handler, nil
}

func (r *Registry) lookup(name string) (registeredTool, error) {
	r.mu.RLock()
	rt, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return registeredTool{}, &ErrUnknownTool{Name: name}
	}
	return rt, nil
}

// Tools returns all registered tool definitions sorted by name.
// This is the schema set advertised to the model backend.
func (r *Registry) Tools() []sage.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]sage.Tool, 0, len(r.tools))
	for _, rt := range r.tools {
		tools = append(tools, rt.tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Names returns the names of all registered tools, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute validates and runs a single tool call. Unknown tools and invalid
// arguments are returned as errors; handler errors are wrapped in
// *ErrToolExecution. Use an Executor to turn these into tool results.
func (r *Registry) Execute(ctx context.Context, call sage.ToolCall) (string, error) {
	rt, err := r.lookup(call.Name)
	if err != nil {
		return "", err
	}

	validated, err := rt.schema.validate(call)
	if err != nil {
		return "", err
	}

	content, err := rt.handler(ctx, validated)
	if err != nil {
		return "", &ErrToolExecution{Name: call.Name, Err: err}
	}
	return content, nil
}

// Registration holds a tool and its handler for fluent registration.
type Registration struct {
	Tool    sage.Tool
	Handler Handler
}

// Func creates a Registration with automatic schema generation from the typed handler.
// Panics if schema generation fails.
//
// Example:
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("add", "Add two integers", func(ctx context.Context, args AddArgs) (string, error) {
//	        return strconv.Itoa(args.A + args.B), nil
//	    }),
//	)
func Func[T any](name, description string, fn TypedHandler[T]) Registration {
	t, h := MustBind(name, description, fn)
	return Registration{Tool: t, Handler: h}
}

// WithHandler creates a Registration from a Handler and schema.
func WithHandler(name, description string, schema json.RawMessage, h Handler) Registration {
	return Registration{
		Tool: sage.Tool{
			Name:        name,
			Description: description,
			Parameters:  schema,
		},
		Handler: h,
	}
}

// Add registers one or more tools to the registry.
// Panics if any tool is already registered.
// Returns the registry for fluent chaining.
func (r *Registry) Add(regs ...Registration) *Registry {
	for _, reg := range regs {
		r.MustRegister(reg.Tool, reg.Handler)
	}
	return r
}
