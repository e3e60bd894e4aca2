package tool

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below.
var (
	// ErrUnknown indicates a tool call named a tool that is not registered.
	ErrUnknown = errors.New("tool: unknown tool")

	// ErrInvalidArguments indicates tool call arguments do not satisfy the schema.
	ErrInvalidArguments = errors.New("tool: invalid arguments")
)

// ErrUnknownTool is returned when a tool call references an unregistered tool.
type ErrUnknownTool struct {
	Name string
}

// Error returns a formatted error message including the tool name.
func (e *ErrUnknownTool) Error() string {
	return fmt.Sprintf("tool: unknown tool %q", e.Name)
}

// Is reports whether target is ErrUnknown.
func (e *ErrUnknownTool) Is(target error) bool {
	return target == ErrUnknown
}

// ErrArgument describes why arguments failed validation.
type ErrArgument struct {
	Tool  string
	Field string // empty when the arguments as a whole are malformed
	Msg   string
}

// Error returns a formatted error message naming the offending field.
func (e *ErrArgument) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tool: invalid arguments for %s: %s", e.Tool, e.Msg)
	}
	return fmt.Sprintf("tool: invalid arguments for %s: %s: %s", e.Tool, e.Field, e.Msg)
}

// Is reports whether target is ErrInvalidArguments.
func (e *ErrArgument) Is(target error) bool {
	return target == ErrInvalidArguments
}

// ErrToolExecution wraps errors from tool handler execution.
type ErrToolExecution struct {
	Name string
	Err  error
}

// Error returns a formatted error message including the tool name and cause.
func (e *ErrToolExecution) Error() string {
	return fmt.Sprintf("tool: %s execution failed: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ErrToolExecution) Unwrap() error {
	return e.Err
}

// ErrToolAlreadyRegistered is returned when registering a tool with a duplicate name.
type ErrToolAlreadyRegistered struct {
	Name string
}

// Error returns a formatted error message including the duplicate tool name.
func (e *ErrToolAlreadyRegistered) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}
