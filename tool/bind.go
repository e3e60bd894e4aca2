package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spetersoncode/sage"
)

// Bind derives a tool definition from the argument struct T (see
// sage.SchemaFor for the tags) and wraps fn as a Handler. By the time the
// handler runs the executor has validated and coerced the arguments, so
// decoding into T only fails for schemas the validator cannot express.
//
//	t, h := tool.MustBind("multiply", "Multiply two integers.", tool.Multiply)
func Bind[T any](name, description string, fn TypedHandler[T]) (sage.Tool, Handler, error) {
	schema, err := sage.SchemaFor[T]()
	if err != nil {
		return sage.Tool{}, nil, fmt.Errorf("tool %s: %w", name, err)
	}

	t := sage.Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}

	handler := func(ctx context.Context, call sage.ToolCall) (string, error) {
		var args T
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				return "", &ErrArgument{Tool: name, Msg: err.Error()}
			}
		}
		return fn(ctx, args)
	}

	return t, handler, nil
}

// MustBind is like Bind but panics on error.
func MustBind[T any](name, description string, fn TypedHandler[T]) (sage.Tool, Handler) {
	t, h, err := Bind(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t, h
}

// BindTo binds fn and registers the result on r.
func BindTo[T any](r *Registry, name, description string, fn TypedHandler[T]) error {
	t, h, err := Bind(name, description, fn)
	if err != nil {
		return err
	}
	return r.Register(t, h)
}

// MustBindTo is like BindTo but panics on error.
func MustBindTo[T any](r *Registry, name, description string, fn TypedHandler[T]) {
	if err := BindTo(r, name, description, fn); err != nil {
		panic(err)
	}
}
