package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spetersoncode/sage"
)

// propertySchema is the subset of JSON Schema the validator understands.
type propertySchema struct {
	Type  string          `json:"type"`
	Enum  []any           `json:"enum"`
	Items *propertySchema `json:"items"`
}

// objectSchema is a parsed tool parameter schema.
type objectSchema struct {
	Properties map[string]propertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

func parseObjectSchema(raw json.RawMessage) (*objectSchema, error) {
	s := &objectSchema{}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("invalid parameter schema: %w", err)
	}
	return s, nil
}

// validate checks call arguments against the schema and returns a copy of the
// call whose arguments have been coerced to the declared types.
func (s *objectSchema) validate(call sage.ToolCall) (sage.ToolCall, error) {
	args, err := call.Args()
	if err != nil {
		return call, &ErrArgument{Tool: call.Name, Msg: err.Error()}
	}

	for _, name := range s.Required {
		if v, ok := args[name]; !ok || v == nil {
			return call, &ErrArgument{Tool: call.Name, Field: name, Msg: "required field is missing"}
		}
	}

	for name, value := range args {
		prop, declared := s.Properties[name]
		if !declared {
			continue
		}
		if value == nil {
			delete(args, name)
			continue
		}
		coerced, err := coerce(prop, value)
		if err != nil {
			return call, &ErrArgument{Tool: call.Name, Field: name, Msg: err.Error()}
		}
		args[name] = coerced
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return call, &ErrArgument{Tool: call.Name, Msg: err.Error()}
	}
	call.Arguments = string(raw)
	return call, nil
}

func coerce(prop propertySchema, value any) (any, error) {
	var (
		out any
		err error
	)
	switch prop.Type {
	case "integer":
		out, err = toInteger(value)
	case "number":
		out, err = toNumber(value)
	case "string":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %s", kindOf(value))
		}
		out = s
	case "boolean":
		out, err = toBool(value)
	case "array":
		items, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array, got %s", kindOf(value))
		}
		if prop.Items != nil {
			for i, item := range items {
				if items[i], err = coerce(*prop.Items, item); err != nil {
					return nil, fmt.Errorf("item %d: %w", i, err)
				}
			}
		}
		out = items
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return nil, fmt.Errorf("expected object, got %s", kindOf(value))
		}
		out = value
	default:
		out = value
	}
	if err != nil {
		return nil, err
	}
	if len(prop.Enum) > 0 && !inEnum(prop.Enum, out) {
		return nil, fmt.Errorf("value %v is not one of %v", out, prop.Enum)
	}
	return out, nil
}

func toInteger(value any) (int64, error) {
	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return 0, fmt.Errorf("expected integer, got %s", kindOf(value))
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.Trunc(f) != f || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected integer, got %q", text)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("integer %q out of range", text)
	}
	return int64(f), nil
}

func toNumber(value any) (float64, error) {
	switch v := value.(type) {
	case json.Number:
		return v.Float64()
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected number, got %s", kindOf(value))
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("expected boolean, got %q", v)
		}
		return b, nil
	}
	return false, fmt.Errorf("expected boolean, got %s", kindOf(value))
}

func inEnum(enum []any, value any) bool {
	want := fmt.Sprint(value)
	for _, e := range enum {
		if fmt.Sprint(e) == want {
			return true
		}
	}
	return false
}

func kindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", value)
}
