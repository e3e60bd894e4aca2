package tool

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/sage"
)

const validateSchema = `{
	"type": "object",
	"properties": {
		"count": {"type": "integer"},
		"ratio": {"type": "number"},
		"name":  {"type": "string"},
		"on":    {"type": "boolean"},
		"tags":  {"type": "array", "items": {"type": "integer"}},
		"unit":  {"type": "string", "enum": ["celsius", "fahrenheit"]},
		"opts":  {"type": "object"}
	},
	"required": ["count"]
}`

func validateArgs(t *testing.T, args string) (map[string]any, error) {
	t.Helper()
	schema, err := parseObjectSchema(json.RawMessage(validateSchema))
	require.NoError(t, err)

	call, err := schema.validate(sage.ToolCall{ID: "1", Name: "probe", Arguments: args})
	if err != nil {
		return nil, err
	}
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(call.Arguments), &out))
	return out, nil
}

func TestValidateCoercion(t *testing.T) {
	tests := []struct {
		name  string
		args  string
		field string
		want  any
	}{
		{"integer from string", `{"count":"42"}`, "count", float64(42)},
		{"integer from integral float", `{"count":7.0}`, "count", float64(7)},
		{"number from string", `{"count":1,"ratio":"0.5"}`, "ratio", 0.5},
		{"boolean from string", `{"count":1,"on":"true"}`, "on", true},
		{"array items coerced", `{"count":1,"tags":["1",2]}`, "tags", []any{float64(1), float64(2)}},
		{"enum accepted", `{"count":1,"unit":"celsius"}`, "unit", "celsius"},
		{"undeclared fields pass through", `{"count":1,"extra":"x"}`, "extra", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := validateArgs(t, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out[tt.field])
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		args  string
		field string
	}{
		{"missing required", `{}`, "count"},
		{"null required", `{"count":null}`, "count"},
		{"fractional integer", `{"count":1.5}`, "count"},
		{"string type mismatch", `{"count":1,"name":5}`, "name"},
		{"bad boolean", `{"count":1,"on":"maybe"}`, "on"},
		{"enum violation", `{"count":1,"unit":"kelvin"}`, "unit"},
		{"object mismatch", `{"count":1,"opts":[1]}`, "opts"},
		{"array item mismatch", `{"count":1,"tags":["x"]}`, "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateArgs(t, tt.args)
			require.ErrorIs(t, err, ErrInvalidArguments)
			var argErr *ErrArgument
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.field, argErr.Field)
			assert.Equal(t, "probe", argErr.Tool)
		})
	}
}

func TestValidateMalformedArguments(t *testing.T) {
	for _, args := range []string{`{oops`, `[1,2]`, `null`} {
		_, err := validateArgs(t, args)
		assert.ErrorIs(t, err, ErrInvalidArguments, args)
	}
}

func TestValidateDropsNullOptionals(t *testing.T) {
	out, err := validateArgs(t, `{"count":1,"name":null}`)
	require.NoError(t, err)
	_, present := out["name"]
	assert.False(t, present)
}
