package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/sage"
)

func TestMathTools(t *testing.T) {
	registry := NewRegistry().Add(MathTools()...)
	ctx := context.Background()

	tests := []struct {
		tool string
		args string
		want string
	}{
		{"multiply", `{"a":2,"b":3}`, "6"},
		{"multiply", `{"a":-1,"b":5}`, "-5"},
		{"multiply", `{"a":0,"b":10}`, "0"},
		{"add", `{"a":10,"b":20}`, "30"},
		{"add", `{"a":-1,"b":1}`, "0"},
		{"add", `{"a":"4","b":"5"}`, "9"},
	}

	for _, tt := range tests {
		t.Run(tt.tool+" "+tt.args, func(t *testing.T) {
			out, err := registry.Execute(ctx, sage.ToolCall{ID: "c", Name: tt.tool, Arguments: tt.args})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("schema requires both operands", func(t *testing.T) {
		_, err := registry.Execute(ctx, sage.ToolCall{ID: "c", Name: "multiply", Arguments: `{"a":2}`})
		assert.ErrorIs(t, err, ErrInvalidArguments)
	})
}
