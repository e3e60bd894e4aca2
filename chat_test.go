package sage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyOptions(t *testing.T) {
	t.Run("defaults are empty", func(t *testing.T) {
		o := ApplyOptions()
		assert.Empty(t, o.Model)
		assert.Nil(t, o.Temperature)
		assert.Empty(t, o.Tools)
	})

	t.Run("temperature zero is distinguishable from unset", func(t *testing.T) {
		o := ApplyOptions(WithTemperature(0))
		if assert.NotNil(t, o.Temperature) {
			assert.Equal(t, 0.0, *o.Temperature)
		}
	})

	t.Run("later options win", func(t *testing.T) {
		tools := []Tool{{Name: "add"}}
		o := ApplyOptions(
			WithModel("a"),
			WithModel("b"),
			WithMaxTokens(128),
			WithTools(tools),
			WithToolChoice(ToolChoiceRequired),
		)
		assert.Equal(t, "b", o.Model)
		assert.Equal(t, 128, o.MaxTokens)
		assert.Equal(t, tools, o.Tools)
		assert.Equal(t, ToolChoiceRequired, o.ToolChoice)
	})
}
