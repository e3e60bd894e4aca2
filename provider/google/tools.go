package google

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/spetersoncode/sage"
)

func convertTools(tools []sage.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	funcs := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		funcs[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(t.Parameters),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: funcs}}
}

func convertToolChoice(choice sage.ToolChoice) *genai.ToolConfig {
	mode := genai.FunctionCallingConfigModeAuto
	switch choice {
	case sage.ToolChoiceNone:
		mode = genai.FunctionCallingConfigModeNone
	case sage.ToolChoiceRequired:
		mode = genai.FunctionCallingConfigModeAny
	}
	return &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode},
	}
}

// extractToolCalls keeps the id Gemini assigned and synthesizes one
// otherwise, since tool results are matched by id downstream.
func extractToolCalls(parts []*genai.Part) []sage.ToolCall {
	var calls []sage.ToolCall
	for i, part := range parts {
		fc := part.FunctionCall
		if fc == nil {
			continue
		}
		args, _ := json.Marshal(fc.Args)
		if fc.Args == nil {
			args = []byte("{}")
		}
		id := fc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%s", i, fc.Name)
		}
		calls = append(calls, sage.ToolCall{ID: id, Name: fc.Name, Arguments: string(args)})
	}
	return calls
}
