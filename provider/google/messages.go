package google

import (
	"encoding/json"

	"google.golang.org/genai"

	"github.com/spetersoncode/sage"
)

// convertMessages maps the history to Gemini contents and collects system
// text into a separate instruction. Gemini identifies function responses by
// function name, so tool results look up the name from the assistant call
// they answer. Consecutive tool results share one user turn.
func convertMessages(messages []sage.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system *genai.Content
	var pending []*genai.Part
	names := make(map[string]string)

	flush := func() {
		if len(pending) > 0 {
			contents = append(contents, &genai.Content{Role: "user", Parts: pending})
			pending = nil
		}
	}

	for _, msg := range messages {
		if msg.Role == sage.RoleTool {
			pending = append(pending, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     names[msg.ToolCallID],
					Response: toolResponse(msg),
				},
			})
			continue
		}
		flush()

		switch msg.Role {
		case sage.RoleSystem:
			if msg.Content == "" {
				continue
			}
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: msg.Content})
		case sage.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				names[tc.ID] = tc.Name
				args := map[string]any{}
				if tc.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Arguments), &args)
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		default:
			if msg.Content != "" {
				contents = append(contents, &genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: msg.Content}},
				})
			}
		}
	}
	flush()

	return contents, system
}

// toolResponse uses a JSON object result as-is and wraps anything else.
// Failures go under "error" so the model can tell them apart.
func toolResponse(msg sage.Message) map[string]any {
	if msg.IsError {
		return map[string]any{"error": msg.Content}
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(msg.Content), &result); err != nil || result == nil {
		result = map[string]any{"result": msg.Content}
	}
	return result
}
