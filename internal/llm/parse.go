package llm

import (
	"encoding/json"
	"strings"

	"docextract/pkg/models"
)

// decodeFields sanitizes the model output and interprets it as a JSON
// object. Models occasionally wrap the object in markdown code fences or
// double-encode it as a JSON string; fences are stripped and a
// double-encoded string is unwrapped exactly once (bounded, not a loop).
func decodeFields(raw string) (models.FieldSet, error) {
	const op = "decodeFields"

	cleaned := stripFences(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil, NewLLMError(op, ErrEmptyResponse, "")
	}

	var value any
	if err := json.Unmarshal([]byte(cleaned), &value); err != nil {
		return nil, NewLLMError(op, ErrUnparsableOutput, err.Error())
	}

	// Single bounded unwrap for double-encoded output.
	if inner, ok := value.(string); ok {
		if err := json.Unmarshal([]byte(inner), &value); err != nil {
			return nil, NewLLMError(op, ErrUnparsableOutput, "double-encoded string does not contain JSON: "+err.Error())
		}
	}

	object, ok := value.(map[string]any)
	if !ok {
		return nil, NewLLMError(op, ErrUnparsableOutput, "output is not a JSON object")
	}

	return models.FieldSet(object), nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, leaving other text untouched.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	trimmed := strings.TrimPrefix(s, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the opening fence line ("```" or "```json").
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
