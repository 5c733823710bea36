package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeStringArg extracts a single string field from the model's JSON
// argument payload. Some providers send the bare string instead of a JSON
// object, so that form is accepted too.
func decodeStringArg(input, field string) (string, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		// Not a JSON object; treat the raw input as the value itself.
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			return "", fmt.Errorf("missing argument %q", field)
		}
		return strings.Trim(trimmed, `"`), nil
	}

	v, ok := args[field]
	if !ok {
		return "", fmt.Errorf("missing argument %q", field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", field)
	}
	return s, nil
}
