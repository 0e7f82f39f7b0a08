package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const fence = "```"

// ParseJSONObject decodes model output into an object, tolerating a markdown code fence.
func ParseJSONObject(text string) (map[string]any, error) {
	body := strings.TrimSpace(text)
	if strings.HasPrefix(body, fence) {
		parts := strings.Split(body, fence)
		if len(parts) > 1 {
			body = parts[1]
		}
		body = strings.TrimPrefix(body, "json")
		body = strings.TrimSpace(body)
	}
	if body == "" {
		return nil, errors.New("empty json body")
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("decode model json: %w", err)
	}
	if out == nil {
		return nil, errors.New("model json is not an object")
	}
	return out, nil
}
