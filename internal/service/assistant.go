package service

import (
	"encoding/json"
	"strings"

	"github.com/noah-isme/hr-onboarding-api/internal/llm"
)

// AssistantResult is a gateway answer handed back to API callers.
type AssistantResult struct {
	Data   map[string]any
	Source llm.Source
}

// Degraded reports whether the answer came from the mock fallback.
func (r *AssistantResult) Degraded() bool {
	return r != nil && r.Source == llm.SourceFallback
}

func newAssistantResult(result llm.Result) *AssistantResult {
	data := result.Data
	if data == nil {
		data = map[string]any{}
	}
	return &AssistantResult{Data: data, Source: result.Source}
}

func stringField(data map[string]any, key, fallback string) string {
	if s, ok := data[key].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func compactJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
