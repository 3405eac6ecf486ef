package llm

import "testing"

func TestIsReasoningModel(t *testing.T) {
	cases := map[string]bool{
		"o1-preview":          true,
		"o3-mini":             true,
		"o4-mini-high":        true,
		"gemini-2.5-pro":      true,
		"deepseek-r1":         true,
		"qwq-32b":             true,
		"claude-sonnet-4":     false,
		"gpt-4o":              false,
		"gemini-1.5-flash":    false,
	}
	for model, want := range cases {
		if got := IsReasoningModel(model); got != want {
			t.Errorf("IsReasoningModel(%q) = %v, want %v", model, got, want)
		}
	}
}
