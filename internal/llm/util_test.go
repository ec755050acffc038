package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"product_name\": \"Chair\"}\n```",
			expected: `{"product_name": "Chair"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "preamble before object",
			input:    "Here is the enrichment:\n{\"seo_data\": {\"seo_score\": 80}}",
			expected: `{"seo_data": {"seo_score": 80}}`,
		},
		{
			name:     "trailing chatter",
			input:    "{\"key\": \"value\"}\n\nLet me know if you need anything else!",
			expected: `{"key": "value"}`,
		},
		{
			name:     "no JSON at all",
			input:    "  sorry, I cannot help  ",
			expected: "sorry, I cannot help",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", `{"key": "value"}`, `{"key": "value"}`},
		{"nested", `{"outer": {"inner": 1}} tail`, `{"outer": {"inner": 1}}`},
		{"braces in string", `{"template": "Hello {name}!"}`, `{"template": "Hello {name}!"}`},
		{"escaped quote", `{"m": "He said \"}\""} x`, `{"m": "He said \"}\""}`},
		{"unbalanced", `{"a": {`, ""},
		{"not an object", "not json", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONObject(tt.input))
		})
	}
}
