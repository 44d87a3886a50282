package llm_test

import (
	"testing"

	"github.com/Rrens/smm-bot/internal/llm"
	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain object",
			input:    `{"message_to_user": "hi"}`,
			expected: `{"message_to_user": "hi"}`,
		},
		{
			name:     "json code block",
			input:    "```json\n{\"message_to_user\": \"hi\"}\n```",
			expected: `{"message_to_user": "hi"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "prose around object",
			input:    "Sure! Here it is: {\"a\": {\"b\": 2}} Hope this helps.",
			expected: `{"a": {"b": 2}}`,
		},
		{
			name:     "whitespace",
			input:    "  \n{\"a\": 1}\n  ",
			expected: `{"a": 1}`,
		},
		{
			name:     "no object",
			input:    "I cannot answer that",
			expected: "I cannot answer that",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, llm.ExtractJSON(tt.input))
		})
	}
}

func TestMergeConsecutive(t *testing.T) {
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "a"},
		{Role: llm.RoleUser, Content: "b"},
		{Role: llm.RoleAssistant, Content: "c"},
		{Role: llm.RoleUser, Content: "d"},
	}

	merged := llm.MergeConsecutive(history)

	assert.Len(t, merged, 3)
	assert.Equal(t, "a\n\nb", merged[0].Content)
	assert.Equal(t, llm.RoleAssistant, merged[1].Role)
	assert.Equal(t, "d", merged[2].Content)
	assert.Equal(t, "a", history[0].Content)
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, llm.CountTokens(""))
	assert.Greater(t, llm.CountTokens("Write a post about spring sales"), 0)
}
