package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rrens/smm-bot/internal/llm"
	"github.com/Rrens/smm-bot/internal/llm/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Generate(t *testing.T) {
	var captured map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "claude-sonnet-4-20250514",
			"content": [
				{"type": "server_tool_use"},
				{"type": "text", "text": "{\"message_to_user\": \"ok\"}"}
			],
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	p := anthropic.NewProvider("key", "").WithBaseURL(srv.URL)

	resp, err := p.Generate(context.Background(), llm.Request{
		SystemPrompt:    "You are an SMM assistant",
		ThinkingTokens:  2000,
		MaxTokens:       1000,
		EnableWebSearch: true,
		JSONMode:        true,
		History: []llm.Message{
			{Role: llm.RoleUser, Content: "a"},
			{Role: llm.RoleUser, Content: "b"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"message_to_user": "ok"}`, resp.Content)
	assert.Equal(t, 15, resp.Cost.Details.Tokens.TotalTokens)

	messages := captured["messages"].([]any)
	assert.Len(t, messages, 1)
	assert.NotNil(t, captured["thinking"])
	assert.Nil(t, captured["temperature"])
	assert.EqualValues(t, 3000, captured["max_tokens"])
	assert.Len(t, captured["tools"], 1)
}

func TestProvider_Generate_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, 529)
	}))
	defer srv.Close()

	p := anthropic.NewProvider("key", "").WithBaseURL(srv.URL)

	_, err := p.Generate(context.Background(), llm.Request{History: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
	assert.ErrorContains(t, err, "status 529")
}
