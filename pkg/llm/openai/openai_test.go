package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillchef/pkg/llm/types"
)

func chatServer(t *testing.T, captured *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "merged"}, "finish_reason": "stop"}]
		}`))
	}))
}

func TestComplete(t *testing.T) {
	var body map[string]interface{}
	server := chatServer(t, &body)
	defer server.Close()

	client := New(types.Config{Provider: types.ProviderOpenAI, Model: "gpt-4.1", APIKey: "k", BaseURL: server.URL})
	out, err := client.Complete(context.Background(), "merge please")
	require.NoError(t, err)

	assert.Equal(t, "merged", out)
	assert.Equal(t, "gpt-4.1", body["model"])
	assert.Contains(t, body, "temperature")
	messages := body["messages"].([]interface{})
	require.Len(t, messages, 1)
	assert.Equal(t, "merge please", messages[0].(map[string]interface{})["content"])
}

func TestCompleteReasoningModel(t *testing.T) {
	var body map[string]interface{}
	server := chatServer(t, &body)
	defer server.Close()

	client := New(types.Config{Provider: types.ProviderOpenAI, Model: "gpt-5-mini", APIKey: "k", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), "x")
	require.NoError(t, err)

	assert.NotContains(t, body, "temperature")
	assert.Contains(t, body, "max_completion_tokens")
}

func TestNewBaseURLs(t *testing.T) {
	tests := []struct {
		name     string
		config   types.Config
		expected string
	}{
		{name: "mistral", config: types.Config{Provider: types.ProviderMistral}, expected: MistralBaseURL},
		{name: "cohere", config: types.Config{Provider: types.ProviderCohere}, expected: CohereBaseURL},
		{name: "ollama", config: types.Config{Provider: types.ProviderOllama, APIKey: "http://box:11434/"}, expected: "http://box:11434/v1"},
		{name: "ollama default", config: types.Config{Provider: types.ProviderOllama}, expected: OllamaBaseURL + "/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, baseURLFor(tt.config))

			overridden := tt.config
			overridden.BaseURL = "http://override"
			assert.Equal(t, "http://override", baseURLFor(overridden))
		})
	}
}

func TestCompleteClassifiesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer server.Close()

	client := New(types.Config{Provider: types.ProviderOpenAI, Model: "gpt-4.1", APIKey: "k", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), "x")
	require.Error(t, err)

	var retryable *types.RetryableError
	assert.True(t, errors.As(err, &retryable))
}
