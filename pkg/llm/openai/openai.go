// Package openai implements a completion client for OpenAI and the
// OpenAI-compatible chat endpoints of Mistral, Cohere and Ollama.
package openai

import (
	"context"
	"math"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/jingkaihe/skillchef/pkg/llm/types"
)

// Default endpoints of the OpenAI-compatible providers
const (
	MistralBaseURL = "https://api.mistral.ai/v1"
	CohereBaseURL  = "https://api.cohere.ai/compatibility/v1"
	OllamaBaseURL  = "http://localhost:11434"
)

// Client sends single-turn chat completions.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// New creates a client for config.Provider. For Ollama the API key is the
// server base URL.
func New(config types.Config) *Client {
	apiKey := config.APIKey
	if config.Provider == types.ProviderOllama {
		apiKey = "ollama"
	}
	clientConfig := openai.DefaultConfig(apiKey)
	if base := baseURLFor(config); base != "" {
		clientConfig.BaseURL = base
	}

	if config.MaxTokens == 0 {
		config.MaxTokens = types.DefaultMaxTokens
	}

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     config.Model,
		maxTokens: config.MaxTokens,
	}
}

// baseURLFor returns the endpoint for config, or "" for the OpenAI default.
func baseURLFor(config types.Config) string {
	if config.BaseURL != "" {
		return config.BaseURL
	}
	switch config.Provider {
	case types.ProviderMistral:
		return MistralBaseURL
	case types.ProviderCohere:
		return CohereBaseURL
	case types.ProviderOllama:
		base := config.APIKey
		if base == "" {
			base = OllamaBaseURL
		}
		return strings.TrimRight(base, "/") + "/v1"
	}
	return ""
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if isReasoningModel(c.model) {
		req.MaxCompletionTokens = c.maxTokens
	} else {
		req.MaxTokens = c.maxTokens
		// a zero temperature is dropped by omitempty
		req.Temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// reasoning models only accept the default temperature
func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") ||
		strings.HasPrefix(m, "o4") || strings.HasPrefix(m, "gpt-5")
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.HTTPStatusCode
		if code == http.StatusTooManyRequests || code >= 500 {
			return &types.RetryableError{Err: errors.Wrap(err, "chat completion failed")}
		}
		return errors.Wrap(err, "chat completion failed")
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500 {
			return &types.RetryableError{Err: errors.Wrap(err, "chat completion failed")}
		}
		return errors.Wrap(err, "chat completion failed")
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &types.RetryableError{Err: errors.Wrap(err, "chat completion failed")}
}
