// Package google implements a completion client for Gemini models through the
// Google GenAI SDK.
package google

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/jingkaihe/skillchef/pkg/llm/types"
)

// Client sends single-turn prompts to Gemini.
type Client struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// New creates a Gemini API client from config.
func New(ctx context.Context, config types.Config) (*Client, error) {
	if config.Model == "" {
		config.Model = "gemini-2.5-pro"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = types.DefaultMaxTokens
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Google GenAI client")
	}

	return &Client{
		client:    client,
		model:     config.Model,
		maxTokens: int32(config.MaxTokens),
	}, nil
}

// Complete sends prompt at temperature 0 and returns the text of the first
// candidate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		MaxOutputTokens: c.maxTokens,
	})
	if err != nil {
		return "", classify(err)
	}
	return resp.Text(), nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	wrapped := errors.Wrap(err, "gemini request failed")
	if code, ok := statusCode(err); ok {
		if code == http.StatusTooManyRequests || code >= 500 {
			return &types.RetryableError{Err: wrapped}
		}
		return wrapped
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"rate limit",
		"too many requests",
	} {
		if strings.Contains(msg, pattern) {
			return &types.RetryableError{Err: wrapped}
		}
	}
	return wrapped
}

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code, true
	}
	return 0, false
}
