// Package anthropic implements a completion client on top of the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillchef/pkg/llm/types"
)

// Client sends single-turn prompts to Claude models.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates an Anthropic client from config.
func New(config types.Config, opts ...option.RequestOption) *Client {
	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = types.DefaultMaxTokens
	}

	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if config.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(config.APIKey))
	}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(config.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &Client{
		client:    anthropic.NewClient(clientOpts...),
		model:     config.Model,
		maxTokens: int64(config.MaxTokens),
	}
}

// Complete sends prompt as a single user message at temperature 0 and joins
// the text blocks of the reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classify(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		if code == http.StatusTooManyRequests || code >= 500 {
			return &types.RetryableError{Err: errors.Wrap(err, "anthropic request failed")}
		}
		return errors.Wrap(err, "anthropic request failed")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &types.RetryableError{Err: errors.Wrap(err, "anthropic request failed")}
}
