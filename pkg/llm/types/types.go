// Package types holds the provider-neutral types shared by the LLM clients.
package types

import "context"

// Provider identifies an LLM backend.
type Provider string

// Supported providers
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderMistral   Provider = "mistral"
	ProviderCohere    Provider = "cohere"
	ProviderOllama    Provider = "ollama"
)

// Config holds the configuration for a single completion client
type Config struct {
	Provider  Provider
	Model     string // Model is the provider-local model name, without the provider prefix
	APIKey    string
	BaseURL   string // BaseURL overrides the provider's default endpoint
	MaxTokens int
	Retry     RetryConfig
}

// RetryConfig controls how failed completion calls are retried.
type RetryConfig struct {
	Attempts     int    `mapstructure:"attempts" json:"attempts" yaml:"attempts"`
	InitialDelay int    `mapstructure:"initial_delay" json:"initial_delay" yaml:"initial_delay"` // milliseconds
	MaxDelay     int    `mapstructure:"max_delay" json:"max_delay" yaml:"max_delay"`             // milliseconds
	BackoffType  string `mapstructure:"backoff_type" json:"backoff_type" yaml:"backoff_type"`    // "fixed" or "exponential"
}

// DefaultRetryConfig is used when no retry settings are given.
var DefaultRetryConfig = RetryConfig{
	Attempts:     3,
	InitialDelay: 1000,
	MaxDelay:     10000,
	BackoffType:  "exponential",
}

// DefaultMaxTokens bounds the size of a merged document.
const DefaultMaxTokens = 8192

// Completer sends a single prompt and returns the model's text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RetryableError marks a provider error that is worth retrying.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }
