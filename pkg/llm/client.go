// Package llm turns a configured model into a Merger that rewrites a skill
// document so that it carries both an upstream update and a local flavor.
package llm

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillchef/pkg/llm/anthropic"
	"github.com/jingkaihe/skillchef/pkg/llm/google"
	"github.com/jingkaihe/skillchef/pkg/llm/openai"
	"github.com/jingkaihe/skillchef/pkg/llm/types"
)

// ErrNoAPIKey is returned when no supported API key is set.
var ErrNoAPIKey = errors.New("no LLM API key found in the environment")

// Settings selects the provider, model and credentials of a Merger.
type Settings struct {
	// Model is the configured "provider/model".
	Model string
	// Override replaces Model when set.
	Override string
	// PreferredKey is the environment variable to use when several keys are set.
	PreferredKey string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	Retry   types.RetryConfig
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// NewCompleter creates the completion client for config.Provider.
func NewCompleter(ctx context.Context, config types.Config) (types.Completer, error) {
	switch config.Provider {
	case types.ProviderAnthropic:
		return anthropic.New(config), nil
	case types.ProviderGemini:
		return google.New(ctx, config)
	case types.ProviderOpenAI, types.ProviderMistral, types.ProviderCohere, types.ProviderOllama:
		return openai.New(config), nil
	default:
		return nil, errors.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// ResolveConfig turns settings into a client configuration using the keys
// found in the environment.
func ResolveConfig(s Settings) (types.Config, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	key, ok := SelectKey(DetectKeys(getenv), s.PreferredKey)
	if !ok {
		return types.Config{}, ErrNoAPIKey
	}

	model := ResolveModel(s.Model, s.Override, &key)
	provider, name := SplitModel(model)
	if provider == "" {
		provider = key.Provider
	}

	apiKey := getenv(key.EnvVar)
	if provider != key.Provider {
		k, known := providerKey(provider)
		if !known || getenv(k.EnvVar) == "" {
			return types.Config{}, errors.Errorf("model %s needs an API key for provider %s", model, provider)
		}
		apiKey = getenv(k.EnvVar)
	}

	retry := s.Retry
	if retry.Attempts == 0 {
		retry = types.DefaultRetryConfig
	}

	return types.Config{
		Provider:  provider,
		Model:     name,
		APIKey:    apiKey,
		BaseURL:   s.BaseURL,
		MaxTokens: types.DefaultMaxTokens,
		Retry:     retry,
	}, nil
}

func providerKey(p types.Provider) (APIKey, bool) {
	for _, k := range KnownKeys {
		if k.Provider == p {
			return k, true
		}
	}
	return APIKey{}, false
}

// NewMerger resolves settings and creates a Merger for the chosen model.
func NewMerger(ctx context.Context, s Settings) (*CompletionMerger, error) {
	config, err := ResolveConfig(s)
	if err != nil {
		return nil, err
	}
	completer, err := NewCompleter(ctx, config)
	if err != nil {
		return nil, err
	}
	return &CompletionMerger{
		completer: completer,
		retry:     config.Retry,
		model:     string(config.Provider) + "/" + config.Model,
	}, nil
}
