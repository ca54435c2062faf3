package llm

import (
	"os"
	"strings"

	"github.com/jingkaihe/skillchef/pkg/llm/types"
)

// APIKey is an environment variable that enables a provider.
type APIKey struct {
	EnvVar       string
	Provider     types.Provider
	Label        string
	DefaultModel string
}

// KnownKeys lists the supported key variables in detection order.
var KnownKeys = []APIKey{
	{EnvVar: "ANTHROPIC_API_KEY", Provider: types.ProviderAnthropic, Label: "Anthropic", DefaultModel: "anthropic/claude-sonnet-4-20250514"},
	{EnvVar: "OPENAI_API_KEY", Provider: types.ProviderOpenAI, Label: "OpenAI", DefaultModel: "openai/gpt-5-mini"},
	{EnvVar: "GEMINI_API_KEY", Provider: types.ProviderGemini, Label: "Google Gemini", DefaultModel: "gemini/gemini-2.5-pro"},
	{EnvVar: "MISTRAL_API_KEY", Provider: types.ProviderMistral, Label: "Mistral", DefaultModel: "mistral/mistral-large-latest"},
	{EnvVar: "COHERE_API_KEY", Provider: types.ProviderCohere, Label: "Cohere", DefaultModel: "cohere/command-r-plus"},
	{EnvVar: "OLLAMA_API_BASE", Provider: types.ProviderOllama, Label: "Ollama (local)", DefaultModel: "ollama/llama3.2"},
}

// DetectKeys returns the known keys that are set in the environment.
func DetectKeys(getenv func(string) string) []APIKey {
	if getenv == nil {
		getenv = os.Getenv
	}
	var found []APIKey
	for _, k := range KnownKeys {
		if strings.TrimSpace(getenv(k.EnvVar)) != "" {
			found = append(found, k)
		}
	}
	return found
}

// SelectKey picks the preferred key if it was detected, otherwise the first
// detected key.
func SelectKey(detected []APIKey, preferred string) (APIKey, bool) {
	if len(detected) == 0 {
		return APIKey{}, false
	}
	for _, k := range detected {
		if preferred != "" && k.EnvVar == preferred {
			return k, true
		}
	}
	return detected[0], true
}

// KeyForEnv returns the known key with the given variable name.
func KeyForEnv(env string) (APIKey, bool) {
	for _, k := range KnownKeys {
		if k.EnvVar == env {
			return k, true
		}
	}
	return APIKey{}, false
}

// SplitModel splits "provider/model" into its parts. A bare model name has
// no provider.
func SplitModel(model string) (types.Provider, string) {
	provider, name, ok := strings.Cut(model, "/")
	if !ok {
		return "", model
	}
	return types.Provider(provider), name
}

// ResolveModel picks the model to use. An explicit override always wins.
// Otherwise the configured model is used unless its provider does not match
// the selected key, in which case the key's default model is used.
func ResolveModel(configured, override string, key *APIKey) string {
	if override != "" {
		return override
	}
	if key == nil {
		return configured
	}
	if configured == "" {
		return key.DefaultModel
	}

	provider, _ := SplitModel(configured)
	keyProvider, _ := SplitModel(key.DefaultModel)
	if provider != keyProvider {
		return key.DefaultModel
	}
	return configured
}
