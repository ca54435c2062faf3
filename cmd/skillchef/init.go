package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/config"
	"github.com/jingkaihe/skillchef/pkg/editor"
	"github.com/jingkaihe/skillchef/pkg/llm"
	"github.com/jingkaihe/skillchef/pkg/presenter"
)

const customEditorChoice = "Custom value"

// InitConfig holds the answers that can be given as flags instead of prompts
type InitConfig struct {
	Platforms    []string
	DefaultScope string
	APIKeyEnv    string
	Editor       string
	Model        string
}

// NewInitConfig creates an InitConfig with no answers
func NewInitConfig() *InitConfig {
	return &InitConfig{}
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Configure platforms, editor and AI merge",
	Long: `Configure skillchef for a scope: the agent platforms cooked skills are linked
into, the default scope, the API key and model used for AI merges, and your editor.

Every question can be answered with a flag instead:
  skillchef init --platforms codex,claude-code --editor nvim --model anthropic/claude-sonnet-4-5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runInit(current, getInitConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewInitConfig()
	initCmd.Flags().StringSlice("platforms", defaults.Platforms, "Platforms to link skills into ("+strings.Join(config.PlatformNames(), ", ")+")")
	initCmd.Flags().String("default-scope", defaults.DefaultScope, "Default scope for skill storage (global, project)")
	initCmd.Flags().String("api-key-env", defaults.APIKeyEnv, "Environment variable holding the API key used for AI merges")
	initCmd.Flags().String("editor", defaults.Editor, "Editor command")
	initCmd.Flags().String("model", defaults.Model, "AI model for semantic merge, as provider/model")
	rootCmd.AddCommand(withTracing(initCmd))
}

func getInitConfigFromFlags(cmd *cobra.Command) *InitConfig {
	config := NewInitConfig()
	if platforms, err := cmd.Flags().GetStringSlice("platforms"); err == nil {
		config.Platforms = platforms
	}
	if scope, err := cmd.Flags().GetString("default-scope"); err == nil {
		config.DefaultScope = scope
	}
	if env, err := cmd.Flags().GetString("api-key-env"); err == nil {
		config.APIKeyEnv = env
	}
	if ed, err := cmd.Flags().GetString("editor"); err == nil {
		config.Editor = ed
	}
	if model, err := cmd.Flags().GetString("model"); err == nil {
		config.Model = model
	}
	return config
}

func runInit(a *app, ic *InitConfig) error {
	ui := a.ui

	ui.Section("Agent platforms")
	var found []string
	for _, p := range config.Platforms(a.env.UserHome) {
		status := "not found"
		if info, err := os.Stat(p.Dir); err == nil && info.IsDir() {
			status = "found"
			found = append(found, p.Name)
		}
		ui.Info(fmt.Sprintf("  %-12s %s (%s)", p.Name, p.Dir, status))
	}

	detected := llm.DetectKeys(os.Getenv)
	ui.Section("LLM API keys")
	if len(detected) == 0 {
		ui.Info("  none found, AI merge will be disabled")
	}
	for _, k := range detected {
		ui.Info(fmt.Sprintf("  %-18s %s", k.EnvVar, k.Label))
	}

	cfg := a.cfg
	var err error

	if cfg.Platforms, err = choosePlatforms(ui, ic.Platforms, defaultPlatforms(a.cfg.Platforms, found)); err != nil {
		return err
	}
	if cfg.DefaultScope, err = chooseDefaultScope(ui, ic.DefaultScope); err != nil {
		return err
	}

	key, err := chooseAPIKey(ui, ic.APIKeyEnv, detected)
	if err != nil {
		return err
	}
	cfg.LLMAPIKeyEnv = ""
	if key != nil {
		cfg.LLMAPIKeyEnv = key.EnvVar
		ui.Info(fmt.Sprintf("AI merge will use %s (%s)", key.EnvVar, key.Label))
	}

	if cfg.Editor, err = chooseEditor(ui, ic.Editor, editor.DefaultResolver.Suggestions()); err != nil {
		return err
	}

	model := ic.Model
	if model == "" {
		model, err = ui.Ask("AI model for semantic merge", llm.ResolveModel(a.cfg.Model, "", key))
		if err != nil {
			return err
		}
	}
	cfg.Model = strings.TrimSpace(model)

	if err := config.Save(a.paths.ConfigFile, cfg); err != nil {
		return err
	}

	ui.Section("Configuration")
	ui.Info(fmt.Sprintf("  platforms:       %s", strings.Join(cfg.Platforms, ", ")))
	ui.Info(fmt.Sprintf("  default scope:   %s", cfg.DefaultScope))
	ui.Info(fmt.Sprintf("  editor:          %s", cfg.Editor))
	ui.Info(fmt.Sprintf("  model:           %s", cfg.Model))
	ui.Info(fmt.Sprintf("  llm_api_key_env: %s", cfg.LLMAPIKeyEnv))
	ui.Success(fmt.Sprintf("Config saved to %s", a.paths.ConfigFile))
	return nil
}

// defaultPlatforms preselects the configured platforms, or the ones found on
// this machine on first run.
func defaultPlatforms(configured, found []string) []string {
	if len(configured) > 0 {
		return configured
	}
	return found
}

func choosePlatforms(ui presenter.Prompter, given, preselected []string) ([]string, error) {
	known := config.PlatformNames()
	platforms := given
	if len(platforms) == 0 {
		var err error
		platforms, err = ui.MultiChoose("Which platforms do you use?", known, preselected)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range platforms {
		if !contains(known, p) {
			return nil, errors.Errorf("unknown platform %q (want one of %s)", p, strings.Join(known, ", "))
		}
	}
	if len(platforms) == 0 {
		return nil, errors.New("select at least one platform")
	}
	return platforms, nil
}

func chooseDefaultScope(ui presenter.Prompter, given string) (string, error) {
	if given == "" {
		return ui.Choose("Default scope for skill storage", []string{string(config.ScopeGlobal), string(config.ScopeProject)})
	}
	scope, err := config.ParseScope(given)
	if err != nil {
		return "", err
	}
	if scope == config.ScopeAuto {
		return "", errors.New("default scope must be global or project")
	}
	return string(scope), nil
}

func chooseAPIKey(ui presenter.Prompter, given string, detected []llm.APIKey) (*llm.APIKey, error) {
	if given != "" {
		key, ok := llm.KeyForEnv(given)
		if !ok {
			return nil, errors.Errorf("unsupported API key variable %q", given)
		}
		return &key, nil
	}

	switch len(detected) {
	case 0:
		return nil, nil
	case 1:
		return &detected[0], nil
	}

	labels := make([]string, 0, len(detected))
	for _, k := range detected {
		labels = append(labels, fmt.Sprintf("%s (%s)", k.Label, k.EnvVar))
	}
	picked, err := ui.Choose("Multiple LLM keys found. Which key should AI merge use?", labels)
	if err != nil {
		return nil, err
	}
	for i, l := range labels {
		if l == picked {
			return &detected[i], nil
		}
	}
	return nil, errors.Errorf("unknown key %q", picked)
}

func chooseEditor(ui presenter.Prompter, given string, suggestions []editor.Known) (string, error) {
	if given != "" {
		return editor.Normalize(given), nil
	}

	fallback := strings.TrimSpace(os.Getenv("EDITOR"))
	if fallback == "" {
		fallback = "vim"
	}
	if len(suggestions) == 0 {
		answer, err := ui.Ask("Preferred editor", fallback)
		return editor.Normalize(answer), err
	}

	labels := make([]string, 0, len(suggestions)+1)
	for _, s := range suggestions {
		labels = append(labels, fmt.Sprintf("%s (%s)", s.Label, s.Commands[0]))
	}
	labels = append(labels, customEditorChoice)

	picked, err := ui.Choose("Preferred editor", labels)
	if err != nil {
		return "", err
	}
	for i, l := range labels[:len(suggestions)] {
		if l == picked {
			return suggestions[i].Commands[0], nil
		}
	}
	answer, err := ui.Ask("Preferred editor", fallback)
	return editor.Normalize(answer), err
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
