// Package config loads skillchef settings and resolves where a scope keeps
// its configuration, store, logs, and journal.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override file settings.
const EnvPrefix = "SKILLCHEF"

// DefaultModel is the AI model used when none is configured.
const DefaultModel = "anthropic/claude-sonnet-4-5"

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled" toml:"enabled" json:"enabled" yaml:"enabled"`
	Sampler      string  `mapstructure:"sampler" toml:"sampler" json:"sampler" yaml:"sampler"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" json:"sampler_ratio" yaml:"sampler_ratio"`
}

// Config holds the settings of one scope.
type Config struct {
	Platforms    []string        `mapstructure:"platforms" toml:"platforms" json:"platforms" yaml:"platforms"`
	Editor       string          `mapstructure:"editor" toml:"editor" json:"editor" yaml:"editor"`
	Model        string          `mapstructure:"model" toml:"model" json:"model" yaml:"model"`
	LLMAPIKeyEnv string          `mapstructure:"llm_api_key_env" toml:"llm_api_key_env" json:"llm_api_key_env" yaml:"llm_api_key_env"`
	DefaultScope string          `mapstructure:"default_scope" toml:"default_scope" json:"default_scope" yaml:"default_scope"`
	Telemetry    TelemetryConfig `mapstructure:"telemetry" toml:"telemetry" json:"telemetry" yaml:"telemetry"`
}

// Default returns the configuration used before any file or environment
// settings are applied.
func Default() Config {
	return Config{
		Platforms:    []string{},
		Model:        DefaultModel,
		DefaultScope: string(ScopeGlobal),
		Telemetry: TelemetryConfig{
			Sampler:      "ratio",
			SamplerRatio: 1.0,
		},
	}
}

var envKeys = []string{
	"platforms",
	"editor",
	"model",
	"llm_api_key_env",
	"default_scope",
	"telemetry.enabled",
	"telemetry.sampler",
	"telemetry.sampler_ratio",
}

// Load reads the config file at path and applies SKILLCHEF_* environment
// overrides on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return Default(), errors.Wrapf(err, "failed to bind %s", key)
		}
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Default(), errors.Wrapf(err, "failed to read config %s", path)
		}
	} else if !os.IsNotExist(err) {
		return Default(), errors.Wrapf(err, "failed to stat config %s", path)
	}

	cfg := Default()
	if err := overlay(&cfg, v.AllSettings()); err != nil {
		return Default(), err
	}
	cfg.normalize()
	return cfg, nil
}

func overlay(cfg *Config, settings map[string]interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ZeroFields:       false,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create config decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode configuration")
	}
	return nil
}

func (c *Config) normalize() {
	platforms := make([]string, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		if p = strings.TrimSpace(p); p != "" {
			platforms = append(platforms, p)
		}
	}
	c.Platforms = platforms
	c.Editor = strings.TrimSpace(c.Editor)
	c.Model = strings.TrimSpace(c.Model)
	c.LLMAPIKeyEnv = strings.TrimSpace(c.LLMAPIKeyEnv)
	c.DefaultScope = strings.ToLower(strings.TrimSpace(c.DefaultScope))
}

// Save writes cfg to path as TOML, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return errors.Wrapf(err, "failed to write config %s", path)
	}
	return nil
}

// Configured reports whether init has been run for this scope.
func (c Config) Configured() bool {
	return len(c.Platforms) > 0
}

// EditorCommand returns the configured editor, then $EDITOR, then vim.
func (c Config) EditorCommand() string {
	if c.Editor != "" {
		return c.Editor
	}
	if e := strings.TrimSpace(os.Getenv("EDITOR")); e != "" {
		return e
	}
	return "vim"
}
