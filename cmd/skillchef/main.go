package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/config"
	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/presenter"
)

// RootConfig holds the flags shared by every command
type RootConfig struct {
	Scope     string
	LogLevel  string
	LogFormat string
	LogFile   string
}

// NewRootConfig creates a RootConfig with default values
func NewRootConfig() *RootConfig {
	return &RootConfig{
		Scope:     string(config.ScopeAuto),
		LogLevel:  "info",
		LogFormat: "fmt",
		LogFile:   "",
	}
}

var rootCmd = &cobra.Command{
	Use:   "skillchef",
	Short: "Cook, flavor and sync agent skills",
	Long: `skillchef keeps local copies of agent skills (SKILL.md documents) fetched from
local paths, URLs or GitHub, lets you layer your own flavor on top, and syncs
upstream updates without losing it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func init() {
	defaults := NewRootConfig()
	rootCmd.PersistentFlags().String("scope", defaults.Scope, "Skill storage scope (auto, global, project)")
	rootCmd.PersistentFlags().String("log-level", defaults.LogLevel, "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", defaults.LogFormat, "Log format (json, fmt)")
	rootCmd.PersistentFlags().String("log-file", defaults.LogFile, "Log file, '-' for stderr (default <home>/logs/skillchef.log)")

	cobra.OnFinalize(teardown)
}

func getRootConfigFromFlags(cmd *cobra.Command) *RootConfig {
	config := NewRootConfig()
	flags := cmd.Flags()
	if scope, err := flags.GetString("scope"); err == nil {
		config.Scope = scope
	}
	if level, err := flags.GetString("log-level"); err == nil {
		config.LogLevel = level
	}
	if format, err := flags.GetString("log-format"); err == nil {
		config.LogFormat = format
	}
	if file, err := flags.GetString("log-file"); err == nil {
		config.LogFile = file
	}
	return config
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.G(ctx).WithError(err).Debug("command failed")
		presenter.Error(err, "")
		cancel()
		os.Exit(1)
	}
}
