package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/journal"
)

// HistoryConfig holds the configuration for the history command
type HistoryConfig struct {
	RunID  string
	Limit  int
	Format string
}

// NewHistoryConfig creates a HistoryConfig with default values
func NewHistoryConfig() *HistoryConfig {
	return &HistoryConfig{
		RunID:  "",
		Limit:  20,
		Format: formatTable,
	}
}

var historyCmd = &cobra.Command{
	Use:   "history [skill]",
	Short: "Show past syncs",
	Long:  `Show recorded cook and sync outcomes, newest first, optionally for a single skill or run.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := journal.Filter{}
		if len(args) > 0 {
			filter.Skill = args[0]
		}
		return runHistory(cmd, current, filter, getHistoryConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewHistoryConfig()
	historyCmd.Flags().String("run", defaults.RunID, "Only show the outcomes of this run")
	historyCmd.Flags().Int("limit", defaults.Limit, "Maximum number of entries, 0 for all")
	historyCmd.Flags().String("format", defaults.Format, "Output format (table, json, yaml)")
	rootCmd.AddCommand(withTracing(historyCmd))
}

func getHistoryConfigFromFlags(cmd *cobra.Command) *HistoryConfig {
	config := NewHistoryConfig()
	if run, err := cmd.Flags().GetString("run"); err == nil {
		config.RunID = run
	}
	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		config.Limit = limit
	}
	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}
	return config
}

func runHistory(cmd *cobra.Command, a *app, filter journal.Filter, hc *HistoryConfig) error {
	if err := validateFormat(hc.Format, formatTable, formatJSON, formatYAML); err != nil {
		return err
	}

	ctx := cmd.Context()
	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	filter.RunID = hc.RunID
	filter.Limit = hc.Limit
	events, err := j.List(ctx, filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if hc.Format != formatTable {
		if events == nil {
			events = []journal.Event{}
		}
		return writeStructured(out, hc.Format, events)
	}
	if len(events) == 0 {
		a.ui.Info("No syncs recorded yet.")
		return nil
	}
	fmt.Fprintln(out, renderTable(
		[]string{"When", "Skill", "Outcome", "Branch", "Base", "Run"},
		historyRows(events),
	))
	return nil
}

func historyRows(events []journal.Event) [][]string {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		base := shortSHA(e.OldSHA256)
		if e.NewSHA256 != "" {
			base = fmt.Sprintf("%s -> %s", base, shortSHA(e.NewSHA256))
		}
		outcome := e.Outcome
		if e.Model != "" {
			outcome = fmt.Sprintf("%s (%s)", outcome, e.Model)
		}
		rows = append(rows, []string{
			formatTime(e.CreatedAt),
			e.Skill,
			outcome,
			e.Branch,
			base,
			shortSHA(e.RunID),
		})
	}
	return rows
}
