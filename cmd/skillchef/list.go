package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/store"
)

type skillSummary struct {
	store.Meta `yaml:",inline"`
	Flavored   bool `json:"flavored" yaml:"flavored"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cooked skills",
	Long:  `List cooked skills with their source, flavor status, platforms and last sync time.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		return runList(cmd, current, format)
	},
}

func init() {
	listCmd.Flags().String("format", formatTable, "Output format (table, json, yaml)")
	rootCmd.AddCommand(withTracing(listCmd))
}

func runList(cmd *cobra.Command, a *app, format string) error {
	if err := validateFormat(format, formatTable, formatJSON, formatYAML); err != nil {
		return err
	}

	metas, err := a.store.List()
	if err != nil {
		return err
	}

	summaries := make([]skillSummary, 0, len(metas))
	for _, m := range metas {
		summaries = append(summaries, skillSummary{Meta: *m, Flavored: a.store.HasFlavor(m.Name)})
	}

	out := cmd.OutOrStdout()
	if format != formatTable {
		return writeStructured(out, format, summaries)
	}

	if len(summaries) == 0 {
		a.ui.Info("No skills cooked yet. Run 'skillchef cook <source>' to add one.")
		return nil
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Name", "Source", "Type", "Flavor", "Platforms", "Last sync"},
		skillRows(summaries),
	))
	return nil
}

func skillRows(summaries []skillSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		flavor := "-"
		if s.Flavored {
			flavor = "yes"
		}
		rows = append(rows, []string{
			s.Name,
			s.RemoteURL,
			s.RemoteType,
			flavor,
			strings.Join(s.Platforms, ", "),
			formatTime(s.LastSyncTime()),
		})
	}
	return rows
}
