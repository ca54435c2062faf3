package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version information",
	Long:        `Print the version information of skillchef, as JSON with --json.`,
	Annotations: map[string]string{skipSetup: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := version.Get()
		asJSON, _ := cmd.Flags().GetBool("json")
		if !asJSON {
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return nil
		}
		out, err := info.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Print the version information as JSON")
	rootCmd.AddCommand(versionCmd)
}
