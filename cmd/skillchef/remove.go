package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/logger"
)

var removeCmd = &cobra.Command{
	Use:   "remove <skill>",
	Short: "Remove a cooked skill",
	Long: `Remove a cooked skill: unlink it from its platforms, delete its snapshots and
flavor, and forget its sync history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return runRemove(cmd.Context(), current, args[0], yes)
	},
}

func init() {
	removeCmd.Flags().BoolP("yes", "y", false, "Remove without asking for confirmation")
	rootCmd.AddCommand(withTracing(removeCmd))
}

func runRemove(ctx context.Context, a *app, name string, yes bool) error {
	if !a.store.Exists(name) {
		return errors.Errorf("skill %q not found", name)
	}

	if !yes {
		ok, err := a.ui.Confirm(fmt.Sprintf("Remove %s?", name), false)
		if err != nil {
			return err
		}
		if !ok {
			a.ui.Info("Nothing removed")
			return nil
		}
	}

	if err := a.store.Remove(name); err != nil {
		return err
	}

	if j, err := a.openJournal(ctx); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to open sync journal")
	} else {
		if err := j.Forget(ctx, name); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to forget sync history")
		}
		j.Close()
	}

	a.ui.Success(fmt.Sprintf("Removed %s", name))
	return nil
}
