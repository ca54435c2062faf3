package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/diff"
	"github.com/jingkaihe/skillchef/pkg/editor"
	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/store"
)

const flavorRebuildDebounce = 300 * time.Millisecond

var flavorCmd = &cobra.Command{
	Use:   "flavor [skill]",
	Short: "Edit the local flavor of a skill",
	Long: `Open the flavor file of a skill in your editor. The flavor is appended to the
upstream skill as a "## Local Flavor" section and survives upstream syncs.
The live skill is rebuilt every time the flavor file is saved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return runFlavor(cmd.Context(), current, name)
	},
}

func init() {
	rootCmd.AddCommand(withTracing(flavorCmd))
}

func runFlavor(ctx context.Context, a *app, name string) error {
	if err := a.requireConfig(); err != nil {
		return err
	}
	ui := a.ui

	meta, err := a.pickSkill(name, "Which skill?")
	if err != nil {
		return err
	}
	name = meta.Name

	ed, err := a.editor()
	if err != nil {
		return err
	}

	flavorPath := a.store.FlavorPath(name)
	if !a.store.HasFlavor(name) {
		if err := a.store.WriteFlavor(name, ""); err != nil {
			return err
		}
	}

	before, err := a.store.LiveSkillText(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := editFlavor(ctx, a.store, ed, name, flavorPath); err != nil {
		return err
	}
	if err := a.store.RebuildLive(name); err != nil {
		return err
	}

	after, err := a.store.LiveSkillText(name)
	if err != nil {
		return err
	}
	ui.ShowDiff(fmt.Sprintf("%s/live/SKILL.md", name), diff.DiffTexts(before, after, "before", "after"))
	ui.Success(fmt.Sprintf("Flavor saved for %s", name))
	return nil
}

// editFlavor opens the flavor file and rebuilds the live skill on every save
// until the editor exits.
func editFlavor(ctx context.Context, st *store.Store, ed editor.Editor, name, flavorPath string) error {
	log := logger.G(ctx).WithField("skill", name)

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := editor.WatchFile(watchCtx, flavorPath, flavorRebuildDebounce, func() {
			if err := st.RebuildLive(name); err != nil {
				log.WithError(err).Warn("failed to rebuild live skill")
				return
			}
			log.Debug("rebuilt live skill")
		})
		if err != nil {
			log.WithError(err).Warn("flavor file is not watched")
		}
	}()

	err := ed.Open(ctx, flavorPath)
	cancel()
	<-done
	return err
}
