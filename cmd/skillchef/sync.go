package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/llm"
	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/reconcile"
	"github.com/jingkaihe/skillchef/pkg/store"
)

// SyncConfig holds the configuration for the sync command
type SyncConfig struct {
	NoAI   bool
	Model  string
	DryRun bool
}

// NewSyncConfig creates a SyncConfig with default values
func NewSyncConfig() *SyncConfig {
	return &SyncConfig{
		NoAI:   false,
		Model:  "",
		DryRun: false,
	}
}

var syncCmd = &cobra.Command{
	Use:   "sync [skill-or-pattern]",
	Short: "Pull upstream updates into cooked skills",
	Long: `Fetch the source of every cooked skill, or of the skills matching a name or
glob pattern, and merge upstream changes with your flavor.

Skills without a flavor are updated after confirmation. Flavored skills are
rebased on the new upstream; when the live skill was edited by hand you choose
between an AI merge proposal, re-applying the flavor, keeping the current
version, or editing by hand. Press esc while waiting for the AI to continue
without a proposal.

Examples:
  skillchef sync
  skillchef sync release-notes
  skillchef sync 'team-*' --no-ai
  skillchef sync --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) > 0 {
			pattern = args[0]
		}
		return runSync(cmd.Context(), current, pattern, getSyncConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewSyncConfig()
	syncCmd.Flags().Bool("no-ai", defaults.NoAI, "Disable AI merge proposals")
	syncCmd.Flags().String("model", defaults.Model, "AI model for this run, as provider/model (overrides config)")
	syncCmd.Flags().Bool("dry-run", defaults.DryRun, "Show what would change without prompting or writing")
	rootCmd.AddCommand(withTracing(syncCmd))
}

func getSyncConfigFromFlags(cmd *cobra.Command) *SyncConfig {
	config := NewSyncConfig()
	if noAI, err := cmd.Flags().GetBool("no-ai"); err == nil {
		config.NoAI = noAI
	}
	if model, err := cmd.Flags().GetString("model"); err == nil {
		config.Model = model
	}
	if dryRun, err := cmd.Flags().GetBool("dry-run"); err == nil {
		config.DryRun = dryRun
	}
	return config
}

// hasGlobMeta reports whether pattern uses glob syntax.
func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// matchSkills returns the skills whose name matches pattern, keeping their
// order. An empty pattern matches every skill.
func matchSkills(metas []*store.Meta, pattern string) ([]*store.Meta, error) {
	if pattern == "" {
		return metas, nil
	}

	if !hasGlobMeta(pattern) {
		for _, m := range metas {
			if m.Name == pattern {
				return []*store.Meta{m}, nil
			}
		}
		return nil, errors.Errorf("skill %q not found", pattern)
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
	}
	var matched []*store.Meta
	for _, m := range metas {
		if g.Match(m.Name) {
			matched = append(matched, m)
		}
	}
	if len(matched) == 0 {
		return nil, errors.Errorf("no skills match %q", pattern)
	}
	return matched, nil
}

// newMerger returns the AI merger, or nil when AI merge is unavailable.
func newMerger(ctx context.Context, a *app, sc *SyncConfig) (llm.Merger, string) {
	if sc.NoAI {
		return nil, ""
	}

	m, err := llm.NewMerger(ctx, llm.Settings{
		Model:        a.cfg.Model,
		Override:     sc.Model,
		PreferredKey: a.cfg.LLMAPIKeyEnv,
	})
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
		a.ui.Info("No LLM API key found, AI merge is disabled")
		return nil, ""
	case err != nil:
		logger.G(ctx).WithError(err).Warn("failed to create AI merger")
		a.ui.Warning(fmt.Sprintf("AI merge is disabled: %v", err))
		return nil, ""
	}

	a.ui.Info(fmt.Sprintf("Using %s for semantic merge", m.Model()))
	return m, m.Model()
}

func runSync(ctx context.Context, a *app, pattern string, sc *SyncConfig) error {
	if err := a.requireConfig(); err != nil {
		return err
	}
	ui := a.ui

	metas, err := a.store.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		ui.Info("No skills to sync.")
		return nil
	}
	if metas, err = matchSkills(metas, pattern); err != nil {
		return err
	}

	client := a.fetcher(ctx)
	if sc.DryRun {
		return previewSync(ctx, a, reconcile.New(a.store, client, nil, ui, nil), metas)
	}

	merger, model := newMerger(ctx, a, sc)
	opts := []reconcile.Option{reconcile.WithModel(model)}

	j, err := a.openJournal(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("sync journal unavailable")
	} else {
		defer j.Close()
		opts = append(opts, reconcile.WithJournal(j))
	}

	var ed reconcile.Editor
	if resolved, err := a.editor(); err != nil {
		logger.G(ctx).WithError(err).Debug("no editor for manual merges")
	} else {
		ed = resolved
	}

	r := reconcile.New(a.store, client, merger, ui, ed, opts...)
	logger.G(ctx).WithField("run_id", r.RunID()).WithField("skills", len(metas)).Info("starting sync")

	report, err := r.SyncAll(ctx, metas)
	ui.Separator()
	ui.Info(report.Summary())
	if err != nil {
		logger.G(ctx).WithError(err).Error("sync finished with errors")
		return errors.Errorf("%d of %d skills failed to sync", report.Count(reconcile.OutcomeFailed), len(report.Results))
	}
	return nil
}

func previewSync(ctx context.Context, a *app, r *reconcile.Reconciler, metas []*store.Meta) error {
	failed := 0
	for _, meta := range metas {
		p, err := r.Preview(ctx, meta)
		switch {
		case err != nil:
			failed++
			a.ui.Error(err, meta.Name)
		case !p.Changed:
			a.ui.Info(fmt.Sprintf("  %s: %s", meta.Name, p.Outcome))
		default:
			a.ui.Info(fmt.Sprintf("  %s: %s, %s", meta.Name, p.Branch, p.Summary))
			a.ui.ShowDiff("", p.Upstream)
		}
	}
	if failed > 0 {
		return errors.Errorf("%d skills could not be previewed", failed)
	}
	return nil
}
