package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/editor"
	"github.com/jingkaihe/skillchef/pkg/presenter"
	"github.com/jingkaihe/skillchef/pkg/skills"
	"github.com/jingkaihe/skillchef/pkg/store"
)

const (
	previewLines = 10
	previewChars = 500
)

// Actions offered after inspecting a skill
const (
	actionFullSkill   = "see full skill"
	actionFileManager = "open skill in file manager"
	actionEditor      = "open in editor"
	actionDone        = "done"
)

type skillDetails struct {
	store.Meta `yaml:",inline"`
	Flavored   bool             `json:"flavored" yaml:"flavored"`
	Flavor     string           `json:"flavor,omitempty" yaml:"flavor,omitempty"`
	LivePath   string           `json:"live_path" yaml:"live_path"`
	Outline    []skills.Heading `json:"outline" yaml:"outline"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [skill]",
	Short: "Show the details of a cooked skill",
	Long: `Show the metadata, outline and a preview of a cooked skill. In a terminal you
can then view the full skill or open it in your editor or file manager.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		format, _ := cmd.Flags().GetString("format")
		return runInspect(cmd, current, name, format)
	},
}

func init() {
	inspectCmd.Flags().String("format", formatText, "Output format (text, json, yaml)")
	rootCmd.AddCommand(withTracing(inspectCmd))
}

func runInspect(cmd *cobra.Command, a *app, name, format string) error {
	if err := validateFormat(format, formatText, formatJSON, formatYAML); err != nil {
		return err
	}

	meta, err := a.pickSkill(name, "Inspect skill")
	if err != nil {
		return err
	}

	details, live, err := loadDetails(a.store, meta)
	if err != nil {
		return err
	}
	if format != formatText {
		return writeStructured(cmd.OutOrStdout(), format, details)
	}

	showDetails(a.ui, details, live)
	if isInteractive() {
		return inspectActions(cmd.Context(), a, details)
	}
	return nil
}

func loadDetails(st *store.Store, meta *store.Meta) (skillDetails, string, error) {
	d := skillDetails{
		Meta:     *meta,
		Flavored: st.HasFlavor(meta.Name),
		LivePath: st.LiveSkillPath(meta.Name),
	}
	if d.Flavored {
		flavor, err := st.ReadFlavor(meta.Name)
		if err != nil {
			return d, "", err
		}
		d.Flavor = strings.TrimSpace(flavor)
	}

	live, err := st.LiveSkillText(meta.Name)
	if err != nil {
		return d, "", err
	}
	d.Outline = skills.Outline(live)
	return d, live, nil
}

func showDetails(ui presenter.Reporter, d skillDetails, live string) {
	ui.Section(d.Name)
	ui.Info(fmt.Sprintf("  source:     %s (%s)", d.RemoteURL, d.RemoteType))
	if d.Repo != "" {
		ui.Info(fmt.Sprintf("  repo:       %s %s", d.Repo, d.Path))
	}
	if d.RefRequested != "" {
		ui.Info(fmt.Sprintf("  ref:        %s -> %s", d.RefRequested, shortSHA(d.RefResolved)))
	}
	ui.Info(fmt.Sprintf("  base:       %s", shortSHA(d.BaseSHA256)))
	ui.Info(fmt.Sprintf("  last sync:  %s", formatTime(d.LastSyncTime())))
	ui.Info(fmt.Sprintf("  platforms:  %s", strings.Join(d.Platforms, ", ")))
	if d.Flavored && d.Flavor != "" {
		ui.Info("  flavored:   yes")
	} else {
		ui.Info("  flavored:   no")
	}

	if len(d.Outline) > 0 {
		ui.Section("Outline")
		for _, h := range d.Outline {
			ui.Info(fmt.Sprintf("  %s%s", strings.Repeat("  ", h.Level-1), h.Text))
		}
	}

	preview, truncated := skillPreview(live)
	ui.Section(fmt.Sprintf("%s/live/SKILL.md", d.Name))
	ui.Info(preview)
	if truncated {
		ui.Info(fmt.Sprintf("Showing a preview. Choose '%s' for the whole file.", actionFullSkill))
	}
}

// skillPreview returns at most previewLines lines and previewChars characters
// of text, and whether anything was cut.
func skillPreview(text string) (string, bool) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(text) <= previewChars && len(lines) <= previewLines {
		return text, false
	}

	if len(lines) > previewLines {
		lines = lines[:previewLines]
	}
	preview := strings.TrimRight(strings.Join(lines, "\n"), " \t\r\n")
	if len(preview) > previewChars {
		preview = strings.TrimRight(preview[:previewChars], " \t\r\n")
	}
	return preview + "\n\n... [truncated]", true
}

func inspectActions(ctx context.Context, a *app, d skillDetails) error {
	actions := []string{actionFullSkill, actionFileManager, actionEditor, actionDone}
	for {
		action, err := a.ui.Choose("Next action", actions)
		if errors.Is(err, presenter.ErrAborted) || action == actionDone {
			return nil
		}
		if err != nil {
			return err
		}

		switch action {
		case actionFullSkill:
			live, err := a.store.LiveSkillText(d.Name)
			if err != nil {
				a.ui.Warning(fmt.Sprintf("Could not read live SKILL.md for %s", d.Name))
				continue
			}
			a.ui.Section(fmt.Sprintf("%s/live/SKILL.md", d.Name))
			a.ui.Info(live)
		case actionFileManager:
			if err := editor.OpenFileManager(d.LivePath); err != nil {
				a.ui.Error(err, "Could not open the file manager")
			}
		case actionEditor:
			ed, err := a.editor()
			if err != nil {
				a.ui.Error(err, "")
				continue
			}
			if err := ed.Open(ctx, d.LivePath); err != nil {
				a.ui.Error(err, "")
			}
		}
	}
}
