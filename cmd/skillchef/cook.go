package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/config"
	"github.com/jingkaihe/skillchef/pkg/journal"
	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/remote"
	"github.com/jingkaihe/skillchef/pkg/skills"
	"github.com/jingkaihe/skillchef/pkg/store"
)

// outcomeCooked is the journal outcome of a cook.
const outcomeCooked = "cooked"

// CookConfig holds the configuration for the cook command
type CookConfig struct {
	Name           string
	Platforms      []string
	ForceOverwrite bool
}

// NewCookConfig creates a CookConfig with default values
func NewCookConfig() *CookConfig {
	return &CookConfig{
		Name:           "",
		Platforms:      nil,
		ForceOverwrite: false,
	}
}

var cookCmd = &cobra.Command{
	Use:   "cook <source>",
	Short: "Fetch a skill and install it",
	Long: `Fetch a skill and link it into your agent platforms. The source can be:

  - A local SKILL.md file or a directory containing one or more skills
  - A GitHub URL: https://github.com/<owner>/<repo>/tree/<ref>/<skill-dir>
    or https://github.com/<owner>/<repo>/blob/<ref>/<path>/SKILL.md
  - A direct HTTP(S) URL of a markdown file

Examples:
  skillchef cook ./skills/release-notes
  skillchef cook https://github.com/acme/skills/tree/main/release-notes --name release
  skillchef cook https://example.com/SKILL.md --platforms codex --force-overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCook(cmd.Context(), current, args[0], getCookConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewCookConfig()
	cookCmd.Flags().String("name", defaults.Name, "Skill name (defaults to the frontmatter name)")
	cookCmd.Flags().StringSlice("platforms", defaults.Platforms, "Platforms to link the skill into (defaults to a prompt)")
	cookCmd.Flags().Bool("force-overwrite", defaults.ForceOverwrite, "Replace an existing skill with the same name without asking")
	rootCmd.AddCommand(withTracing(cookCmd))
}

func getCookConfigFromFlags(cmd *cobra.Command) *CookConfig {
	config := NewCookConfig()
	if name, err := cmd.Flags().GetString("name"); err == nil {
		config.Name = name
	}
	if platforms, err := cmd.Flags().GetStringSlice("platforms"); err == nil {
		config.Platforms = platforms
	}
	if force, err := cmd.Flags().GetBool("force-overwrite"); err == nil {
		config.ForceOverwrite = force
	}
	return config
}

func runCook(ctx context.Context, a *app, source string, cc *CookConfig) error {
	if err := a.requireConfig(); err != nil {
		return err
	}
	ui := a.ui

	kind, err := remote.Classify(source)
	if err != nil {
		return errors.Wrap(err, "invalid source")
	}
	if kind == remote.KindLocal {
		if source, err = resolveLocalSource(a, source); err != nil {
			return errors.Wrap(err, "invalid source")
		}
	}

	ui.Info(fmt.Sprintf("Fetching from %s...", source))
	client := a.fetcher(ctx)
	fetched, err := client.Fetch(ctx, source)
	if err != nil {
		return errors.Wrap(err, "failed to fetch")
	}
	defer func() {
		if err := fetched.Cleanup(); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to remove scratch directory")
		}
	}()

	content, err := os.ReadFile(filepath.Join(fetched.Dir, skills.FileName))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to read fetched skill")
	}
	if os.IsNotExist(err) {
		ui.Warning(fmt.Sprintf("%s has no %s", source, skills.FileName))
	}

	name := cc.Name
	if name == "" {
		name, err = ui.Ask("Skill name", skills.DefaultName(string(content), fallbackName(source)))
		if err != nil {
			return err
		}
	}
	name = strings.TrimSpace(name)
	if err := store.ValidateName(name); err != nil {
		return err
	}

	if a.store.Exists(name) && !cc.ForceOverwrite {
		ok, err := ui.Confirm(fmt.Sprintf("Skill %s already exists. Overwrite it and its flavor?", name), false)
		if err != nil {
			return err
		}
		if !ok {
			ui.Info("Cook cancelled")
			return nil
		}
	}

	platforms := cc.Platforms
	if len(platforms) == 0 {
		platforms, err = ui.MultiChoose("Target platforms", a.cfg.Platforms, a.cfg.Platforms)
		if err != nil {
			return err
		}
	}

	remoteURL := source
	if kind == remote.KindLocal {
		if remoteURL, err = filepath.Abs(source); err != nil {
			return errors.Wrapf(err, "failed to resolve %s", source)
		}
	}

	meta, err := a.store.Cook(store.CookRequest{
		Name:       name,
		FetchedDir: fetched.Dir,
		RemoteURL:  remoteURL,
		RemoteType: string(kind),
		Platforms:  platforms,
		Source:     client.SourceMetadata(ctx, source, kind),
	})
	if err != nil {
		return err
	}
	logger.G(ctx).WithField("skill", name).WithField("base_sha256", meta.BaseSHA256).Info("cooked skill")

	recordCook(ctx, a, meta)

	ui.Success(fmt.Sprintf("Cooked %s!", name))
	dirs := config.PlatformDirs(a.env.UserHome)
	for _, p := range platforms {
		ui.Info(fmt.Sprintf("  Symlinked -> %s", filepath.Join(dirs[p], name)))
	}
	return nil
}

// resolveLocalSource narrows a local source to a single skill directory,
// asking when it holds several SKILL.md files.
func resolveLocalSource(a *app, source string) (string, error) {
	candidates, err := skills.LocalCandidates(source)
	if err != nil {
		return "", err
	}
	switch len(candidates) {
	case 0:
		return "", errors.Errorf("no %s files found in %s", skills.FileName, source)
	case 1:
		return filepath.Dir(candidates[0]), nil
	}

	labels := skills.CandidateLabels(source, candidates)
	picked, err := a.ui.Choose("Multiple local skills found. Which one should be cooked?", labels)
	if err != nil {
		return "", err
	}
	for i, l := range labels {
		if l == picked {
			return filepath.Dir(candidates[i]), nil
		}
	}
	return "", errors.Errorf("unknown skill %q", picked)
}

// fallbackName derives a skill name from its source when the document has
// no frontmatter name: the directory holding SKILL.md, or the file name
// without its extension.
func fallbackName(source string) string {
	p := source
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	}
	p = strings.TrimRight(filepath.ToSlash(p), "/")

	base := path.Base(p)
	if strings.EqualFold(base, skills.FileName) {
		base = path.Base(path.Dir(p))
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		return "skill"
	}
	return base
}

func recordCook(ctx context.Context, a *app, meta *store.Meta) {
	j, err := a.openJournal(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to open sync journal")
		return
	}
	defer j.Close()

	err = j.Record(ctx, journal.Event{
		RunID:     journal.NewRunID(),
		Skill:     meta.Name,
		Outcome:   outcomeCooked,
		NewSHA256: meta.BaseSHA256,
	})
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to record cook")
	}
}
