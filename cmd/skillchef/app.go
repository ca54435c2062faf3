package main

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillchef/pkg/config"
	"github.com/jingkaihe/skillchef/pkg/editor"
	"github.com/jingkaihe/skillchef/pkg/journal"
	"github.com/jingkaihe/skillchef/pkg/logger"
	"github.com/jingkaihe/skillchef/pkg/presenter"
	"github.com/jingkaihe/skillchef/pkg/remote"
	"github.com/jingkaihe/skillchef/pkg/store"
	"github.com/jingkaihe/skillchef/pkg/telemetry"
)

const (
	logFileName = "skillchef.log"
	// skipSetup marks commands that run without a resolved scope.
	skipSetup = "skillchef.skip-setup"
)

// app is the resolved environment a command runs in.
type app struct {
	env   config.Environment
	paths config.Paths
	cfg   config.Config
	store *store.Store
	ui    presenter.Presenter
}

var (
	current    *app
	finalizers []func()
)

func setup(cmd *cobra.Command) error {
	if cmd.Annotations[skipSetup] == "true" {
		return nil
	}

	rc := getRootConfigFromFlags(cmd)
	scope, err := config.ParseScope(rc.Scope)
	if err != nil {
		return err
	}
	env, err := config.CurrentEnvironment()
	if err != nil {
		return err
	}
	paths, err := env.Resolve(scope)
	if err != nil {
		return err
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return err
	}

	logFile := rc.LogFile
	if logFile == "" {
		logFile = filepath.Join(paths.LogDir, logFileName)
	}
	closer, err := logger.Configure(logger.Options{
		Level:  rc.LogLevel,
		Format: rc.LogFormat,
		File:   logFile,
	})
	if err != nil {
		return err
	}
	finalizers = append(finalizers, func() { closer.Close() })

	ctx := logger.WithFields(cmd.Context(), logrus.Fields{
		"command": cmd.Name(),
		"scope":   string(paths.Scope),
	})

	shutdown, err := telemetry.InitTracer(ctx, telemetry.FromSettings(cfg.Telemetry))
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to initialize tracing")
	} else {
		finalizers = append(finalizers, func() {
			if err := shutdown(context.Background()); err != nil {
				logger.G(ctx).WithError(err).Warn("failed to shut down tracing")
			}
		})
	}
	cmd.SetContext(ctx)

	current = &app{
		env:   env,
		paths: paths,
		cfg:   cfg,
		store: store.New(paths.StoreDir, store.WithPlatformDirs(config.PlatformDirs(env.UserHome))),
		ui:    presenter.Default(),
	}
	logger.G(ctx).WithField("home", paths.Home).Debug("resolved skillchef home")
	return nil
}

func teardown() {
	for i := len(finalizers) - 1; i >= 0; i-- {
		finalizers[i]()
	}
	finalizers = nil
}

// requireConfig fails when init has not been run for the resolved scope.
func (a *app) requireConfig() error {
	if !a.cfg.Configured() {
		return errors.Errorf("no config found for the %s scope, run 'skillchef init --scope %s' first", a.paths.Scope, a.paths.Scope)
	}
	return nil
}

// pickSkill returns the metadata of name, or asks for a skill when name is empty.
func (a *app) pickSkill(name, title string) (*store.Meta, error) {
	if name != "" {
		meta, err := a.store.LoadMeta(name)
		if err != nil {
			return nil, errors.Wrapf(err, "skill %q not found", name)
		}
		return meta, nil
	}

	metas, err := a.store.List()
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, errors.New("no skills cooked yet, run 'skillchef cook <source>' first")
	}

	names := make([]string, 0, len(metas))
	for _, m := range metas {
		names = append(names, m.Name)
	}
	picked, err := a.ui.Choose(title, names)
	if err != nil {
		return nil, err
	}
	for _, m := range metas {
		if m.Name == picked {
			return m, nil
		}
	}
	return nil, errors.Errorf("skill %q not found", picked)
}

// editor resolves the configured editor.
func (a *app) editor() (editor.Editor, error) {
	ed, err := editor.DefaultResolver.Resolve(a.cfg.EditorCommand())
	if err != nil {
		return editor.Editor{}, errors.Wrap(err, "editor command not found, re-run 'skillchef init' and pick an installed editor")
	}
	return ed, nil
}

// fetcher creates the remote client, authenticated with GITHUB_TOKEN when set.
func (a *app) fetcher(ctx context.Context) *remote.Client {
	var opts []remote.Option
	if token := remote.TokenFromEnv(); token != "" {
		opts = append(opts, remote.WithGitHubToken(ctx, token))
	}
	return remote.NewClient(opts...)
}

// openJournal opens the sync journal of the resolved scope.
func (a *app) openJournal(ctx context.Context) (*journal.Journal, error) {
	return journal.Open(ctx, a.paths.Journal)
}
