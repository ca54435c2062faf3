package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillchef/pkg/config"
	"github.com/jingkaihe/skillchef/pkg/presenter"
	"github.com/jingkaihe/skillchef/pkg/store"
)

func newTestApp(t *testing.T, ui *presenter.Scripted) *app {
	t.Helper()
	home := t.TempDir()
	paths := config.Paths{
		Scope:      config.ScopeGlobal,
		Home:       home,
		ConfigFile: filepath.Join(home, "config.toml"),
		StoreDir:   filepath.Join(home, "store"),
		LogDir:     filepath.Join(home, "logs"),
		Journal:    filepath.Join(home, "skillchef.db"),
	}
	return &app{
		env:   config.Environment{UserHome: home, Cwd: home},
		paths: paths,
		cfg:   config.Default(),
		store: store.New(paths.StoreDir),
		ui:    ui,
	}
}

func cookTestSkill(t *testing.T, a *app, name, content string) *store.Meta {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "SKILL.md"), []byte(content), 0o644))
	meta, err := a.store.Cook(store.CookRequest{
		Name:       name,
		FetchedDir: src,
		RemoteURL:  src,
		RemoteType: store.RemoteLocal,
	})
	require.NoError(t, err)
	return meta
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd, out
}
