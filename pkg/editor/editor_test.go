package editor

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeResolver(onPath map[string]string, files ...string) Resolver {
	existing := map[string]bool{}
	for _, f := range files {
		existing[f] = true
	}
	return Resolver{
		LookPath: func(name string) (string, error) {
			if p, ok := onPath[name]; ok {
				return p, nil
			}
			return "", errors.New("not found")
		},
		Exists: func(path string) bool { return existing[path] },
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"vscode":             "code",
		"Visual Studio Code": "code",
		"neovim":             "nvim",
		"sublime-text":       "subl",
		" vim ":              "vim",
		"emacs -nw":          "emacs -nw",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, Normalize(input), input)
	}
}

func TestResolve(t *testing.T) {
	r := fakeResolver(map[string]string{
		"vim":   "/usr/bin/vim",
		"code":  "/usr/local/bin/code",
		"emacs": "/usr/bin/emacs",
	}, appFallbacks["cursor"])

	t.Run("terminal editor", func(t *testing.T) {
		e, err := r.Resolve("vim")
		require.NoError(t, err)
		assert.Equal(t, Editor{Path: "/usr/bin/vim"}, e)
	})

	t.Run("alias gets wait flag", func(t *testing.T) {
		e, err := r.Resolve("vscode")
		require.NoError(t, err)
		assert.Equal(t, "/usr/local/bin/code", e.Path)
		assert.Equal(t, []string{"--wait"}, e.Args)
	})

	t.Run("existing wait flag kept once", func(t *testing.T) {
		e, err := r.Resolve("code --wait")
		require.NoError(t, err)
		assert.Equal(t, []string{"--wait"}, e.Args)
	})

	t.Run("arguments kept", func(t *testing.T) {
		e, err := r.Resolve("emacs -nw")
		require.NoError(t, err)
		assert.Equal(t, []string{"-nw"}, e.Args)
	})

	t.Run("application fallback", func(t *testing.T) {
		e, err := r.Resolve("cursor")
		require.NoError(t, err)
		assert.Equal(t, appFallbacks["cursor"], e.Path)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := r.Resolve("subl")
		assert.Error(t, err)

		_, err = r.Resolve("  ")
		assert.Error(t, err)
	})
}

func TestSuggestions(t *testing.T) {
	r := fakeResolver(map[string]string{
		"code-insiders": "/bin/code-insiders",
		"nano":          "/bin/nano",
	}, appFallbacks["subl"])

	var labels, commands []string
	for _, k := range r.Suggestions() {
		labels = append(labels, k.Label)
		commands = append(commands, k.Commands[0])
	}
	assert.Equal(t, []string{"VS Code", "Nano", "Sublime Text"}, labels)
	assert.Equal(t, []string{"code-insiders", "nano", "subl"}, commands)
}

func TestFileManagerCommand(t *testing.T) {
	name, args := FileManagerCommand("darwin", "/tmp/x")
	assert.Equal(t, "open", name)
	assert.Equal(t, []string{"-R", "/tmp/x"}, args)

	name, _ = FileManagerCommand("windows", "/tmp/x")
	assert.Equal(t, "explorer", name)

	name, args = FileManagerCommand("linux", "/tmp/x")
	assert.Equal(t, "xdg-open", name)
	assert.Equal(t, []string{"/tmp/x"}, args)
}

func TestCommand(t *testing.T) {
	e := Editor{Path: "/usr/bin/code", Args: []string{"--wait"}}
	cmd := e.Command(context.Background(), "/tmp/flavor.md")
	assert.Equal(t, []string{"/usr/bin/code", "--wait", "/tmp/flavor.md"}, cmd.Args)
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flavor.md")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchFile(ctx, path, 200*time.Millisecond, func() {
			atomic.AddInt32(&calls, 1)
			changed <- struct{}{}
		})
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.md"), []byte("x"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
