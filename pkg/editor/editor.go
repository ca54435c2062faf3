// Package editor resolves the user's editor and opens files and directories
// with it or with the platform file manager.
package editor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillchef/pkg/logger"
)

var aliases = map[string]string{
	"vscode":             "code",
	"visual-studio-code": "code",
	"visual studio code": "code",
	"neovim":             "nvim",
	"sublime":            "subl",
	"sublime-text":       "subl",
	"sublime text":       "subl",
}

var appFallbacks = map[string]string{
	"code":   "/Applications/Visual Studio Code.app/Contents/Resources/app/bin/code",
	"cursor": "/Applications/Cursor.app/Contents/Resources/app/bin/cursor",
	"subl":   "/Applications/Sublime Text.app/Contents/SharedSupport/bin/subl",
}

// GUI editors return immediately unless asked to wait for the file to close.
var waitFlags = map[string]string{
	"code":          "--wait",
	"code-insiders": "--wait",
	"cursor":        "--wait",
	"subl":          "--wait",
	"zed":           "--wait",
	"atom":          "--wait",
}

// Known is an editor skillchef can suggest during init.
type Known struct {
	Label    string
	Commands []string
}

// CommonEditors lists the editors offered during init, in display order.
var CommonEditors = []Known{
	{Label: "VS Code", Commands: []string{"code", "code-insiders"}},
	{Label: "Cursor", Commands: []string{"cursor"}},
	{Label: "Neovim", Commands: []string{"nvim"}},
	{Label: "Vim", Commands: []string{"vim"}},
	{Label: "Nano", Commands: []string{"nano"}},
	{Label: "Zed", Commands: []string{"zed"}},
	{Label: "Atom", Commands: []string{"atom"}},
	{Label: "Sublime Text", Commands: []string{"subl", "sublime_text"}},
}

// Resolver finds editor binaries.
type Resolver struct {
	LookPath func(string) (string, error)
	Exists   func(string) bool
}

// DefaultResolver searches PATH and the well-known application bundles.
var DefaultResolver = Resolver{
	LookPath: exec.LookPath,
	Exists: func(path string) bool {
		info, err := os.Stat(path)
		return err == nil && !info.IsDir()
	},
}

// Editor is a resolved editor command line.
type Editor struct {
	Path string
	Args []string
}

// Normalize maps editor aliases such as "vscode" to their command name.
func Normalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if alias, ok := aliases[strings.ToLower(trimmed)]; ok {
		return alias
	}
	return trimmed
}

// Resolve turns a configured editor, optionally with arguments, into an
// executable path.
func (r Resolver) Resolve(spec string) (Editor, error) {
	normalized := Normalize(spec)
	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return Editor{}, errors.New("no editor configured")
	}
	if _, ok := aliases[strings.ToLower(strings.TrimSpace(spec))]; ok {
		fields = []string{normalized}
	}

	name, args := fields[0], fields[1:]
	path, err := r.LookPath(name)
	if err != nil {
		fallback, ok := appFallbacks[filepath.Base(name)]
		if !ok || !r.Exists(fallback) {
			return Editor{}, errors.Errorf("editor %q not found in PATH", name)
		}
		path = fallback
	}

	if flag, ok := waitFlags[filepath.Base(name)]; ok && !contains(args, flag) {
		args = append(args, flag)
	}
	return Editor{Path: path, Args: args}, nil
}

// Suggestions returns the labels and commands of the common editors found
// on this machine.
func (r Resolver) Suggestions() []Known {
	var found []Known
	for _, k := range CommonEditors {
		for _, c := range k.Commands {
			if _, err := r.LookPath(c); err == nil {
				found = append(found, Known{Label: k.Label, Commands: []string{c}})
				break
			}
			if fallback, ok := appFallbacks[c]; ok && r.Exists(fallback) {
				found = append(found, Known{Label: k.Label, Commands: []string{c}})
				break
			}
		}
	}
	return found
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}

// Command returns the command that opens path in the editor.
func (e Editor) Command(ctx context.Context, path string) *exec.Cmd {
	args := append(append([]string{}, e.Args...), path)
	cmd := exec.CommandContext(ctx, e.Path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Open edits path and blocks until the editor exits.
func (e Editor) Open(ctx context.Context, path string) error {
	logger.G(ctx).WithField("editor", e.Path).WithField("file", path).Debug("opening editor")
	if err := e.Command(ctx, path).Run(); err != nil {
		return errors.Wrapf(err, "editor %s failed", filepath.Base(e.Path))
	}
	return nil
}

// FileManagerCommand returns the platform command that reveals path.
func FileManagerCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{"-R", path}
	case "windows":
		return "explorer", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

// OpenFileManager reveals path in the platform file manager.
func OpenFileManager(path string) error {
	name, args := FileManagerCommand(runtime.GOOS, path)
	if err := exec.Command(name, args...).Start(); err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	return nil
}
