package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Scope selects which skillchef home a command operates on.
type Scope string

const (
	ScopeAuto    Scope = "auto"
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

const (
	// HomeEnv overrides the global skillchef home directory.
	HomeEnv = "SKILLCHEF_HOME"
	// DirName is the name of a skillchef home directory.
	DirName = ".skillchef"

	configFileName  = "config.toml"
	storeDirName    = "store"
	logsDirName     = "logs"
	journalFileName = "skillchef.db"
)

// ParseScope validates a scope flag value.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAuto:
		return ScopeAuto, nil
	case ScopeGlobal:
		return ScopeGlobal, nil
	case ScopeProject:
		return ScopeProject, nil
	}
	return "", errors.Errorf("invalid scope %q (want auto, global or project)", s)
}

// Platform is an agent platform skills can be linked into.
type Platform struct {
	Name string
	Dir  string
}

// Platforms returns the known platforms and their skill directories under userHome.
func Platforms(userHome string) []Platform {
	return []Platform{
		{Name: "codex", Dir: filepath.Join(userHome, ".codex", "skills")},
		{Name: "cursor", Dir: filepath.Join(userHome, ".cursor", "skills")},
		{Name: "claude-code", Dir: filepath.Join(userHome, ".claude", "skills")},
	}
}

// PlatformNames returns the names of the known platforms.
func PlatformNames() []string {
	var names []string
	for _, p := range Platforms("") {
		names = append(names, p.Name)
	}
	return names
}

// PlatformDirs maps each known platform to its skill directory under userHome.
func PlatformDirs(userHome string) map[string]string {
	dirs := map[string]string{}
	for _, p := range Platforms(userHome) {
		dirs[p.Name] = p.Dir
	}
	return dirs
}

// Paths are the locations used by one resolved scope.
type Paths struct {
	Scope      Scope
	Home       string
	ConfigFile string
	StoreDir   string
	LogDir     string
	Journal    string
}

// Environment is what scope resolution depends on.
type Environment struct {
	UserHome string
	Cwd      string
	// HomeOverride replaces the global home when set.
	HomeOverride string
}

// CurrentEnvironment reads the environment of the running process.
func CurrentEnvironment() (Environment, error) {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return Environment{}, errors.Wrap(err, "failed to get home directory")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return Environment{}, errors.Wrap(err, "failed to get working directory")
	}
	return Environment{
		UserHome:     userHome,
		Cwd:          cwd,
		HomeOverride: os.Getenv(HomeEnv),
	}, nil
}

// GlobalHome returns the global skillchef home.
func (e Environment) GlobalHome() string {
	if e.HomeOverride != "" {
		return e.HomeOverride
	}
	return filepath.Join(e.UserHome, DirName)
}

// ProjectHome returns the skillchef home of the working directory.
func (e Environment) ProjectHome() string {
	return filepath.Join(e.Cwd, DirName)
}

// ResolveScope turns auto into a concrete scope. A project home in the working
// directory wins, then the default_scope of the global config, then global.
func (e Environment) ResolveScope(requested Scope) (Scope, error) {
	switch requested {
	case ScopeGlobal, ScopeProject:
		return requested, nil
	case ScopeAuto, "":
	default:
		return "", errors.Errorf("invalid scope %q", requested)
	}

	if info, err := os.Stat(e.ProjectHome()); err == nil && info.IsDir() {
		return ScopeProject, nil
	}

	cfg, err := Load(filepath.Join(e.GlobalHome(), configFileName))
	if err != nil {
		return "", err
	}
	if Scope(cfg.DefaultScope) == ScopeProject {
		return ScopeProject, nil
	}
	return ScopeGlobal, nil
}

// Resolve returns the paths of the requested scope.
func (e Environment) Resolve(requested Scope) (Paths, error) {
	scope, err := e.ResolveScope(requested)
	if err != nil {
		return Paths{}, err
	}

	home := e.GlobalHome()
	if scope == ScopeProject {
		home = e.ProjectHome()
	}

	return Paths{
		Scope:      scope,
		Home:       home,
		ConfigFile: filepath.Join(home, configFileName),
		StoreDir:   filepath.Join(home, storeDirName),
		LogDir:     filepath.Join(home, logsDirName),
		Journal:    filepath.Join(home, journalFileName),
	}, nil
}
