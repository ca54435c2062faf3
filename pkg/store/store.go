// Package store keeps cooked skills on disk.
//
// Each skill lives in its own directory under the store root:
//
//	<root>/<name>/base/      pristine upstream snapshot
//	<root>/<name>/live/      base with the flavor applied, linked into platforms
//	<root>/<name>/flavor.md  the user's flavor text
//	<root>/<name>/meta.toml  metadata
package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillchef/pkg/merge"
	"github.com/jingkaihe/skillchef/pkg/skills"
)

const (
	baseDirName    = "base"
	liveDirName    = "live"
	flavorFileName = "flavor.md"
)

// Store manages the skills under a single root directory.
type Store struct {
	root         string
	platformDirs map[string]string
}

// Option configures a Store
type Option func(*Store)

// WithPlatformDirs sets the skill directory of each platform that cooked
// skills can be linked into.
func WithPlatformDirs(dirs map[string]string) Option {
	return func(s *Store) {
		s.platformDirs = dirs
	}
}

// New creates a store rooted at root. The directory is created lazily.
func New(root string, opts ...Option) *Store {
	s := &Store{
		root:         root,
		platformDirs: map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// ValidateName rejects names that are not safe to use as a directory name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("skill name must not be empty")
	case name == "." || name == "..":
		return errors.Errorf("invalid skill name %q", name)
	case strings.ContainsAny(name, `/\`):
		return errors.Errorf("skill name %q must not contain path separators", name)
	}
	return nil
}

// SkillDir returns the directory of the named skill.
func (s *Store) SkillDir(name string) string {
	return filepath.Join(s.root, name)
}

func (s *Store) baseDir(name string) string {
	return filepath.Join(s.SkillDir(name), baseDirName)
}

func (s *Store) liveDir(name string) string {
	return filepath.Join(s.SkillDir(name), liveDirName)
}

// Exists reports whether a skill with the given name has been cooked.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.metaPath(name))
	return err == nil
}

// List returns the metadata of every skill in the store, sorted by name.
func (s *Store) List() ([]*Meta, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read store directory")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && s.Exists(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	metas := make([]*Meta, 0, len(names))
	for _, name := range names {
		m, err := s.LoadMeta(name)
		if err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, nil
}

// CookRequest describes a fetched skill to install into the store.
type CookRequest struct {
	Name       string
	FetchedDir string
	RemoteURL  string
	RemoteType string
	Platforms  []string
	Source     Source
}

// Cook installs a fetched skill, replacing any existing skill of the same
// name, and links its live directory into the requested platforms.
func (s *Store) Cook(req CookRequest) (*Meta, error) {
	if err := ValidateName(req.Name); err != nil {
		return nil, err
	}
	if err := s.checkPlatforms(req.Platforms); err != nil {
		return nil, err
	}

	dir := s.SkillDir(req.Name)
	if err := os.RemoveAll(dir); err != nil {
		return nil, errors.Wrap(err, "failed to remove existing skill")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create skill directory")
	}

	if err := CopyDir(req.FetchedDir, s.baseDir(req.Name)); err != nil {
		return nil, errors.Wrap(err, "failed to copy base snapshot")
	}
	if err := CopyDir(s.baseDir(req.Name), s.liveDir(req.Name)); err != nil {
		return nil, errors.Wrap(err, "failed to copy live snapshot")
	}

	sum, err := HashDir(s.baseDir(req.Name))
	if err != nil {
		return nil, err
	}

	m := &Meta{
		Name:       req.Name,
		RemoteURL:  req.RemoteURL,
		RemoteType: req.RemoteType,
		BaseSHA256: sum,
		Platforms:  append([]string{}, req.Platforms...),
		Source:     req.Source,
	}
	m.touch()
	if err := s.SaveMeta(m); err != nil {
		return nil, err
	}

	if err := s.createLinks(req.Name, req.Platforms); err != nil {
		return nil, err
	}
	return m, nil
}

// Remove unlinks the skill from its platforms and deletes it from the store.
func (s *Store) Remove(name string) error {
	m, err := s.LoadMeta(name)
	if err != nil {
		return err
	}
	if err := s.removeLinks(name, m.Platforms); err != nil {
		return err
	}
	if err := os.RemoveAll(s.SkillDir(name)); err != nil {
		return errors.Wrapf(err, "failed to remove skill %s", name)
	}
	return nil
}

// UpdateBase replaces the base snapshot with fetchedDir and records the new
// hash and sync time.
func (s *Store) UpdateBase(name, fetchedDir string) error {
	if !s.Exists(name) {
		return errors.Wrapf(os.ErrNotExist, "skill %s not found", name)
	}

	base := s.baseDir(name)
	if err := os.RemoveAll(base); err != nil {
		return errors.Wrap(err, "failed to remove base snapshot")
	}
	if err := CopyDir(fetchedDir, base); err != nil {
		return errors.Wrap(err, "failed to copy base snapshot")
	}

	sum, err := HashDir(base)
	if err != nil {
		return err
	}

	return s.updateMeta(name, func(m *Meta) error {
		m.BaseSHA256 = sum
		m.touch()
		return nil
	})
}

// UpdateSource records new provenance for a skill's base snapshot.
func (s *Store) UpdateSource(name string, src Source) error {
	return s.updateMeta(name, func(m *Meta) error {
		m.Source = src
		return nil
	})
}

// RebuildLive recreates the live snapshot from base and re-applies the
// flavor, if any.
func (s *Store) RebuildLive(name string) error {
	live := s.liveDir(name)
	if err := os.RemoveAll(live); err != nil {
		return errors.Wrap(err, "failed to remove live snapshot")
	}
	if err := CopyDir(s.baseDir(name), live); err != nil {
		return errors.Wrap(err, "failed to copy live snapshot")
	}

	if !s.HasFlavor(name) {
		return nil
	}
	flavor, err := s.ReadFlavor(name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(flavor) == "" {
		return nil
	}

	text, err := s.LiveSkillText(name)
	if err != nil {
		return err
	}
	return s.WriteLive(name, merge.MergeSkillText(text, flavor))
}

// FlavorPath returns the path of the skill's flavor file.
func (s *Store) FlavorPath(name string) string {
	return filepath.Join(s.SkillDir(name), flavorFileName)
}

// HasFlavor reports whether the skill has a flavor file.
func (s *Store) HasFlavor(name string) bool {
	_, err := os.Stat(s.FlavorPath(name))
	return err == nil
}

// ReadFlavor returns the raw content of the flavor file.
func (s *Store) ReadFlavor(name string) (string, error) {
	data, err := os.ReadFile(s.FlavorPath(name))
	if err != nil {
		return "", errors.Wrapf(err, "failed to read flavor for %s", name)
	}
	return string(data), nil
}

// WriteFlavor replaces the flavor file.
func (s *Store) WriteFlavor(name, text string) error {
	if err := atomic.WriteFile(s.FlavorPath(name), strings.NewReader(text)); err != nil {
		return errors.Wrapf(err, "failed to write flavor for %s", name)
	}
	return nil
}

// BaseSkillText returns the SKILL.md of the base snapshot.
func (s *Store) BaseSkillText(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir(name), skills.FileName))
	if err != nil {
		return "", errors.Wrapf(err, "failed to read base skill for %s", name)
	}
	return string(data), nil
}

// LiveSkillPath returns the path of the live SKILL.md.
func (s *Store) LiveSkillPath(name string) string {
	return filepath.Join(s.liveDir(name), skills.FileName)
}

// LiveSkillText returns the SKILL.md of the live snapshot.
func (s *Store) LiveSkillText(name string) (string, error) {
	data, err := os.ReadFile(s.LiveSkillPath(name))
	if err != nil {
		return "", errors.Wrapf(err, "failed to read live skill for %s", name)
	}
	return string(data), nil
}

// WriteLive replaces the live SKILL.md with text.
func (s *Store) WriteLive(name, text string) error {
	if err := os.MkdirAll(s.liveDir(name), 0o755); err != nil {
		return errors.Wrap(err, "failed to create live directory")
	}
	if err := atomic.WriteFile(s.LiveSkillPath(name), strings.NewReader(text)); err != nil {
		return errors.Wrapf(err, "failed to write live skill for %s", name)
	}
	return nil
}
