package store

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// MetaFileName is the name of the metadata file inside a skill directory.
const MetaFileName = "meta.toml"

// Remote types recorded in meta.toml.
const (
	RemoteLocal  = "local"
	RemoteHTTP   = "http"
	RemoteGitHub = "github"
)

// Meta is the persisted metadata of a cooked skill.
type Meta struct {
	Name       string   `toml:"name" json:"name" yaml:"name"`
	RemoteURL  string   `toml:"remote_url" json:"remote_url" yaml:"remote_url"`
	RemoteType string   `toml:"remote_type" json:"remote_type" yaml:"remote_type"`
	BaseSHA256 string   `toml:"base_sha256" json:"base_sha256" yaml:"base_sha256"`
	LastSync   string   `toml:"last_sync" json:"last_sync" yaml:"last_sync"`
	Platforms  []string `toml:"platforms" json:"platforms" yaml:"platforms"`

	Source `yaml:",inline"`
}

// Source records where the base snapshot came from. All fields are best-effort.
type Source struct {
	Repo         string `toml:"source_repo,omitempty" json:"source_repo,omitempty" yaml:"source_repo,omitempty"`
	Path         string `toml:"source_path,omitempty" json:"source_path,omitempty" yaml:"source_path,omitempty"`
	RefRequested string `toml:"source_ref_requested,omitempty" json:"source_ref_requested,omitempty" yaml:"source_ref_requested,omitempty"`
	RefResolved  string `toml:"source_ref_resolved,omitempty" json:"source_ref_resolved,omitempty" yaml:"source_ref_resolved,omitempty"`
	CommitSHA    string `toml:"source_commit_sha,omitempty" json:"source_commit_sha,omitempty" yaml:"source_commit_sha,omitempty"`
}

// Validate checks the fields every stored skill must carry.
func (m *Meta) Validate() error {
	if m.Name == "" {
		return errors.New("meta: name is required")
	}
	if m.RemoteURL == "" {
		return errors.Errorf("meta %s: remote_url is required", m.Name)
	}
	switch m.RemoteType {
	case RemoteLocal, RemoteHTTP, RemoteGitHub:
	default:
		return errors.Errorf("meta %s: unknown remote_type %q", m.Name, m.RemoteType)
	}
	if m.BaseSHA256 == "" {
		return errors.Errorf("meta %s: base_sha256 is required", m.Name)
	}
	return nil
}

// LastSyncTime parses LastSync. A zero time is returned when it is unset or invalid.
func (m *Meta) LastSyncTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, m.LastSync)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (m *Meta) touch() {
	m.LastSync = time.Now().UTC().Format(time.RFC3339)
}

func decodeMeta(data []byte) (*Meta, error) {
	var m Meta
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, errors.Wrap(err, "failed to decode meta")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func encodeMeta(m *Meta) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, errors.Wrap(err, "failed to encode meta")
	}
	return buf.Bytes(), nil
}

func (s *Store) metaPath(name string) string {
	return filepath.Join(s.SkillDir(name), MetaFileName)
}

// LoadMeta reads and validates the metadata of a skill.
func (s *Store) LoadMeta(name string) (*Meta, error) {
	data, err := lockedfile.Read(s.metaPath(name))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read metadata for %s", name)
	}
	m, err := decodeMeta(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid metadata for %s", name)
	}
	return m, nil
}

// SaveMeta validates and writes the metadata of a skill.
func (s *Store) SaveMeta(m *Meta) error {
	data, err := encodeMeta(m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.SkillDir(m.Name), 0o755); err != nil {
		return errors.Wrap(err, "failed to create skill directory")
	}
	if err := lockedfile.Write(s.metaPath(m.Name), bytes.NewReader(data), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write metadata for %s", m.Name)
	}
	return nil
}

// updateMeta applies fn to the stored metadata under the file lock.
func (s *Store) updateMeta(name string, fn func(*Meta) error) error {
	if _, err := os.Stat(s.metaPath(name)); err != nil {
		return errors.Wrapf(err, "failed to read metadata for %s", name)
	}
	return lockedfile.Transform(s.metaPath(name), func(data []byte) ([]byte, error) {
		m, err := decodeMeta(data)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid metadata for %s", name)
		}
		if err := fn(m); err != nil {
			return nil, err
		}
		return encodeMeta(m)
	})
}
