package store

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// PlatformLink returns where the named skill is linked for a platform.
func (s *Store) PlatformLink(platform, name string) (string, error) {
	dir, ok := s.platformDirs[platform]
	if !ok {
		return "", errors.Errorf("unknown platform %q", platform)
	}
	return filepath.Join(dir, name), nil
}

func (s *Store) checkPlatforms(platforms []string) error {
	for _, p := range platforms {
		if _, ok := s.platformDirs[p]; !ok {
			return errors.Errorf("unknown platform %q", p)
		}
	}
	return nil
}

func (s *Store) createLinks(name string, platforms []string) error {
	live, err := filepath.Abs(s.liveDir(name))
	if err != nil {
		return errors.Wrap(err, "failed to resolve live directory")
	}

	for _, p := range platforms {
		target, err := s.PlatformLink(p, name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s skills directory", p)
		}
		if err := removeLink(target); err != nil {
			return err
		}
		if err := os.Symlink(live, target); err != nil {
			return errors.Wrapf(err, "failed to link %s into %s", name, p)
		}
	}
	return nil
}

func (s *Store) removeLinks(name string, platforms []string) error {
	for _, p := range platforms {
		target, err := s.PlatformLink(p, name)
		if err != nil {
			// platform no longer configured, nothing we can unlink
			continue
		}
		if err := removeLink(target); err != nil {
			return err
		}
	}
	return nil
}

// removeLink deletes a symlink or a directory left at target.
func removeLink(target string) error {
	info, err := os.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to inspect %s", target)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		err = os.Remove(target)
	} else {
		err = os.RemoveAll(target)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to remove %s", target)
	}
	return nil
}
