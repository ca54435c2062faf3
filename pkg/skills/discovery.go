package skills

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

const candidatePattern = "**/" + FileName

// LocalCandidates finds SKILL.md files inside a local source.
//
// A file source yields itself when it is named SKILL.md. A directory source
// yields its top-level SKILL.md first, followed by nested SKILL.md files in
// lexical order. The returned paths are absolute.
func LocalCandidates(source string) ([]string, error) {
	root, err := filepath.Abs(source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", source)
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to stat %s", root)
	}

	if !info.IsDir() {
		if filepath.Base(root) == FileName {
			return []string{root}, nil
		}
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(root), candidatePattern)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search for skill files")
	}
	sort.Strings(matches)

	var found []string
	top := filepath.Join(root, FileName)
	if _, err := os.Stat(top); err == nil {
		found = append(found, top)
	}
	for _, m := range matches {
		p := filepath.Join(root, filepath.FromSlash(m))
		if p == top {
			continue
		}
		found = append(found, p)
	}

	return found, nil
}

// CandidateLabels returns the directory of each candidate relative to root,
// used when asking the user which skill to pick.
func CandidateLabels(root string, candidates []string) []string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	labels := make([]string, 0, len(candidates))
	for _, c := range candidates {
		rel, err := filepath.Rel(absRoot, filepath.Dir(c))
		if err != nil {
			rel = filepath.Dir(c)
		}
		labels = append(labels, filepath.ToSlash(rel))
	}
	return labels
}
