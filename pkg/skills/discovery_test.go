package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkillFile(t *testing.T, dir string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("# skill\n"), 0o644))
	return path
}

func TestLocalCandidates(t *testing.T) {
	root := t.TempDir()
	top := writeSkillFile(t, root)
	nestedB := writeSkillFile(t, filepath.Join(root, "b", "c"))
	nestedA := writeSkillFile(t, filepath.Join(root, "a"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("readme"), 0o644))

	found, err := LocalCandidates(root)
	require.NoError(t, err)
	assert.Equal(t, []string{top, nestedA, nestedB}, found)

	labels := CandidateLabels(root, found)
	assert.Equal(t, []string{".", "a", "b/c"}, labels)
}

func TestLocalCandidatesWithoutTopLevel(t *testing.T) {
	root := t.TempDir()
	nested := writeSkillFile(t, filepath.Join(root, "skills", "demo"))

	found, err := LocalCandidates(root)
	require.NoError(t, err)
	assert.Equal(t, []string{nested}, found)
}

func TestLocalCandidatesFileSource(t *testing.T) {
	root := t.TempDir()
	skillPath := writeSkillFile(t, root)

	found, err := LocalCandidates(skillPath)
	require.NoError(t, err)
	assert.Equal(t, []string{skillPath}, found)

	other := filepath.Join(root, "notes.md")
	require.NoError(t, os.WriteFile(other, []byte("notes"), 0o644))
	found, err = LocalCandidates(other)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestLocalCandidatesMissing(t *testing.T) {
	found, err := LocalCandidates(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, found)
}
