package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	t.Run("reads name and description", func(t *testing.T) {
		md, err := ParseMetadata("---\nname: \"hello-chef\"\ndescription: Says hello\n---\n\n# Hello\n")
		require.NoError(t, err)
		assert.Equal(t, "hello-chef", md.Name)
		assert.Equal(t, "Says hello", md.Description)
	})

	t.Run("no frontmatter", func(t *testing.T) {
		md, err := ParseMetadata("# Hello\n")
		require.NoError(t, err)
		assert.Empty(t, md.Name)
		assert.Empty(t, md.Description)
	})
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "code-reviewer", DefaultName("---\nname: code-reviewer\n---\nbody\n", "skill"))
	assert.Equal(t, "skill", DefaultName("# No frontmatter\n", "skill"))
	assert.Equal(t, "skill", DefaultName("---\ndescription: nameless\n---\nbody\n", "skill"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	content := "---\nname: demo\ndescription: A demo skill\n---\n\n# Demo\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	skill, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", skill.Name)
	assert.Equal(t, "A demo skill", skill.Description)
	assert.Equal(t, path, skill.Path)
	assert.Equal(t, content, skill.Content)

	_, err = Load(filepath.Join(dir, "missing.md"))
	require.Error(t, err)
}

func TestOutline(t *testing.T) {
	content := "---\nname: demo\n---\n# Demo\n\nIntro.\n\n## Usage\n\nText.\n\n## Local Flavor\n\nKeep X\n"

	headings := Outline(content)
	require.Len(t, headings, 3)
	assert.Equal(t, Heading{Level: 1, Text: "Demo"}, headings[0])
	assert.Equal(t, Heading{Level: 2, Text: "Usage"}, headings[1])
	assert.Equal(t, Heading{Level: 2, Text: "Local Flavor"}, headings[2])
}

func TestOutlineEmpty(t *testing.T) {
	assert.Empty(t, Outline("just a paragraph\n"))
}
