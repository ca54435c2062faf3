// Package diff produces unified diffs between skill documents and answers
// whether a live document drifted from its base outside the Local Flavor section.
package diff

import (
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/jingkaihe/skillchef/pkg/skills"
)

// DiffTexts returns the unified diff of old and new as individual lines, each
// keeping its trailing newline. Identical texts produce no lines.
func DiffTexts(old, new, labelOld, labelNew string) []string {
	if old == new {
		return nil
	}

	unified := udiff.Unified(labelOld, labelNew, old, new)
	if unified == "" {
		return nil
	}

	lines := strings.SplitAfter(unified, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// NormalizeForCompare strips the trailing newlines and blanks of a document so
// that trailing whitespace never counts as a change.
func NormalizeForCompare(text string) string {
	return strings.TrimRight(skills.EnsureNewline(text), " \t\r\n")
}

// HasNonFlavorLocalChanges reports whether currentLive, with its Local Flavor
// section removed, differs from oldBase.
func HasNonFlavorLocalChanges(oldBase, currentLive string) bool {
	liveWithoutFlavor := skills.StripLocalFlavorSection(currentLive)
	return NormalizeForCompare(oldBase) != NormalizeForCompare(liveWithoutFlavor)
}

// Stat counts added and removed lines in a unified diff, ignoring file headers.
func Stat(lines []string) (added, removed int) {
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}
