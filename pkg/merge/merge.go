// Package merge layers flavor text onto skill documents and classifies how a
// live document relates to its base when an upstream update arrives.
package merge

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jingkaihe/skillchef/pkg/diff"
	"github.com/jingkaihe/skillchef/pkg/skills"
)

// Branch is the reconciliation path chosen for a skill with an upstream update.
type Branch int

const (
	// BranchNoFlavor means the skill has no flavor file.
	BranchNoFlavor Branch = iota
	// BranchNoConflict means live differs from base only in its Local Flavor section.
	BranchNoConflict
	// BranchConflict means live carries edits outside its Local Flavor section.
	BranchConflict
)

func (b Branch) String() string {
	switch b {
	case BranchNoFlavor:
		return "no-flavor"
	case BranchNoConflict:
		return "no-conflict"
	case BranchConflict:
		return "conflict"
	default:
		return fmt.Sprintf("branch(%d)", int(b))
	}
}

// MergeSkillText appends the trimmed flavor to newRemote as a Local Flavor
// section. An empty flavor leaves the document as is apart from its final newline.
func MergeSkillText(newRemote, flavor string) string {
	trimmed := strings.TrimSpace(flavor)
	if trimmed == "" {
		return skills.EnsureNewline(newRemote)
	}

	front, body := skills.SplitFrontmatter(newRemote)
	body = strings.TrimRightFunc(body, unicode.IsSpace)

	var b strings.Builder
	b.WriteString(front)
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(skills.LocalFlavorHeading)
	b.WriteString("\n\n")
	b.WriteString(trimmed)
	b.WriteString("\n")
	return b.String()
}

// Classify picks the reconciliation branch for a skill.
func Classify(hasFlavor bool, oldBase, currentLive string) Branch {
	if !hasFlavor {
		return BranchNoFlavor
	}
	if diff.HasNonFlavorLocalChanges(oldBase, currentLive) {
		return BranchConflict
	}
	return BranchNoConflict
}

// EffectiveFlavor returns the flavor text that should be re-applied on update.
//
// When the live document carries a Local Flavor section that differs from the
// flavor file, the section wins and diverged is true so the caller can persist
// it back. Otherwise the trimmed flavor file content is returned.
func EffectiveFlavor(currentLive, flavorFile string) (text string, diverged bool) {
	fileFlavor := strings.TrimSpace(flavorFile)
	liveFlavor, ok := skills.LocalFlavor(currentLive)
	if ok && liveFlavor != fileFlavor {
		return liveFlavor, true
	}
	return fileFlavor, false
}

// SameDocument reports whether two documents are equal once trailing
// whitespace is ignored.
func SameDocument(a, b string) bool {
	return diff.NormalizeForCompare(a) == diff.NormalizeForCompare(b)
}

// ThreeWaySummary describes how the upstream update and the flavor relate,
// for status output and AI prompts.
func ThreeWaySummary(oldBase, newRemote, flavor string) string {
	upstream := diff.DiffTexts(oldBase, newRemote, "base", "remote")
	added, removed := diff.Stat(upstream)

	var b strings.Builder
	switch {
	case len(upstream) == 0:
		b.WriteString("upstream unchanged")
	default:
		fmt.Fprintf(&b, "upstream changed (+%d -%d)", added, removed)
	}

	trimmed := strings.TrimSpace(flavor)
	if trimmed == "" {
		b.WriteString(", no local flavor")
		return b.String()
	}

	lines := strings.Count(trimmed, "\n") + 1
	fmt.Fprintf(&b, ", local flavor of %d line", lines)
	if lines != 1 {
		b.WriteString("s")
	}
	return b.String()
}
