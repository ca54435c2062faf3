package skills

import (
	"regexp"
	"strings"
)

// LocalFlavorHeading is the markdown heading that introduces the user's flavor section.
const LocalFlavorHeading = "## Local Flavor"

var (
	frontmatterRE = regexp.MustCompile(`(?s)\A---[ \t]*\n(.*?\n)---[ \t]*\n`)
	flavorHeadRE  = regexp.MustCompile(`(?m)^##[ \t]+Local Flavor[ \t]*\r?$`)
)

// EnsureNewline guarantees exactly one trailing newline is present unless the text is empty.
func EnsureNewline(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}

// SplitFrontmatter splits a leading "---" delimited block from the rest of the document.
// The returned prefix includes both delimiters. When no frontmatter is present the
// prefix is empty and the remainder is the whole text.
func SplitFrontmatter(text string) (front, rest string) {
	loc := frontmatterRE.FindStringIndex(text)
	if loc == nil {
		return "", text
	}
	return text[:loc[1]], text[loc[1]:]
}

// SplitLocalFlavorSection separates the trailing Local Flavor section from the document.
//
// The last heading matching "## Local Flavor" wins and the section runs to the end of
// the text. The part before the heading is returned with exactly one trailing newline;
// the flavor is returned without leading or trailing newlines. A nil flavor means the
// document has no flavor section.
func SplitLocalFlavorSection(text string) (string, *string) {
	matches := flavorHeadRE.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}
	last := matches[len(matches)-1]

	before := strings.TrimRight(text[:last[0]], "\r\n")
	if before != "" {
		before += "\n"
	}
	flavor := strings.Trim(text[last[1]:], "\r\n")
	return before, &flavor
}

// StripLocalFlavorSection returns the document without its Local Flavor section.
func StripLocalFlavorSection(text string) string {
	base, _ := SplitLocalFlavorSection(text)
	return base
}

// LocalFlavor returns the trimmed content of the document's Local Flavor section.
func LocalFlavor(text string) (string, bool) {
	_, flavor := SplitLocalFlavorSection(text)
	if flavor == nil {
		return "", false
	}
	return strings.TrimSpace(*flavor), true
}
