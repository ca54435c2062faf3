// Package skills holds the document model for skill files: SKILL.md markdown
// with optional YAML frontmatter and an optional trailing "Local Flavor"
// section carrying the user's customization. It also locates SKILL.md files
// inside local sources.
package skills

import (
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// FileName is the name of the skill document inside a skill directory.
const FileName = "SKILL.md"

// Skill represents a parsed skill document
type Skill struct {
	Name        string // Name from frontmatter, may be empty
	Description string // Description from frontmatter, may be empty
	Path        string // Full path to the SKILL.md file
	Content     string // Full content of SKILL.md
}

// Metadata represents the YAML frontmatter in SKILL.md files
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Heading is a markdown heading found in a skill document
type Heading struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)
}

// ParseMetadata reads the frontmatter of a skill document.
// Documents without frontmatter yield empty metadata and no error.
func ParseMetadata(content string) (Metadata, error) {
	var md Metadata
	front, _ := SplitFrontmatter(content)
	if front == "" {
		return md, nil
	}

	pctx := parser.NewContext()
	var buf bytes.Buffer
	if err := newMarkdown().Convert([]byte(front), &buf, parser.WithContext(pctx)); err != nil {
		return md, errors.Wrap(err, "failed to parse markdown")
	}

	values, err := meta.TryGet(pctx)
	if err != nil {
		return md, errors.Wrap(err, "failed to parse frontmatter")
	}

	md.Name = strings.TrimSpace(stringValue(values["name"]))
	md.Description = strings.TrimSpace(stringValue(values["description"]))
	return md, nil
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

// DefaultName returns the frontmatter name of the document, or fallback when
// the document has no usable name.
func DefaultName(content, fallback string) string {
	md, err := ParseMetadata(content)
	if err != nil || md.Name == "" {
		return fallback
	}
	return md.Name
}

// Load reads and parses the skill document at path.
func Load(path string) (*Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	md, err := ParseMetadata(string(content))
	if err != nil {
		return nil, err
	}

	return &Skill{
		Name:        md.Name,
		Description: md.Description,
		Path:        path,
		Content:     string(content),
	}, nil
}

// Outline lists the headings of a skill document in order of appearance.
// Frontmatter is skipped.
func Outline(content string) []Heading {
	src := []byte(content)
	pctx := parser.NewContext()
	doc := newMarkdown().Parser().Parse(text.NewReader(src), parser.WithContext(pctx))

	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var b strings.Builder
		lines := h.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
		headings = append(headings, Heading{
			Level: h.Level,
			Text:  strings.TrimSpace(b.String()),
		})
		return ast.WalkSkipChildren, nil
	})

	return headings
}
