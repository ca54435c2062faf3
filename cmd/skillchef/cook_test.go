package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{source: "https://github.com/acme/skills/blob/main/skills/pdf/SKILL.md", want: "pdf"},
		{source: "https://github.com/acme/skills/tree/main/skills/code-review", want: "code-review"},
		{source: "https://example.com/guides/writing.md", want: "writing"},
		{source: "/tmp/skills/review/SKILL.md", want: "review"},
		{source: "/tmp/skills/review/", want: "review"},
		{source: "./SKILL.md", want: "skill"},
		{source: "https://example.com/", want: "skill"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackName(tt.source))
		})
	}
}
