// Package prompts holds the prompt templates skillchef sends to LLMs.
package prompts

import (
	"strings"
	"text/template"
)

// MergeInput is the data rendered into the merge prompt.
type MergeInput struct {
	OldBase     string
	NewRemote   string
	Flavor      string
	CurrentLive string
	Summary     string
	Instruction string
}

const mergeTemplate = `You are merging an agent skill file. The upstream base has changed.
The user has a local "flavor" (customization) applied on top of the old base.

Your job: produce a single merged SKILL.md that incorporates BOTH the new upstream
changes AND the user's local flavor. Preserve the intent of both sides.
{{- if .Summary}}

Change summary: {{.Summary}}
{{- end}}
{{- if .Instruction}}

Additional instruction from the user: {{.Instruction}}
{{- end}}

Return ONLY the merged file content, no explanation.

=== OLD BASE ===
{{.OldBase}}

=== NEW REMOTE (upstream update) ===
{{.NewRemote}}

=== USER'S LOCAL FLAVOR ===
{{.Flavor}}
{{- if .CurrentLive}}

=== CURRENT LIVE (may contain direct edits) ===
{{.CurrentLive}}
{{- end}}

=== MERGED RESULT ===`

var mergeTmpl = template.Must(template.New("merge").Parse(mergeTemplate))

// Merge renders the merge prompt.
func Merge(in MergeInput) (string, error) {
	in.Instruction = strings.TrimSpace(in.Instruction)
	var sb strings.Builder
	if err := mergeTmpl.Execute(&sb, in); err != nil {
		return "", err
	}
	return sb.String(), nil
}
