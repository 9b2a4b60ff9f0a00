package commands

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// resultDocument builds the markdown document shown for an instruct result:
// the user's instruction, the model output, and a unified diff of the pending
// buffer edit.
func resultDocument(instruction, before, after string) string {
	var b strings.Builder

	b.WriteString("### User:\n\n")
	b.WriteString(instruction)
	b.WriteString("\n\n---\n\n### Results:\n\n")
	b.WriteString(after)

	if diff := editPreview(before, after); diff != "" {
		b.WriteString("\n\n---\n\n### Changes:\n\n```diff\n")
		b.WriteString(diff)
		b.WriteString("```\n")
	}

	return b.String()
}

// editPreview renders a unified diff between the original source text and the
// model's replacement. Returns "" when the texts are identical or the diff
// cannot be produced.
func editPreview(before, after string) string {
	if before == after {
		return ""
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  3,
	})
	if err != nil {
		return ""
	}

	return diff
}
