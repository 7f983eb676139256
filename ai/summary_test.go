package ai

import (
	"strings"
	"testing"
)

func TestDeriveAbstractFromHeading(t *testing.T) {
	markdown := `## One-line summary

Transformers replace recurrence with attention throughout.

## Key points
- point one
`
	got := deriveAbstract(markdown)
	if got != "Transformers replace recurrence with attention throughout." {
		t.Errorf("abstract = %q", got)
	}
}

func TestDeriveAbstractFallbackToFirstParagraph(t *testing.T) {
	markdown := `# Summary of the Paper
short
This opening paragraph is comfortably longer than twenty characters.
Another line follows.`

	got := deriveAbstract(markdown)
	if got != "This opening paragraph is comfortably longer than twenty characters." {
		t.Errorf("abstract = %q", got)
	}
}

func TestDeriveAbstractTruncates(t *testing.T) {
	long := strings.Repeat("word ", 200)
	markdown := "## One-line summary\n" + long

	got := deriveAbstract(markdown)
	if len(got) != 500 {
		t.Errorf("abstract length = %d, want 500", len(got))
	}
}

func TestDeriveAbstractEmptyHeadingSection(t *testing.T) {
	markdown := `## One-line summary

## Key points
This bullet section line is definitely longer than twenty characters.`

	// Heading section is empty, so the fallback scan applies.
	got := deriveAbstract(markdown)
	if got != "This bullet section line is definitely longer than twenty characters." {
		t.Errorf("abstract = %q", got)
	}
}

func TestBuildSummaryKeepsMarkdownAuthoritative(t *testing.T) {
	raw := "\n## One-line summary\nA compact statement of the core finding here.\n\n## Details\nBody.\n"
	summary := BuildSummary(raw)

	if !strings.HasPrefix(summary.Markdown, "## One-line summary") {
		t.Errorf("markdown not preserved: %q", summary.Markdown)
	}
	if summary.Abstract != "A compact statement of the core finding here." {
		t.Errorf("abstract = %q", summary.Abstract)
	}
}
