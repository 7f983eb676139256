package ai

import (
	"fmt"
	"strings"

	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/types"
)

// Token caps per call type: summaries are larger than tag/category
// suggestions, answers sit in between.
const (
	summaryTokens    = config.SummaryMaxTokens
	suggestionTokens = config.SuggestionMaxTokens
	answerTokens     = config.AnswerMaxTokens
)

// promptTextLimit bounds how much article body goes into a prompt.
const promptTextLimit = 12_000

func truncateForPrompt(text string) string {
	if len(text) <= promptTextLimit {
		return text
	}
	return text[:promptTextLimit] + "\n[truncated]"
}

func summarizePrompt(text, title string, sourceType types.SourceType) (system, user string) {
	system = `You summarize saved reading material for a personal research library. Write in markdown. Structure the summary as:

## One-line summary
A single sentence capturing the core claim or finding.

## Key points
3-7 bullet points.

## Details
A few short paragraphs for anything that deserves more depth.

Be faithful to the source; do not editorialize.`

	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", title)
	}
	if sourceType != "" {
		fmt.Fprintf(&sb, "Source type: %s\n", sourceType)
	}
	sb.WriteString("\n")
	sb.WriteString(truncateForPrompt(text))
	return system, sb.String()
}

func tagPrompt(text, abstract string, existingTags []string) (system, user string) {
	system = `You assign topic tags to saved articles. Respond with ONLY a JSON array of objects: [{"name": "tag-name", "confidence": 0.0-1.0}]. Tags are short lowercase phrases. Prefer reusing the user's existing tags when they fit. Suggest at most 10.`

	var sb strings.Builder
	if len(existingTags) > 0 {
		fmt.Fprintf(&sb, "Existing tags: %s\n\n", strings.Join(existingTags, ", "))
	}
	if abstract != "" {
		fmt.Fprintf(&sb, "Summary: %s\n\n", abstract)
	}
	sb.WriteString("Article text:\n")
	sb.WriteString(truncateForPrompt(text))
	return system, sb.String()
}

func categoryPrompt(text, abstract string, categories []string) (system, user string) {
	system = `You file saved articles into a two-level category tree. Respond with ONLY a JSON object:
{"category": {"name": "...", "is_new": false}, "subcategory": {"name": "...", "is_new": false}, "confidence": 0.0-1.0}
Reuse an existing category/subcategory when one fits; set is_new true only when proposing a genuinely new one. Subcategory may be null when no second level applies.`

	var sb strings.Builder
	if len(categories) > 0 {
		sb.WriteString("Existing categories:\n")
		for _, line := range categories {
			sb.WriteString("- " + line + "\n")
		}
		sb.WriteString("\n")
	}
	if abstract != "" {
		fmt.Fprintf(&sb, "Summary: %s\n\n", abstract)
	}
	sb.WriteString("Article text:\n")
	sb.WriteString(truncateForPrompt(text))
	return system, sb.String()
}

func answerPrompt(question, contextBlock string) (system, user string) {
	system = `You answer questions about a user's personal article library. Base your answer ONLY on the provided context. Never invent numbers, titles, or facts beyond what the context states. If the context does not contain the answer, say so.`

	return system, fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question)
}
