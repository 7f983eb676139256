package ai

import (
	"strings"

	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/types"
)

// BuildSummary wraps the model's raw markdown, which is authoritative,
// together with a derived one-line abstract. The abstract only feeds
// compact context into later tagging and categorization calls; it is
// never shown as the summary itself.
func BuildSummary(markdown string) *types.Summary {
	return &types.Summary{
		Markdown: strings.TrimSpace(markdown),
		Abstract: deriveAbstract(markdown),
	}
}

// deriveAbstract scans for a "one-line summary" heading and takes the
// next non-empty, non-heading line; absent that section, it falls back to
// the first paragraph-like line.
func deriveAbstract(markdown string) string {
	lines := strings.Split(markdown, "\n")

	for i, line := range lines {
		if !isHeading(line) || !strings.Contains(strings.ToLower(line), "one-line summary") {
			continue
		}
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if next == "" || isHeading(next) {
				if isHeading(next) {
					break
				}
				continue
			}
			return clipAbstract(next)
		}
		break
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || isHeading(line) || len(line) <= 20 {
			continue
		}
		return clipAbstract(line)
	}
	return ""
}

func isHeading(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

func clipAbstract(line string) string {
	line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
	if len(line) > config.AbstractMaxLength {
		return line[:config.AbstractMaxLength]
	}
	return line
}
