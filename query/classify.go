// Package query routes natural-language questions over a user's library:
// content questions go through hybrid retrieval, metadata questions
// through structured aggregates. Classification is rule-based pattern
// matching, not a model call, for latency and determinism.
package query

import (
	"regexp"
	"strings"

	"github.com/sebkrier/alexandria-sub000/types"
)

// contentIndicators short-circuit to CONTENT even when a metadata keyword
// also appears: "what do my articles about machine learning say" must not
// be routed by the word "articles".
var contentIndicators = []string{
	"about",
	"related to",
	"regarding",
	"explain",
	"according to",
}

var contentSayExpr = regexp.MustCompile(`what (?:do|does|did) .* say`)

// metadataPatterns are scanned only after the content indicators pass.
var metadataPatterns = []string{
	"how many",
	"count",
	"number of",
	"list all",
	"list my",
	"show all",
	"most common",
	"most used",
	"top ",
	"this week",
	"this month",
	"this year",
	"last week",
	"last month",
	"last year",
	"past week",
	"past month",
	"recently added",
	"recently saved",
	"library summary",
	"overview of my library",
	"summary of my library",
	"what domains",
	"which sites",
	"which sources",
}

// Classify routes a question as CONTENT or METADATA, defaulting to
// CONTENT when nothing matches.
func Classify(question string) types.QueryType {
	q := strings.ToLower(question)

	for _, indicator := range contentIndicators {
		if strings.Contains(q, indicator) {
			return types.QueryContent
		}
	}
	if contentSayExpr.MatchString(q) {
		return types.QueryContent
	}

	for _, pattern := range metadataPatterns {
		if strings.Contains(q, pattern) {
			return types.QueryMetadata
		}
	}
	return types.QueryContent
}

// DetectMetadataOperation picks the aggregate operation for a METADATA
// question. More specific patterns are checked before generic counting.
func DetectMetadataOperation(question string) types.MetadataOperation {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "domain") || strings.Contains(q, "sites") || strings.Contains(q, "sources"):
		return types.OpTopDomains
	case containsAny(q, "library summary", "overview of my library", "summary of my library"):
		return types.OpLibrarySummary
	case containsAny(q, "recently added", "recently saved", "recent articles", "latest articles"):
		return types.OpRecentArticles
	case hasDateRange(q):
		return types.OpDateRangeCount
	case strings.Contains(q, "categor"):
		if isCounting(q) {
			return types.OpCountByCategory
		}
		return types.OpListCategories
	case strings.Contains(q, "tag"):
		if isCounting(q) {
			return types.OpCountByTag
		}
		return types.OpListTags
	case containsAny(q, "media type", "source type", "videos", "pdfs", "papers"):
		return types.OpCountByMediaType
	default:
		return types.OpTotalCount
	}
}

func isCounting(q string) bool {
	return containsAny(q, "how many", "count", "number of", "most common", "most used", "top ")
}

func containsAny(q string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

func hasDateRange(q string) bool {
	return containsAny(q,
		"this week", "this month", "this year",
		"last week", "last month", "last year",
		"past week", "past month", "past year",
		"today", "yesterday",
	) || lastNDaysExpr.MatchString(q)
}

var lastNDaysExpr = regexp.MustCompile(`(?:last|past) (\d+) days`)
