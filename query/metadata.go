package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/store"
	"github.com/sebkrier/alexandria-sub000/types"
)

// MetadataResult carries the output of one aggregate operation. Only the
// fields relevant to the operation are populated.
type MetadataResult struct {
	Operation  types.MetadataOperation `json:"operation"`
	TotalCount int64                   `json:"total_count,omitempty"`
	Counts     []store.NameCount       `json:"counts,omitempty"`
	Names      []string                `json:"names,omitempty"`
	Previews   []store.ArticlePreview  `json:"previews,omitempty"`
	RangeLabel string                  `json:"range_label,omitempty"`

	// library_summary composes several of the above
	Sections []MetadataResult `json:"sections,omitempty"`
}

// ExecuteMetadataQuery runs one aggregate operation scoped to the user.
func ExecuteMetadataQuery(st *store.Store, userID uuid.UUID, op types.MetadataOperation, question string) (*MetadataResult, error) {
	result := &MetadataResult{Operation: op}

	switch op {
	case types.OpTotalCount:
		n, err := st.CountArticles(userID)
		if err != nil {
			return nil, err
		}
		result.TotalCount = n

	case types.OpCountByCategory:
		counts, err := st.CountByCategory(userID)
		if err != nil {
			return nil, err
		}
		result.Counts = counts

	case types.OpCountByTag:
		counts, err := st.CountByTag(userID)
		if err != nil {
			return nil, err
		}
		result.Counts = counts

	case types.OpCountByMediaType:
		counts, err := st.CountByMediaType(userID)
		if err != nil {
			return nil, err
		}
		result.Counts = counts

	case types.OpListCategories:
		tree, err := st.CategoryTree(userID)
		if err != nil {
			return nil, err
		}
		for _, root := range tree {
			result.Names = append(result.Names, root.Name)
			for _, child := range root.Children {
				result.Names = append(result.Names, root.Name+" > "+child.Name)
			}
		}

	case types.OpListTags:
		names, err := st.TagNames(userID)
		if err != nil {
			return nil, err
		}
		result.Names = names

	case types.OpDateRangeCount:
		from, to, label := parseDateRange(question, time.Now())
		n, previews, err := st.CountInDateRange(userID, from, to, config.RecentFallbackLimit)
		if err != nil {
			return nil, err
		}
		result.TotalCount = n
		result.Previews = previews
		result.RangeLabel = label

	case types.OpRecentArticles:
		previews, err := st.RecentArticlePreviews(userID, config.RetrievalResultLimit)
		if err != nil {
			return nil, err
		}
		result.Previews = previews

	case types.OpTopDomains:
		counts, err := st.TopDomains(userID, config.RetrievalResultLimit)
		if err != nil {
			return nil, err
		}
		result.Counts = counts

	case types.OpLibrarySummary:
		for _, sub := range []types.MetadataOperation{
			types.OpTotalCount, types.OpCountByCategory, types.OpCountByTag,
			types.OpCountByMediaType, types.OpTopDomains, types.OpRecentArticles,
		} {
			section, err := ExecuteMetadataQuery(st, userID, sub, question)
			if err != nil {
				return nil, err
			}
			result.Sections = append(result.Sections, *section)
		}

	default:
		return nil, fmt.Errorf("unsupported metadata operation %q", op)
	}
	return result, nil
}

// parseDateRange resolves a relative date phrase against now. Unmatched
// phrases fall back to the last 7 days.
func parseDateRange(question string, now time.Time) (from, to time.Time, label string) {
	q := strings.ToLower(question)
	to = now

	if m := lastNDaysExpr.FindStringSubmatch(q); m != nil {
		days, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, -days), to, fmt.Sprintf("last %d days", days)
	}

	switch {
	case strings.Contains(q, "today"):
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), to, "today"
	case strings.Contains(q, "yesterday"):
		year, month, day := now.Date()
		start := time.Date(year, month, day, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
		return start, start.AddDate(0, 0, 1), "yesterday"
	case containsAny(q, "this week", "last week", "past week"):
		return now.AddDate(0, 0, -7), to, "the past week"
	case containsAny(q, "this month", "last month", "past month"):
		return now.AddDate(0, -1, 0), to, "the past month"
	case containsAny(q, "this year", "last year", "past year"):
		return now.AddDate(-1, 0, 0), to, "the past year"
	default:
		return now.AddDate(0, 0, -7), to, "the past week"
	}
}

// FormatMetadataForLLM renders a result as the compact text block handed
// to the model as context. The model only ever sees this, never raw rows,
// and is instructed not to invent numbers beyond it.
func FormatMetadataForLLM(result *MetadataResult) string {
	var sb strings.Builder

	switch result.Operation {
	case types.OpTotalCount:
		fmt.Fprintf(&sb, "Total articles in library: %d\n", result.TotalCount)

	case types.OpCountByCategory:
		sb.WriteString("Articles per category:\n")
		writeCounts(&sb, result.Counts, "(no categories yet)")

	case types.OpCountByTag:
		sb.WriteString("Articles per tag:\n")
		writeCounts(&sb, result.Counts, "(no tags yet)")

	case types.OpCountByMediaType:
		sb.WriteString("Articles per media type:\n")
		writeCounts(&sb, result.Counts, "(library is empty)")

	case types.OpListCategories:
		sb.WriteString("Categories:\n")
		writeNames(&sb, result.Names, "(no categories yet)")

	case types.OpListTags:
		sb.WriteString("Tags:\n")
		writeNames(&sb, result.Names, "(no tags yet)")

	case types.OpDateRangeCount:
		fmt.Fprintf(&sb, "Articles saved in %s: %d\n", result.RangeLabel, result.TotalCount)
		writePreviews(&sb, result.Previews)

	case types.OpRecentArticles:
		sb.WriteString("Most recently saved articles:\n")
		writePreviews(&sb, result.Previews)

	case types.OpTopDomains:
		sb.WriteString("Most common source domains:\n")
		writeCounts(&sb, result.Counts, "(no URL sources yet)")

	case types.OpLibrarySummary:
		sb.WriteString("Library overview:\n\n")
		for _, section := range result.Sections {
			sb.WriteString(FormatMetadataForLLM(&section))
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writeCounts(sb *strings.Builder, counts []store.NameCount, empty string) {
	if len(counts) == 0 {
		sb.WriteString("  " + empty + "\n")
		return
	}
	for _, c := range counts {
		fmt.Fprintf(sb, "  %s: %d\n", c.Name, c.Count)
	}
}

func writeNames(sb *strings.Builder, names []string, empty string) {
	if len(names) == 0 {
		sb.WriteString("  " + empty + "\n")
		return
	}
	for _, name := range names {
		sb.WriteString("  " + name + "\n")
	}
}

func writePreviews(sb *strings.Builder, previews []store.ArticlePreview) {
	for _, p := range previews {
		fmt.Fprintf(sb, "  %s (saved %s)\n", p.Title, p.CreatedAt.Format("2006-01-02"))
	}
}
