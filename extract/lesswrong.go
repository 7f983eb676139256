package extract

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/types"
)

// LessWrongExtractor reads LessWrong and Alignment Forum posts through
// the site GraphQL endpoint. Both are client-rendered single-page apps,
// so static HTML scraping returns an empty shell.
type LessWrongExtractor struct {
	fetcher *Fetcher
}

func NewLessWrongExtractor(fetcher *Fetcher) *LessWrongExtractor {
	return &LessWrongExtractor{fetcher: fetcher}
}

var lwPostIDExpr = regexp.MustCompile(`/posts/([a-zA-Z0-9]+)`)

var lwDomains = map[string]string{
	"lesswrong.com":      "https://www.lesswrong.com/graphql",
	"alignmentforum.org": "https://www.alignmentforum.org/graphql",
}

func (l *LessWrongExtractor) Extractor() Extractor {
	return Extractor{
		Name:      "lesswrong",
		CanHandle: isLessWrongURL,
		Extract:   l.Extract,
	}
}

func isLessWrongURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if _, ok := lwDomains[host]; !ok {
		return false
	}
	return lwPostIDExpr.MatchString(u.Path)
}

type lwGraphQLResponse struct {
	Data struct {
		Post struct {
			Result struct {
				Title    string `json:"title"`
				PostedAt string `json:"postedAt"`
				Contents struct {
					PlaintextMainText string `json:"plaintextMainText"`
					Markdown          string `json:"markdown"`
					HTML              string `json:"html"`
				} `json:"contents"`
				User struct {
					DisplayName string `json:"displayName"`
				} `json:"user"`
				Coauthors []struct {
					DisplayName string `json:"displayName"`
				} `json:"coauthors"`
			} `json:"result"`
		} `json:"post"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

const lwPostQuery = `query Post($id: String) {
	post(input: {selector: {_id: $id}}) {
		result {
			title
			postedAt
			contents { plaintextMainText markdown html }
			user { displayName }
			coauthors { displayName }
		}
	}
}`

func (l *LessWrongExtractor) Extract(ctx context.Context, rawURL string) (*types.ExtractedContent, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	endpoint := lwDomains[host]

	m := lwPostIDExpr.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, fmt.Errorf("no post id in %s", rawURL)
	}
	postID := m[1]

	payload := fmt.Sprintf(`{"query": %q, "variables": {"id": %q}}`, lwPostQuery, postID)

	var resp lwGraphQLResponse
	if err := l.fetcher.PostJSON(ctx, endpoint, strings.NewReader(payload), &resp, config.DirectFetchTimeout); err != nil {
		return nil, fmt.Errorf("graphql request: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql: %s", resp.Errors[0].Message)
	}

	result := resp.Data.Post.Result
	if result.Title == "" {
		return nil, fmt.Errorf("post %s not found", postID)
	}

	// Content fallback chain: plaintext, then markdown, then stripped HTML.
	text := collapseWhitespace(result.Contents.PlaintextMainText)
	if text == "" {
		text = collapseWhitespace(result.Contents.Markdown)
	}
	if text == "" {
		text = domHeuristicBody(result.Contents.HTML)
	}

	var authors []string
	if result.User.DisplayName != "" {
		authors = append(authors, result.User.DisplayName)
	}
	for _, co := range result.Coauthors {
		if co.DisplayName != "" {
			authors = append(authors, co.DisplayName)
		}
	}

	content := &types.ExtractedContent{
		Title:       result.Title,
		Text:        text,
		Authors:     authors,
		SourceType:  types.SourceURL,
		OriginalURL: rawURL,
		Metadata: map[string]interface{}{
			"domain":  host,
			"post_id": postID,
		},
	}
	if result.PostedAt != "" {
		if t, err := time.Parse(time.RFC3339, result.PostedAt); err == nil {
			naive := types.NaiveTime(t)
			content.PublicationDate = &naive
		}
	}
	return content, nil
}
