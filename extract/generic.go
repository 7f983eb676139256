package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"

	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/types"
)

const extractorGeneric = "generic"

// GenericExtractor is the fallback of last resort: it matches any http(s)
// URL, so it must be registered after every source-specific extractor.
type GenericExtractor struct {
	fetcher *Fetcher
}

func NewGenericExtractor(fetcher *Fetcher) *GenericExtractor {
	return &GenericExtractor{fetcher: fetcher}
}

func (g *GenericExtractor) Extractor() Extractor {
	return Extractor{
		Name: extractorGeneric,
		CanHandle: func(rawURL string) bool {
			return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
		},
		Extract: g.ExtractPage,
	}
}

// fetchStrategy is one tier of the fallback cascade. Each runs only when
// every earlier tier has failed.
type fetchStrategy struct {
	name  string
	fetch func(ctx context.Context, rawURL string) (string, error)
}

func (g *GenericExtractor) strategies() []fetchStrategy {
	return []fetchStrategy{
		{"direct", func(ctx context.Context, u string) (string, error) {
			return g.fetcher.Get(ctx, u, browserHeaders(), config.DirectFetchTimeout)
		}},
		{"google-referer", func(ctx context.Context, u string) (string, error) {
			return g.fetcher.getUncached(ctx, u, googleRefererHeaders(u), config.DirectFetchTimeout)
		}},
		{"mobile", func(ctx context.Context, u string) (string, error) {
			return g.fetcher.getUncached(ctx, u, mobileHeaders(), config.DirectFetchTimeout)
		}},
		{"wayback", g.fetchWayback},
		{"google-cache", func(ctx context.Context, u string) (string, error) {
			cacheURL := "https://webcache.googleusercontent.com/search?q=cache:" + url.QueryEscape(u)
			return g.fetcher.getUncached(ctx, cacheURL, browserHeaders(), config.ArchiveFetchTimeout)
		}},
		{"12ft-proxy", func(ctx context.Context, u string) (string, error) {
			proxyURL := "https://12ft.io/proxy?q=" + url.QueryEscape(u)
			return g.fetcher.getUncached(ctx, proxyURL, browserHeaders(), config.BypassFetchTimeout)
		}},
	}
}

// ExtractPage runs the fetch cascade, then reads metadata from meta tags
// before any body extraction: meta tags are author-authoritative and more
// reliable than any content heuristic.
func (g *GenericExtractor) ExtractPage(ctx context.Context, rawURL string) (*types.ExtractedContent, error) {
	html, strategyUsed, err := g.fetchCascade(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	meta := readMetaTags(doc)

	text := g.extractBody(html, rawURL)

	content := &types.ExtractedContent{
		Title:           meta.title,
		Text:            text,
		Authors:         meta.authors,
		PublicationDate: meta.published,
		SourceType:      types.SourceURL,
		OriginalURL:     rawURL,
		Metadata: map[string]interface{}{
			"domain":         hostOf(rawURL),
			"fetch_strategy": strategyUsed,
		},
	}
	if meta.image != "" {
		content.Metadata["image"] = meta.image
	}
	if meta.siteName != "" {
		content.Metadata["site_name"] = meta.siteName
	}
	return content, nil
}

// fetchCascade tries each tier in fixed order, accumulating every failure
// into one diagnostic so a caller can tell hard blocking from a transient
// miss.
func (g *GenericExtractor) fetchCascade(ctx context.Context, rawURL string) (html, strategy string, err error) {
	var failures []string
	for _, s := range g.strategies() {
		body, ferr := s.fetch(ctx, rawURL)
		if ferr == nil && strings.TrimSpace(body) != "" {
			return body, s.name, nil
		}
		if ferr == nil {
			ferr = fmt.Errorf("empty body")
		}
		failures = append(failures, fmt.Sprintf("%s: %v", s.name, ferr))
	}
	return "", "", fmt.Errorf("all fetch strategies failed: %s", strings.Join(failures, "; "))
}

// waybackAvailabilityBase is a var so tests can point the availability
// lookup at a local server.
var waybackAvailabilityBase = "https://archive.org/wayback/available?url="

// fetchWayback queries the availability API, then fetches the closest
// archived snapshot.
func (g *GenericExtractor) fetchWayback(ctx context.Context, rawURL string) (string, error) {
	availURL := waybackAvailabilityBase + url.QueryEscape(rawURL)

	availBody, err := g.fetcher.getUncached(ctx, availURL, browserHeaders(), config.ArchiveFetchTimeout)
	if err != nil {
		return "", fmt.Errorf("availability lookup: %w", err)
	}

	snapshotURL := waybackSnapshotURL(availBody)
	if snapshotURL == "" {
		return "", fmt.Errorf("no archived snapshot")
	}
	return g.fetcher.getUncached(ctx, snapshotURL, browserHeaders(), config.ArchiveFetchTimeout)
}

// waybackAvailability mirrors the slice of the availability response we
// read. The top-level "url" field echoes the requested URL, so only the
// closest object can be trusted for the snapshot location.
type waybackAvailability struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// waybackSnapshotURL pulls the closest-snapshot URL out of the
// availability response.
func waybackSnapshotURL(availabilityJSON string) string {
	var avail waybackAvailability
	if err := json.Unmarshal([]byte(availabilityJSON), &avail); err != nil {
		return ""
	}
	closest := avail.ArchivedSnapshots.Closest
	if !closest.Available {
		return ""
	}
	return closest.URL
}

// extractBody prefers the readability algorithm, falling back to a manual
// DOM heuristic when readability yields under MinExtractedTextLength.
func (g *GenericExtractor) extractBody(html, rawURL string) string {
	pageURL, _ := url.Parse(rawURL)

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err == nil {
		text := collapseWhitespace(article.TextContent)
		if len(text) >= config.MinExtractedTextLength {
			return text
		}
	}
	return domHeuristicBody(html)
}

// containerSelectors is searched in order for the most plausible article
// container.
var containerSelectors = []string{
	"article",
	"main",
	"[role=main]",
	"#content",
	".article-content",
	".post-content",
	".entry-content",
	".article-body",
	".post-body",
	".content",
	"body",
}

// domHeuristicBody strips chrome elements and takes the visible text of
// the first sufficiently large container.
func domHeuristicBody(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, footer, aside, noscript, iframe, form").Remove()

	for _, sel := range containerSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := collapseWhitespace(node.Text())
		if len(text) >= config.MinExtractedTextLength {
			return text
		}
	}
	return collapseWhitespace(doc.Text())
}

type pageMeta struct {
	title     string
	authors   []string
	published *time.Time
	image     string
	siteName  string
}

// readMetaTags extracts author-authoritative metadata from <meta> tags,
// independently of (and before) body extraction.
func readMetaTags(doc *goquery.Document) pageMeta {
	var meta pageMeta

	meta.title = firstMetaContent(doc,
		`meta[property="og:title"]`,
		`meta[name="twitter:title"]`,
	)
	if meta.title == "" {
		meta.title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if meta.title == "" {
		meta.title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	if author := firstMetaContent(doc,
		`meta[name="author"]`,
		`meta[property="article:author"]`,
	); author != "" {
		meta.authors = splitAuthors(author)
	}

	if published := firstMetaContent(doc,
		`meta[property="article:published_time"]`,
		`meta[name="date"]`,
		`meta[itemprop="datePublished"]`,
	); published != "" {
		if t, err := dateparse.ParseAny(published); err == nil {
			naive := types.NaiveTime(t)
			meta.published = &naive
		}
	}

	meta.image = firstMetaContent(doc, `meta[property="og:image"]`, `meta[name="twitter:image"]`)
	meta.siteName = firstMetaContent(doc, `meta[property="og:site_name"]`)
	return meta
}

func firstMetaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

var whitespaceExpr = regexp.MustCompile(`[ \t]+`)
var blankLinesExpr = regexp.MustCompile(`\n{3,}`)

// collapseWhitespace normalizes runs of spaces and excess blank lines
// while preserving paragraph breaks.
func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespaceExpr.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLinesExpr.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

var authorSplitExpr = regexp.MustCompile(`\s*(?:,|;|\band\b|&)\s*`)

// splitAuthors breaks a byline on commas, semicolons, and "and".
func splitAuthors(raw string) []string {
	parts := authorSplitExpr.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
