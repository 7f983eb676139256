package extract

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/types"
)

const arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivIDExprs covers the known URL shapes: abs, pdf (with optional .pdf
// suffix), html, legacy archive/number under abs|pdf, and a bare legacy
// archive/number path.
var arxivIDExprs = []*regexp.Regexp{
	regexp.MustCompile(`arxiv\.org/abs/(\d{4}\.\d{4,5}(?:v\d+)?)`),
	regexp.MustCompile(`arxiv\.org/pdf/(\d{4}\.\d{4,5}(?:v\d+)?)(?:\.pdf)?`),
	regexp.MustCompile(`arxiv\.org/html/(\d{4}\.\d{4,5}(?:v\d+)?)`),
	regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/([a-z-]+(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?)`),
	regexp.MustCompile(`arxiv\.org/([a-z-]+(?:\.[A-Z]{2})?/\d{7})(?:$|[?#])`),
}

var arxivVersionExpr = regexp.MustCompile(`v\d+$`)

// ArxivExtractor resolves an arXiv identifier, fetches metadata from the
// arXiv API, and delegates body text to the PDF extractor.
type ArxivExtractor struct {
	fetcher *Fetcher
	pdf     *PDFExtractor
}

func NewArxivExtractor(fetcher *Fetcher, pdf *PDFExtractor) *ArxivExtractor {
	return &ArxivExtractor{fetcher: fetcher, pdf: pdf}
}

func (a *ArxivExtractor) Extractor() Extractor {
	return Extractor{
		Name: "arxiv",
		CanHandle: func(rawURL string) bool {
			return parseArxivID(rawURL) != ""
		},
		Extract: a.Extract,
	}
}

// parseArxivID pulls the identifier (version suffix included, when the
// caller asked for one) out of any known URL shape.
func parseArxivID(rawURL string) string {
	for _, expr := range arxivIDExprs {
		if m := expr.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// stripArxivVersion removes a trailing vN. The metadata API is queried
// versionless; the caller's requested version is preserved in the output.
func stripArxivVersion(id string) string {
	return arxivVersionExpr.ReplaceAllString(id, "")
}

func (a *ArxivExtractor) Extract(ctx context.Context, rawURL string) (*types.ExtractedContent, error) {
	requestedID := parseArxivID(rawURL)
	if requestedID == "" {
		return nil, fmt.Errorf("no arXiv id in %s", rawURL)
	}
	baseID := stripArxivVersion(requestedID)

	meta, err := a.fetchMetadata(ctx, baseID)
	if err != nil {
		return nil, fmt.Errorf("arxiv metadata for %s: %w", baseID, err)
	}

	text, err := a.fetchPaperText(ctx, requestedID)
	if err != nil {
		// The abstract alone is not enough to pass validation, so a PDF
		// failure is an extraction failure.
		return nil, fmt.Errorf("arxiv pdf for %s: %w", requestedID, err)
	}

	content := &types.ExtractedContent{
		Title:       meta.title,
		Text:        text,
		Authors:     meta.authors,
		SourceType:  types.SourceArxiv,
		OriginalURL: rawURL,
		Metadata: map[string]interface{}{
			"arxiv_id": requestedID,
			"abstract": meta.abstract,
		},
	}
	if len(meta.categories) > 0 {
		content.Metadata["categories"] = meta.categories
	}
	if meta.published != nil {
		naive := types.NaiveTime(*meta.published)
		content.PublicationDate = &naive
	}
	return content, nil
}

type arxivMeta struct {
	title      string
	abstract   string
	authors    []string
	categories []string
	published  *time.Time
}

type arxivAtomFeed struct {
	XMLName xml.Name         `xml:"feed"`
	Entries []arxivAtomEntry `xml:"entry"`
}

type arxivAtomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Categories []struct {
		Term string `xml:"term,attr"`
	} `xml:"category"`
}

func (a *ArxivExtractor) fetchMetadata(ctx context.Context, id string) (*arxivMeta, error) {
	apiURL := fmt.Sprintf("%s?id_list=%s&max_results=1", arxivAPIBase, id)

	body, err := a.fetcher.Get(ctx, apiURL, map[string]string{"Accept": "application/atom+xml"}, config.DirectFetchTimeout)
	if err != nil {
		return nil, err
	}

	var feed arxivAtomFeed
	if err := xml.Unmarshal([]byte(body), &feed); err != nil {
		return nil, fmt.Errorf("parse atom feed: %w", err)
	}
	if len(feed.Entries) == 0 || strings.TrimSpace(feed.Entries[0].Title) == "" {
		return nil, fmt.Errorf("paper not found")
	}

	entry := feed.Entries[0]
	meta := &arxivMeta{
		title:    collapseWhitespace(entry.Title),
		abstract: collapseWhitespace(entry.Summary),
	}
	for _, au := range entry.Authors {
		if name := strings.TrimSpace(au.Name); name != "" {
			meta.authors = append(meta.authors, name)
		}
	}
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			meta.categories = append(meta.categories, cat.Term)
		}
	}
	if entry.Published != "" {
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			meta.published = &t
		}
	}
	return meta, nil
}

// fetchPaperText downloads the PDF to a temporary file and delegates text
// extraction to the PDF extractor.
func (a *ArxivExtractor) fetchPaperText(ctx context.Context, id string) (string, error) {
	pdfURL := fmt.Sprintf("https://arxiv.org/pdf/%s", id)

	reqCtx, cancel := context.WithTimeout(ctx, config.BypassFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", desktopUA)

	resp, err := a.fetcher.Client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "arxiv-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	return a.pdf.ExtractText(tmp.Name())
}
