// Package extract turns URLs and local files into normalized content
// records. Dispatch is a chain of responsibility: source-specific
// extractors are tried in priority order, with a Content-Type probe as the
// second phase because URLs lie about their own type (a paywalled PDF is
// often served without a .pdf suffix).
package extract

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/types"
)

// Extractor pairs a cheap URL predicate with a potentially slow,
// I/O-bound extraction function. No subclassing, no virtual dispatch:
// registration order is priority order.
type Extractor struct {
	Name      string
	CanHandle func(rawURL string) bool
	Extract   func(ctx context.Context, rawURL string) (*types.ExtractedContent, error)
}

// Router dispatches extraction. Most specific extractors first; the
// generic URL extractor matches any http(s) URL and must stay last.
type Router struct {
	extractors []Extractor
	pdf        *PDFExtractor
	generic    *GenericExtractor
	client     *http.Client
}

// Options configures the router's extractors.
type Options struct {
	Fetcher       *Fetcher
	YouTubeAPIKey string
	CurlPath      string // defaults to "curl" on PATH
}

// NewRouter wires all extractors in priority order.
func NewRouter(opts Options) *Router {
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(nil)
	}

	pdf := NewPDFExtractor()
	generic := NewGenericExtractor(fetcher)
	arxiv := NewArxivExtractor(fetcher, pdf)
	substack := NewSubstackExtractor(opts.CurlPath)
	lesswrong := NewLessWrongExtractor(fetcher)
	youtube := NewYouTubeExtractor(opts.YouTubeAPIKey)

	return &Router{
		extractors: []Extractor{
			arxiv.Extractor(),
			substack.Extractor(),
			lesswrong.Extractor(),
			youtube.Extractor(),
			generic.Extractor(), // universal fallback, must be last
		},
		pdf:     pdf,
		generic: generic,
		client:  fetcher.Client(),
	}
}

// ExtractFile skips routing entirely and reads a local PDF.
func (r *Router) ExtractFile(ctx context.Context, path string) (*types.ExtractedContent, error) {
	content, err := r.pdf.ExtractFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return validated(content, path, []string{"pdf"})
}

// ExtractURL runs the two-phase dispatch: pattern match first, then a
// Content-Type probe when the matched extractor fails. A failing specific
// extractor is never retried through less-specific pattern matches.
func (r *Router) ExtractURL(ctx context.Context, rawURL string) (*types.ExtractedContent, error) {
	var attempted []string

	for _, ex := range r.extractors {
		if !ex.CanHandle(rawURL) {
			continue
		}
		attempted = append(attempted, ex.Name)

		content, err := ex.Extract(ctx, rawURL)
		if err == nil {
			valid, verr := validated(content, rawURL, attempted)
			if verr == nil {
				return valid, nil
			}
			err = verr // near-empty body counts as a failure
		}
		log.Printf("extractor %s failed for %s: %v", ex.Name, rawURL, err)

		return r.sniffFallback(ctx, rawURL, ex.Name, attempted, err)
	}

	// Unreachable while generic stays registered, but kept so the router
	// degrades sanely if the list is ever reordered.
	return r.sniffFallback(ctx, rawURL, "", attempted, fmt.Errorf("no extractor matched"))
}

// sniffFallback is phase two: probe the Content-Type and route by what the
// server actually serves.
func (r *Router) sniffFallback(ctx context.Context, rawURL, failedName string, attempted []string, cause error) (*types.ExtractedContent, error) {
	switch probeContentType(ctx, r.client, rawURL) {
	case contentPDF:
		attempted = append(attempted, "content-type:pdf")
		content, err := r.pdf.ExtractURL(ctx, rawURL)
		if err == nil {
			return validated(content, rawURL, attempted)
		}
		cause = err
	case contentHTML:
		if failedName != extractorGeneric {
			attempted = append(attempted, "content-type:html")
			content, err := r.generic.ExtractPage(ctx, rawURL)
			if err == nil {
				return validated(content, rawURL, attempted)
			}
			cause = err
		}
	default:
		// Probe failed or returned something unroutable: last resort is
		// the generic extractor, unless it is what just failed.
		if failedName != extractorGeneric {
			attempted = append(attempted, extractorGeneric)
			content, err := r.generic.ExtractPage(ctx, rawURL)
			if err == nil {
				return validated(content, rawURL, attempted)
			}
			cause = err
		}
	}

	return nil, &types.ExtractionError{Source: rawURL, Attempted: attempted, Err: cause}
}

type probedType int

const (
	contentUnknown probedType = iota
	contentPDF
	contentHTML
)

func probeContentType(ctx context.Context, client *http.Client, rawURL string) probedType {
	probeCtx, cancel := context.WithTimeout(ctx, config.ContentTypeProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, rawURL, nil)
	if err != nil {
		return contentUnknown
	}
	applyHeaders(req, browserHeaders())

	resp, err := client.Do(req)
	if err != nil {
		return contentUnknown
	}
	defer resp.Body.Close()

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(ct, "application/pdf"):
		return contentPDF
	case strings.Contains(ct, "text/html"), strings.Contains(ct, "text/plain"):
		return contentHTML
	default:
		return contentUnknown
	}
}

// validated enforces the shared failure semantics: required fields are
// defaulted, and a body under the minimum length is a failure, not a
// near-empty success.
func validated(content *types.ExtractedContent, source string, attempted []string) (*types.ExtractedContent, error) {
	if content.Title == "" {
		content.Title = "Untitled"
	}
	if content.Authors == nil {
		content.Authors = []string{}
	}
	if content.Metadata == nil {
		content.Metadata = map[string]interface{}{}
	}
	if len(strings.TrimSpace(content.Text)) < config.MinExtractedTextLength {
		return nil, &types.ExtractionError{
			Source:    source,
			Attempted: attempted,
			Err:       fmt.Errorf("extracted text too short (%d chars)", len(content.Text)),
		}
	}
	return content, nil
}
