package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/types"
)

// PDFExtractor reads local PDF files with MuPDF. It is also the delegate
// for URL sources that turn out to serve application/pdf.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// ExtractFile reads a local PDF into normalized content.
func (p *PDFExtractor) ExtractFile(_ context.Context, path string) (*types.ExtractedContent, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	text, truncated, err := readAllPages(doc)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", path, err)
	}

	docMeta := doc.Metadata()
	title := resolvePDFTitle(docMeta["title"], text, path)
	authors := splitAuthors(docMeta["author"])

	content := &types.ExtractedContent{
		Title:      title,
		Text:       text,
		Authors:    authors,
		SourceType: types.SourcePDF,
		FilePath:   path,
		Metadata: map[string]interface{}{
			"page_count": doc.NumPage(),
			"filename":   filepath.Base(path),
		},
	}
	if truncated {
		content.Metadata["truncated"] = true
	}
	if docMeta["creationDate"] != "" {
		content.Metadata["creation_date"] = docMeta["creationDate"]
	}
	return content, nil
}

// ExtractURL downloads a PDF served over HTTP to a temporary file first.
func (p *PDFExtractor) ExtractURL(ctx context.Context, rawURL string) (*types.ExtractedContent, error) {
	reqCtx, cancel := context.WithTimeout(ctx, config.BypassFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", desktopUA)

	resp, err := (&http.Client{Timeout: 60 * time.Second}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("download pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download pdf: status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "download-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	content, err := p.ExtractFile(ctx, tmp.Name())
	if err != nil {
		return nil, err
	}
	content.SourceType = types.SourcePDF
	content.OriginalURL = rawURL
	content.FilePath = ""
	return content, nil
}

// ExtractText returns just the cleaned body text of a PDF file.
func (p *PDFExtractor) ExtractText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	text, _, err := readAllPages(doc)
	return text, err
}

// Thumbnail renders the first page at ThumbnailDPI and returns PNG bytes.
// Used by listing UIs; kept on the same file-handle lifecycle as text
// extraction (open, render, close).
func (p *PDFExtractor) Thumbnail(path string) ([]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("pdf %s has no pages", path)
	}

	img, err := doc.ImageDPI(0, config.ThumbnailDPI)
	if err != nil {
		return nil, fmt.Errorf("render first page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// readAllPages concatenates per-page text, cleans whitespace, and applies
// the hard truncation that bounds downstream token costs.
func readAllPages(doc *fitz.Document) (text string, truncated bool, err error) {
	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			return "", false, fmt.Errorf("page %d: %w", i+1, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")

		if sb.Len() > config.MaxPDFTextLength {
			break
		}
	}

	cleaned := collapseWhitespace(sb.String())
	if len(cleaned) > config.MaxPDFTextLength {
		return cleaned[:config.MaxPDFTextLength] + config.PDFTruncationMarker, true, nil
	}
	return cleaned, false, nil
}

// resolvePDFTitle applies the title cascade: document metadata, then a
// heuristic scan of the opening lines, then the filename stem.
func resolvePDFTitle(metaTitle, text, path string) string {
	if t := strings.TrimSpace(metaTitle); len(t) > 3 {
		return t
	}
	if t := titleFromBody(text); t != "" {
		return t
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimSpace(stem)
}

// titleFromBody scans the first lines for something title-shaped:
// 10-200 chars, not a sentence (no trailing period), not a URL.
func titleFromBody(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 20 {
		lines = lines[:20]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) < 10 || len(line) > 200 {
			continue
		}
		if strings.HasSuffix(line, ".") || strings.HasPrefix(line, "http") {
			continue
		}
		return line
	}
	return ""
}
