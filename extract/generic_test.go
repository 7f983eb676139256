package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestReadMetaTagsTitlePriority(t *testing.T) {
	doc := docFrom(t, `<html><head>
		<meta property="og:title" content="OG Title">
		<meta name="twitter:title" content="Twitter Title">
		<title>Document Title</title>
	</head><body><h1>Heading</h1></body></html>`)

	if got := readMetaTags(doc).title; got != "OG Title" {
		t.Errorf("title = %q, want OG Title", got)
	}
}

func TestReadMetaTagsTitleFallbacks(t *testing.T) {
	doc := docFrom(t, `<html><head><title>Document Title</title></head><body></body></html>`)
	if got := readMetaTags(doc).title; got != "Document Title" {
		t.Errorf("title = %q", got)
	}

	doc = docFrom(t, `<html><body><h1>Only Heading</h1></body></html>`)
	if got := readMetaTags(doc).title; got != "Only Heading" {
		t.Errorf("title = %q", got)
	}
}

func TestReadMetaTagsPublishedDateIsNaive(t *testing.T) {
	doc := docFrom(t, `<html><head>
		<meta property="article:published_time" content="2024-03-05T10:30:00-07:00">
	</head><body></body></html>`)

	meta := readMetaTags(doc)
	if meta.published == nil {
		t.Fatal("published not parsed")
	}
	// The zone is dropped, not converted: the clock reading survives.
	if meta.published.Hour() != 10 || meta.published.Minute() != 30 {
		t.Errorf("clock = %02d:%02d, want 10:30", meta.published.Hour(), meta.published.Minute())
	}
	if meta.published.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", meta.published.Location())
	}
}

func TestReadMetaTagsAuthors(t *testing.T) {
	doc := docFrom(t, `<html><head>
		<meta name="author" content="Ada Lovelace, Charles Babbage and Alan Turing">
	</head><body></body></html>`)

	got := readMetaTags(doc).authors
	want := []string{"Ada Lovelace", "Charles Babbage", "Alan Turing"}
	if len(got) != len(want) {
		t.Fatalf("authors = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("authors[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWaybackSnapshotURL(t *testing.T) {
	// The availability API echoes the requested URL in a top-level "url"
	// field ahead of the snapshot; only the closest snapshot may win.
	avail := `{"url": "https://example.com/post", "archived_snapshots": {"closest": {"status": "200", "available": true, "url": "http:\/\/web.archive.org\/web\/2024\/https:\/\/example.com\/post", "timestamp": "20240101"}}}`
	if got := waybackSnapshotURL(avail); got != "http://web.archive.org/web/2024/https://example.com/post" {
		t.Errorf("snapshot url = %q", got)
	}

	if got := waybackSnapshotURL(`{"url": "https://example.com/post", "archived_snapshots": {}}`); got != "" {
		t.Errorf("expected empty for unavailable, got %q", got)
	}
	if got := waybackSnapshotURL(`{"archived_snapshots":{"closest":{"available":false,"url":"http://x"}}}`); got != "" {
		t.Errorf("expected empty when available is false, got %q", got)
	}
	if got := waybackSnapshotURL(`not json`); got != "" {
		t.Errorf("expected empty for malformed payload, got %q", got)
	}
}

// A page that every direct strategy fails on must still come back through
// the archived snapshot, with the cascade recording the strategy used.
func TestExtractPageFallsBackToArchivedSnapshot(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer origin.Close()

	var archiveURL string
	archive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/wayback/available"):
			fmt.Fprintf(w,
				`{"url": %q, "archived_snapshots": {"closest": {"status": "200", "available": true, "url": %q, "timestamp": "20240101000000"}}}`,
				r.URL.Query().Get("url"), archiveURL+"/snapshot")
		case r.URL.Path == "/snapshot":
			fmt.Fprint(w, articleHTML("Archived Copy", longBody(20)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer archive.Close()
	archiveURL = archive.URL

	restore := waybackAvailabilityBase
	waybackAvailabilityBase = archive.URL + "/wayback/available?url="
	defer func() { waybackAvailabilityBase = restore }()

	g := NewGenericExtractor(NewFetcher(nil))
	content, err := g.ExtractPage(context.Background(), origin.URL+"/post")
	if err != nil {
		t.Fatalf("ExtractPage: %v", err)
	}
	if content.Title != "Archived Copy" {
		t.Errorf("title = %q, want the archived page title", content.Title)
	}
	if content.Metadata["fetch_strategy"] != "wayback" {
		t.Errorf("fetch_strategy = %v, want wayback", content.Metadata["fetch_strategy"])
	}
	if content.OriginalURL != origin.URL+"/post" {
		t.Errorf("original url = %q, want the origin, not the snapshot", content.OriginalURL)
	}
}

func TestDomHeuristicBodyPrefersArticle(t *testing.T) {
	html := `<html><body>
		<nav>Home About Contact</nav>
		<script>var junk = 1;</script>
		<article>` + longBody(10) + `</article>
		<footer>Copyright</footer>
	</body></html>`

	body := domHeuristicBody(html)
	if strings.Contains(body, "Home About Contact") || strings.Contains(body, "var junk") {
		t.Errorf("chrome elements leaked into body: %q", body[:80])
	}
	if !strings.Contains(body, "dull extraction tests") {
		t.Errorf("article text missing from body")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	in := "line  one\t\there\r\n\n\n\n\nline two   \n"
	want := "line one here\n\nline two"
	if got := collapseWhitespace(in); got != want {
		t.Errorf("collapseWhitespace = %q, want %q", got, want)
	}
}

func TestHostOf(t *testing.T) {
	if got := hostOf("https://www.Example.COM/a/b"); got != "example.com" {
		t.Errorf("hostOf = %q", got)
	}
	if got := hostOf("://bad"); got != "" {
		t.Errorf("hostOf(bad) = %q, want empty", got)
	}
}
