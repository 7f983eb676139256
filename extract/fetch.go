package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sebkrier/alexandria-sub000/config"
)

const maxFetchBody = 10 << 20 // 10 MiB cap on any fetched page

// Fetcher issues the outbound HTTP requests for the extraction cascade,
// with an optional Redis cache in front so repeated ingestions of the
// same URL don't hammer the source.
type Fetcher struct {
	client *http.Client
	rdb    *redis.Client
}

// NewFetcher builds a fetcher; rdb may be nil to disable caching.
func NewFetcher(rdb *redis.Client) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			// Per-request timeouts come from the context; the client-level
			// timeout is a hard backstop.
			Timeout: 60 * time.Second,
		},
		rdb: rdb,
	}
}

// Client exposes the underlying HTTP client for probes.
func (f *Fetcher) Client() *http.Client { return f.client }

// Get fetches a URL with the given headers and per-tier timeout,
// returning the body. Successful bodies are cached for FetchCacheTTL.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (string, error) {
	if cached, ok := f.cacheGet(ctx, rawURL); ok {
		return cached, nil
	}

	body, err := f.getUncached(ctx, rawURL, headers, timeout)
	if err != nil {
		return "", err
	}
	f.cacheSet(ctx, rawURL, body)
	return body, nil
}

func (f *Fetcher) getUncached(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	applyHeaders(req, headers)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// PostJSON sends a JSON payload and decodes the JSON response into out.
func (f *Fetcher) PostJSON(ctx context.Context, rawURL string, payload io.Reader, out interface{}, timeout time.Duration) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, rawURL, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (f *Fetcher) cacheGet(ctx context.Context, rawURL string) (string, bool) {
	if f.rdb == nil {
		return "", false
	}
	val, err := f.rdb.Get(ctx, fetchCacheKey(rawURL)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (f *Fetcher) cacheSet(ctx context.Context, rawURL, body string) {
	if f.rdb == nil {
		return
	}
	// Best effort: a cache write failure never fails an extraction.
	f.rdb.Set(ctx, fetchCacheKey(rawURL), body, config.FetchCacheTTL)
}

func fetchCacheKey(rawURL string) string {
	return "fetch:" + rawURL
}

func applyHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// browserHeaders mimics a standard desktop browser request.
func browserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      desktopUA,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
}

// googleRefererHeaders spoofs a click-through from a Google search result,
// which many paywalls allowlist.
func googleRefererHeaders(target string) map[string]string {
	h := browserHeaders()
	h["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(target)
	return h
}

// mobileHeaders mimics a phone browser; some sites serve mobile clients a
// lighter, unpaywalled page.
func mobileHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
}
