package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sebkrier/alexandria-sub000/types"
)

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "sk-test" {
			t.Errorf("x-api-key = %q", got)
		}
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "## One-line summary\nShort statement over twenty characters long."}]}`)
	}))
	defer srv.Close()

	backend := &anthropicBackend{apiKey: "sk-test", modelID: "claude-test", endpoint: srv.URL}
	provider := &client{backend: backend}

	summary, err := provider.Summarize(context.Background(), "body text", "Title", types.SourceURL)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Abstract != "Short statement over twenty characters long." {
		t.Errorf("abstract = %q", summary.Abstract)
	}
}

func TestAnthropicErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"type": "rate_limit_error", "message": "rate limited"}}`)
	}))
	defer srv.Close()

	backend := &anthropicBackend{apiKey: "sk-test", modelID: "claude-test", endpoint: srv.URL}
	_, err := backend.complete(context.Background(), "", "hi", 16)

	var callErr *types.ProviderCallError
	if !errors.As(err, &callErr) {
		t.Fatalf("err = %v, want ProviderCallError", err)
	}
	if callErr.Provider != "anthropic" || !strings.Contains(callErr.Message, "rate limited") {
		t.Errorf("call error = %+v", callErr)
	}
}

func TestAnthropicStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\ndata: {\"type\": \"message_start\"}\n\n")
		fmt.Fprint(w, "data: {\"type\": \"content_block_delta\", \"delta\": {\"type\": \"text_delta\", \"text\": \"Hello \"}}\n\n")
		fmt.Fprint(w, "data: {\"type\": \"content_block_delta\", \"delta\": {\"type\": \"text_delta\", \"text\": \"world\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\": \"message_stop\"}\n\n")
	}))
	defer srv.Close()

	backend := &anthropicBackend{apiKey: "sk-test", modelID: "claude-test", endpoint: srv.URL}

	var sb strings.Builder
	err := backend.stream(context.Background(), "", "hi", 16, func(token string) error {
		sb.WriteString(token)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if sb.String() != "Hello world" {
		t.Errorf("streamed = %q", sb.String())
	}
}

func TestOpenAIStreamStopsAtDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\": [{\"delta\": {\"content\": \"to\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\": [{\"delta\": {\"content\": \"ken\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	backend := &openaiBackend{apiKey: "sk-test", modelID: "gpt-test", endpoint: srv.URL}

	var sb strings.Builder
	err := backend.stream(context.Background(), "sys", "hi", 16, func(token string) error {
		sb.WriteString(token)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if sb.String() != "token" {
		t.Errorf("streamed = %q", sb.String())
	}
}

func TestGoogleComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "key=g-test") {
			t.Errorf("api key missing from query: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": "answer text"}]}}]}`)
	}))
	defer srv.Close()

	backend := &googleBackend{apiKey: "g-test", modelID: "gemini-test", endpoint: srv.URL}
	got, err := backend.complete(context.Background(), "sys", "question", 64)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "answer text" {
		t.Errorf("completion = %q", got)
	}
}

func TestFactory(t *testing.T) {
	for _, family := range []string{"anthropic", "openai", "google"} {
		p, err := New(family, "key", "")
		if err != nil {
			t.Fatalf("New(%s): %v", family, err)
		}
		if p.Name() != family {
			t.Errorf("name = %q, want %q", p.Name(), family)
		}
	}

	var cfgErr *types.ProviderConfigurationError
	if _, err := New("mistral", "key", ""); !errors.As(err, &cfgErr) {
		t.Errorf("unknown family err = %v", err)
	}
	if _, err := New("openai", "", ""); !errors.As(err, &cfgErr) {
		t.Errorf("missing key err = %v", err)
	}
}
