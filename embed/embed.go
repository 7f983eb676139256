// Package embed generates the article and query vectors used by semantic
// search. The underlying models are asymmetric: indexed content uses the
// document encoding and search questions the query encoding, and the two
// must never be mixed.
package embed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sebkrier/alexandria-sub000/config"
)

// Mode selects the asymmetric encoding side.
type Mode string

const (
	ModeDocument Mode = "document"
	ModeQuery    Mode = "query"
)

// Provider generates one embedding vector for one text.
type Provider interface {
	Embed(ctx context.Context, text string, mode Mode) ([]float32, error)
	ModelName() string
}

// NewDefaultProvider picks a provider from the environment: Cohere when
// COHERE_API_KEY is set, else Gemini when GOOGLE_API_KEY is set, else nil
// (embeddings stay null and search degrades to keyword-only).
func NewDefaultProvider() Provider {
	if key := os.Getenv("COHERE_API_KEY"); key != "" {
		return NewCohere(key, os.Getenv("COHERE_EMBED_MODEL"))
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		return NewGoogle(key)
	}
	return nil
}

// BuildDocumentInput assembles the canonical embedding input: title and
// summary lines plus the opening slice of body text.
func BuildDocumentInput(title, summary, text string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString("Title: " + title + "\n")
	}
	if summary != "" {
		sb.WriteString("Summary: " + summary + "\n")
	}
	if len(text) > config.EmbeddingTextLimit {
		text = text[:config.EmbeddingTextLimit]
	}
	sb.WriteString(text)
	return sb.String()
}

// checkDimensions rejects vectors that would not fit the vector column.
func checkDimensions(vec []float32, model string) ([]float32, error) {
	if len(vec) != config.EmbeddingDimensions {
		return nil, fmt.Errorf("model %s returned %d dimensions, want %d", model, len(vec), config.EmbeddingDimensions)
	}
	return vec, nil
}
