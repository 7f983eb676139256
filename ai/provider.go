// Package ai is the LLM provider abstraction: one uniform interface over
// the Anthropic, OpenAI, and Google chat APIs, plus the parsing needed to
// get structured suggestions out of free-form model output.
package ai

import (
	"context"
	"net/http"
	"time"

	"github.com/sebkrier/alexandria-sub000/types"
)

// Provider is the uniform surface every LLM backend exposes. All calls are
// remote and must surface backend errors as ProviderCallError.
type Provider interface {
	Summarize(ctx context.Context, text, title string, sourceType types.SourceType) (*types.Summary, error)
	SuggestTags(ctx context.Context, text, abstract string, existingTags []string) ([]types.TagSuggestion, error)
	SuggestCategory(ctx context.Context, text, abstract string, categories []string) (*types.CategorySuggestion, error)
	AnswerQuestion(ctx context.Context, question, contextBlock string) (string, error)
	StreamAnswer(ctx context.Context, question, contextBlock string, emit func(token string) error) error
	HealthCheck(ctx context.Context) error

	Name() string
	Model() string
}

// backend is the thin per-vendor layer: send one prompt, get one
// completion. Everything above it (prompting, parsing, thresholds) is
// vendor-independent.
type backend interface {
	complete(ctx context.Context, system, user string, maxTokens int) (string, error)
	stream(ctx context.Context, system, user string, maxTokens int, emit func(token string) error) error
	name() string
	model() string
}

var httpClient = &http.Client{Timeout: 120 * time.Second}

// client implements Provider on top of any backend.
type client struct {
	backend backend
}

func (c *client) Name() string  { return c.backend.name() }
func (c *client) Model() string { return c.backend.model() }

func (c *client) Summarize(ctx context.Context, text, title string, sourceType types.SourceType) (*types.Summary, error) {
	system, user := summarizePrompt(text, title, sourceType)
	raw, err := c.backend.complete(ctx, system, user, summaryTokens)
	if err != nil {
		return nil, err
	}
	return BuildSummary(raw), nil
}

func (c *client) SuggestTags(ctx context.Context, text, abstract string, existingTags []string) ([]types.TagSuggestion, error) {
	system, user := tagPrompt(text, abstract, existingTags)
	raw, err := c.backend.complete(ctx, system, user, suggestionTokens)
	if err != nil {
		return nil, err
	}
	return ParseTagSuggestions(raw)
}

func (c *client) SuggestCategory(ctx context.Context, text, abstract string, categories []string) (*types.CategorySuggestion, error) {
	system, user := categoryPrompt(text, abstract, categories)
	raw, err := c.backend.complete(ctx, system, user, suggestionTokens)
	if err != nil {
		return nil, err
	}
	return ParseCategorySuggestion(raw)
}

func (c *client) AnswerQuestion(ctx context.Context, question, contextBlock string) (string, error) {
	system, user := answerPrompt(question, contextBlock)
	return c.backend.complete(ctx, system, user, answerTokens)
}

func (c *client) StreamAnswer(ctx context.Context, question, contextBlock string, emit func(token string) error) error {
	system, user := answerPrompt(question, contextBlock)
	return c.backend.stream(ctx, system, user, answerTokens, emit)
}

// HealthCheck sends the cheapest possible round trip.
func (c *client) HealthCheck(ctx context.Context) error {
	_, err := c.backend.complete(ctx, "", "Reply with OK.", 8)
	return err
}

func callError(provider, message string, err error) error {
	return &types.ProviderCallError{Provider: provider, Message: message, Err: err}
}
