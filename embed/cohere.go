package embed

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"github.com/sebkrier/alexandria-sub000/config"
)

// CohereProvider implements Provider using the Cohere Embed API (v2).
// Docs: https://docs.cohere.com/reference/embed
type CohereProvider struct {
	client *cohereclient.Client
	model  string
}

// NewCohere builds a Cohere-backed provider. The HTTP client forces
// HTTP/1.1 because the Cohere edge intermittently breaks HTTP/2 streams.
func NewCohere(apiKey, model string) *CohereProvider {
	if model == "" {
		model = "embed-v4.0"
	}
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereProvider{client: client, model: model}
}

func (c *CohereProvider) ModelName() string { return c.model }

func (c *CohereProvider) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	inputType := cohere.EmbedInputTypeSearchDocument
	if mode == ModeQuery {
		inputType = cohere.EmbedInputTypeSearchQuery
	}
	dims := config.EmbeddingDimensions

	resp, err := c.client.V2.Embed(
		ctx,
		&cohere.V2EmbedRequest{
			Texts:           []string{text},
			Model:           c.model,
			InputType:       inputType,
			EmbeddingTypes:  []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
			OutputDimension: &dims,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("cohere embed error: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, errors.New("cohere embed returned no float embeddings")
	}

	floats := resp.Embeddings.Float
	if len(floats) != 1 {
		return nil, errors.New("embedding count mismatch")
	}

	vec := make([]float32, len(floats[0]))
	for i, v := range floats[0] {
		vec[i] = float32(v)
	}
	return checkDimensions(vec, c.model)
}
