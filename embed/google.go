package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const googleEmbedModel = "text-embedding-004"

// GoogleProvider implements Provider using the Gemini embedContent API.
// Docs: https://ai.google.dev/api/embeddings
// text-embedding-004 is natively 768-dimensional and trained with
// asymmetric retrieval task types.
type GoogleProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewGoogle(apiKey string) *GoogleProvider {
	return &GoogleProvider{
		apiKey: apiKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GoogleProvider) ModelName() string { return googleEmbedModel }

func (g *GoogleProvider) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	taskType := "RETRIEVAL_DOCUMENT"
	if mode == ModeQuery {
		taskType = "RETRIEVAL_QUERY"
	}

	payload := map[string]interface{}{
		"model": "models/" + googleEmbedModel,
		"content": map[string]interface{}{
			"parts": []map[string]string{{"text": text}},
		},
		"taskType": taskType,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := g.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent", googleEmbedModel)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("google embed error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("google embed decode: %w", err)
	}
	return checkDimensions(parsed.Embedding.Values, googleEmbedModel)
}
