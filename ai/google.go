package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const googleEndpointBase = "https://generativelanguage.googleapis.com/v1beta/models"

// googleBackend talks to the Gemini generateContent API.
// Docs: https://ai.google.dev/api/generate-content
type googleBackend struct {
	apiKey   string
	modelID  string
	endpoint string
}

// NewGoogle returns a Provider backed by the Gemini API.
func NewGoogle(apiKey, modelID string) Provider {
	if modelID == "" {
		modelID = "gemini-2.0-flash"
	}
	return &client{backend: &googleBackend{apiKey: apiKey, modelID: modelID}}
}

func (g *googleBackend) name() string  { return "google" }
func (g *googleBackend) model() string { return g.modelID }

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	SystemInstruction *googleContent  `json:"system_instruction,omitempty"`
	Contents          []googleContent `json:"contents"`
	GenerationConfig  struct {
		MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
}

func (r googleResponse) text() string {
	var sb strings.Builder
	for _, cand := range r.Candidates {
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func (g *googleBackend) url(method string) string {
	base := g.endpoint
	if base == "" {
		base = googleEndpointBase
	}
	u := fmt.Sprintf("%s/%s:%s?key=%s", base, g.modelID, method, g.apiKey)
	if method == "streamGenerateContent" {
		u += "&alt=sse"
	}
	return u
}

func (g *googleBackend) newRequest(ctx context.Context, method, system, user string, maxTokens int) (*http.Request, error) {
	payload := googleRequest{
		Contents: []googleContent{{Role: "user", Parts: []googlePart{{Text: user}}}},
	}
	if system != "" {
		payload.SystemInstruction = &googleContent{Parts: []googlePart{{Text: system}}}
	}
	payload.GenerationConfig.MaxOutputTokens = maxTokens

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.url(method), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (g *googleBackend) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	req, err := g.newRequest(ctx, "generateContent", system, user, maxTokens)
	if err != nil {
		return "", callError(g.name(), "build request", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", callError(g.name(), "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", callError(g.name(), apiErrorMessage(resp), nil)
	}

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", callError(g.name(), "decode response", err)
	}
	text := parsed.text()
	if text == "" {
		return "", callError(g.name(), "empty completion", nil)
	}
	return text, nil
}

func (g *googleBackend) stream(ctx context.Context, system, user string, maxTokens int, emit func(string) error) error {
	req, err := g.newRequest(ctx, "streamGenerateContent", system, user, maxTokens)
	if err != nil {
		return callError(g.name(), "build request", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return callError(g.name(), "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return callError(g.name(), apiErrorMessage(resp), nil)
	}

	return readSSE(resp.Body, func(data string) error {
		var chunk googleResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil
		}
		if text := chunk.text(); text != "" {
			return emit(text)
		}
		return nil
	})
}
