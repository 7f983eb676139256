package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

const openaiEndpoint = "https://api.openai.com/v1/chat/completions"

// openaiBackend talks to the OpenAI Chat Completions API.
// Docs: https://platform.openai.com/docs/api-reference/chat
type openaiBackend struct {
	apiKey   string
	modelID  string
	endpoint string
}

// NewOpenAI returns a Provider backed by the OpenAI Chat Completions API.
func NewOpenAI(apiKey, modelID string) Provider {
	if modelID == "" {
		modelID = "gpt-4o"
	}
	return &client{backend: &openaiBackend{apiKey: apiKey, modelID: modelID}}
}

func (o *openaiBackend) name() string  { return "openai" }
func (o *openaiBackend) model() string { return o.modelID }

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
	Stream    bool            `json:"stream,omitempty"`
}

func (o *openaiBackend) url() string {
	if o.endpoint != "" {
		return o.endpoint
	}
	return openaiEndpoint
}

func (o *openaiBackend) newRequest(ctx context.Context, system, user string, maxTokens int, stream bool) (*http.Request, error) {
	messages := []openaiMessage{}
	if system != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: system})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: user})

	body, err := json.Marshal(openaiRequest{
		Model:     o.modelID,
		Messages:  messages,
		MaxTokens: maxTokens,
		Stream:    stream,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.url(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	return req, nil
}

func (o *openaiBackend) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	req, err := o.newRequest(ctx, system, user, maxTokens, false)
	if err != nil {
		return "", callError(o.name(), "build request", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", callError(o.name(), "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", callError(o.name(), apiErrorMessage(resp), nil)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", callError(o.name(), "decode response", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", callError(o.name(), "empty completion", nil)
	}
	return parsed.Choices[0].Message.Content, nil
}

func (o *openaiBackend) stream(ctx context.Context, system, user string, maxTokens int, emit func(string) error) error {
	req, err := o.newRequest(ctx, system, user, maxTokens, true)
	if err != nil {
		return callError(o.name(), "build request", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return callError(o.name(), "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return callError(o.name(), apiErrorMessage(resp), nil)
	}

	return readSSE(resp.Body, func(data string) error {
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			return emit(chunk.Choices[0].Delta.Content)
		}
		return nil
	})
}
