package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicEndpoint = "https://api.anthropic.com/v1/messages"

// anthropicBackend talks to the Anthropic Messages API.
// Docs: https://docs.anthropic.com/en/api/messages
type anthropicBackend struct {
	apiKey   string
	modelID  string
	endpoint string
}

// NewAnthropic returns a Provider backed by the Anthropic Messages API.
func NewAnthropic(apiKey, modelID string) Provider {
	if modelID == "" {
		modelID = "claude-sonnet-4-20250514"
	}
	return &client{backend: &anthropicBackend{apiKey: apiKey, modelID: modelID}}
}

func (a *anthropicBackend) name() string  { return "anthropic" }
func (a *anthropicBackend) model() string { return a.modelID }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Stream    bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a *anthropicBackend) url() string {
	if a.endpoint != "" {
		return a.endpoint
	}
	return anthropicEndpoint
}

func (a *anthropicBackend) newRequest(ctx context.Context, system, user string, maxTokens int, stream bool) (*http.Request, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     a.modelID,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
		Stream:    stream,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.url(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return req, nil
}

func (a *anthropicBackend) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	req, err := a.newRequest(ctx, system, user, maxTokens, false)
	if err != nil {
		return "", callError(a.name(), "build request", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", callError(a.name(), "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", callError(a.name(), apiErrorMessage(resp), nil)
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", callError(a.name(), "decode response", err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", callError(a.name(), "empty completion", nil)
	}
	return sb.String(), nil
}

func (a *anthropicBackend) stream(ctx context.Context, system, user string, maxTokens int, emit func(string) error) error {
	req, err := a.newRequest(ctx, system, user, maxTokens, true)
	if err != nil {
		return callError(a.name(), "build request", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return callError(a.name(), "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return callError(a.name(), apiErrorMessage(resp), nil)
	}

	return readSSE(resp.Body, func(data string) error {
		var event struct {
			Type  string `json:"type"`
			Delta struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"delta"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil // keepalive or unknown event, skip
		}
		if event.Type == "content_block_delta" && event.Delta.Type == "text_delta" {
			return emit(event.Delta.Text)
		}
		return nil
	})
}

// readSSE walks a text/event-stream body, invoking handle for each data
// payload. The "[DONE]" terminator some APIs send is swallowed here.
func readSSE(body io.Reader, handle func(data string) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}
		if err := handle(data); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// apiErrorMessage pulls a human-readable message out of an error response
// body, falling back to the raw status.
func apiErrorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, parsed.Error.Message)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
