package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LibraryClient is a thin HTTP client for the library API.
type LibraryClient struct {
	baseURL string
	client  *http.Client
}

func NewLibraryClient(baseURL string) *LibraryClient {
	return &LibraryClient{
		baseURL: baseURL,
		client: &http.Client{
			// Ingestion extracts synchronously and Q&A waits on a model,
			// so this is generous on purpose.
			Timeout: 120 * time.Second,
		},
	}
}

// IngestResponse mirrors the article status body.
type IngestResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Status          string `json:"processing_status"`
	ProcessingError string `json:"processing_error,omitempty"`
}

// AskResponse is the non-streaming answer body.
type AskResponse struct {
	Answer  string `json:"answer"`
	Sources []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url,omitempty"`
	} `json:"sources"`
}

func (c *LibraryClient) IngestURL(rawURL string) (*IngestResponse, error) {
	payload, _ := json.Marshal(map[string]string{"url": rawURL})
	resp, err := c.client.Post(c.baseURL+"/api/articles", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to ingest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}
	var out IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func (c *LibraryClient) Status(articleID string) (*IngestResponse, error) {
	resp, err := c.client.Get(c.baseURL + "/api/articles/" + articleID + "/status")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var out IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func (c *LibraryClient) Ask(question string) (*AskResponse, error) {
	payload, _ := json.Marshal(map[string]any{"question": question})
	resp, err := c.client.Post(c.baseURL+"/api/ask", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to ask: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var out AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// Healthy reports whether the API answers its health endpoint.
func (c *LibraryClient) Healthy() bool {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
}
