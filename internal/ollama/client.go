// Package ollama provides a typed HTTP client for the local Ollama API.
// hpcllm uses it to probe the local server and list its models.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps the Ollama HTTP API.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a new Ollama client pointing at baseURL (e.g. "http://localhost:11434").
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 0, // no timeout — a cold model load can take minutes
		},
	}
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Model is a single entry from GET /api/tags.
type Model struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
	Details    struct {
		Format            string   `json:"format"`
		Family            string   `json:"family"`
		Families          []string `json:"families"`
		ParameterSize     string   `json:"parameter_size"`
		QuantizationLevel string   `json:"quantization_level"`
	} `json:"details"`
}

// GenerateRequest maps to POST /api/generate.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateResponse is the single reply to POST /api/generate with stream=false.
type GenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	// Timings, in nanoseconds.
	TotalDuration int64 `json:"total_duration,omitempty"`
	LoadDuration  int64 `json:"load_duration,omitempty"`
	EvalCount     int   `json:"eval_count,omitempty"`
}

// VersionResponse maps to GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}

// StatusError is returned when Ollama answers with anything but 200.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama %d: %s", e.Code, e.Body)
}

// ---------------------------------------------------------------------------
// Methods
// ---------------------------------------------------------------------------

// Version fetches the Ollama server version (also serves as a health check).
func (c *Client) Version(ctx context.Context) (string, error) {
	var v VersionResponse
	if err := c.getJSON(ctx, "/api/version", &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

// ListModels returns all locally available models.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var resp struct {
		Models []Model `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/tags", &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// Generate sends a single non-streaming generate request. The raw body is
// always returned alongside the decoded reply so callers can show it
// verbatim; a body that is not valid JSON still counts as success on 200.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, []byte, error) {
	req.Stream = false
	body, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, raw, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	var out GenerateResponse
	_ = json.Unmarshal(raw, &out)
	return &out, raw, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
