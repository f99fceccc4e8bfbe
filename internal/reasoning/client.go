package reasoning

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

// generationTemperature keeps the auditor deterministic across reruns
const generationTemperature = 0.05

// Generator produces a raw model completion for a prompt. The model name is
// passed per call so the orchestrator can walk its fallback chain over a
// single client.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Config contains reasoning client configuration
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client calls the external reasoning service over HTTP
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new reasoning HTTP client
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// generateRequest is the JSON request body for the generation endpoint
type generateRequest struct {
	Model          string  `json:"model"`
	Prompt         string  `json:"prompt"`
	Temperature    float64 `json:"temperature"`
	ResponseFormat string  `json:"response_format"`
}

// generateResponse is the JSON response body from the generation endpoint
type generateResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Generate sends the prompt to the reasoning service with a constrained JSON
// response format and returns the raw completion text.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	reqBody, err := json.Marshal(generateRequest{
		Model:          model,
		Prompt:         prompt,
		Temperature:    generationTemperature,
		ResponseFormat: "json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "Call-Compliance-Service/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(respBody))
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if genResp.Error != "" {
		return "", fmt.Errorf("generation error: %s", genResp.Error)
	}

	if strings.TrimSpace(genResp.Output) == "" {
		return "", fmt.Errorf("empty completion from model %s", model)
	}

	return genResp.Output, nil
}
