package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"flowsense/internal/config"
)

// Client talks to the local text-generation backend. Calls are spaced a
// minimum interval apart; a caller arriving early sleeps the remainder
// instead of failing.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	timeout    time.Duration
	minSpacing time.Duration
	options    generateOptions

	mu       sync.Mutex
	lastCall time.Time
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	TopP        float64 `json:"top_p"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func NewClient(cfg *config.LLMConfig) *Client {
	timeout, err := cfg.GetTimeoutDuration()
	if err != nil {
		timeout = 30 * time.Second
	}
	minSpacing, err := cfg.GetMinSpacingDuration()
	if err != nil {
		minSpacing = 2 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL(),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		minSpacing: minSpacing,
		options: generateOptions{
			Temperature: cfg.Temperature,
			NumPredict:  cfg.NumPredict,
			TopP:        cfg.TopP,
		},
	}
}

// Generate sends one prompt and returns the raw response text.
func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	c.waitForSpacing()

	reqBody, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		System:  system,
		Stream:  false,
		Options: c.options,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generate request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	return genResp.Response, nil
}

// waitForSpacing enforces the minimum spacing between backend calls.
// The shared last-call timestamp is held under the mutex for the whole
// wait so concurrent callers queue up instead of racing.
func (c *Client) waitForSpacing() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := c.minSpacing - time.Since(c.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	c.lastCall = time.Now()
}

// Ping reports whether the generation backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("generation backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("generation backend returned status %d", resp.StatusCode)
	}
	return nil
}
