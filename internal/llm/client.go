// Package llm wraps the external text-completion collaborator. The gateway
// only ever needs a single prompt-in, text-out call; everything else about
// the upstream API stays behind the Client interface.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/maskrelay/maskrelay/internal/config"
	"github.com/maskrelay/maskrelay/internal/logger"
	"go.uber.org/zap"
)

// ErrNotConfigured indicates no upstream endpoint is available.
var ErrNotConfigured = errors.New("llm endpoint not configured")

// Client calls an external text-completion service.
type Client interface {
	// Complete sends a prompt and returns the completion text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Configured reports whether an upstream endpoint is available.
	Configured() bool
}

// GeminiClient calls a Gemini-style generateContent endpoint.
type GeminiClient struct {
	endpoint string
	client   *http.Client
	logger   *logger.Logger
}

// NewGeminiClient creates a client from configuration. When no explicit URL
// is set the endpoint is assembled from the model name and API key; with
// neither available the client reports itself unconfigured.
func NewGeminiClient(cfg config.LLMConfig, log *logger.Logger) *GeminiClient {
	endpoint := cfg.URL
	if endpoint == "" && cfg.APIKey != "" && cfg.Model != "" {
		endpoint = fmt.Sprintf(
			"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
			cfg.Model, cfg.APIKey,
		)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GeminiClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   log,
	}
}

// Configured reports whether an upstream endpoint is available.
func (c *GeminiClient) Configured() bool {
	return c.endpoint != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Complete sends the prompt to the generateContent endpoint and returns the
// first candidate's text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse upstream response: %w", err)
	}

	c.logger.Debug("LLM call completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("candidates", len(parsed.Candidates)),
	)

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
