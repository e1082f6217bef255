// Package ai provides a retry-wrapped text generator used to draft pull
// request descriptions and commit messages. Generation is best-effort:
// overload responses are retried with linear backoff, anything else
// surrenders immediately so the caller can fall back to template content.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
)

const defaultMaxRetries = 3

// backoffBase is multiplied by the attempt number: 2s, 4s, 6s.
const backoffBase = 2 * time.Second

// Client wraps a chat-completions style HTTP API.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	maxRetries int
	fallback   bool
	httpClient *http.Client

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

// NewClient creates an AI client from configuration. A client without an
// API key is still valid; IsAvailable reports false and generation fails
// immediately, which callers treat as "use the fallback".
func NewClient(cfg config.AIConfig) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Client{
		endpoint:   cfg.URL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: maxRetries,
		fallback:   cfg.Fallback,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		sleep:      time.Sleep,
	}
}

// IsAvailable reports whether the adapter is configured for generation.
func (c *Client) IsAvailable() bool {
	return c.apiKey != "" && c.endpoint != ""
}

// FallbackEnabled reports whether callers should substitute template
// content when generation fails.
func (c *Client) FallbackEnabled() bool {
	return c.fallback
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// retriableError marks an overload response worth retrying.
type retriableError struct {
	status int
}

func (e *retriableError) Error() string {
	return fmt.Sprintf("provider overloaded (status %d)", e.status)
}

// Generate produces text for the prompt, retrying on overload up to the
// configured attempt count with linear backoff.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.IsAvailable() {
		return "", fmt.Errorf("ai provider is not configured")
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		text, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var overload *retriableError
		if !errors.As(err, &overload) {
			return "", err
		}
		if attempt < c.maxRetries {
			delay := time.Duration(attempt) * backoffBase
			logging.Warn("ai provider overloaded, retrying",
				"attempt", attempt,
				"delay", delay.String())
			c.sleep(delay)
		}
	}
	return "", fmt.Errorf("ai generation failed after %d attempts: %w", c.maxRetries, lastErr)
}

// GenerateWithFallback generates text for the prompt and substitutes the
// fallback content when generation is unavailable or fails.
func (c *Client) GenerateWithFallback(ctx context.Context, prompt string, fallback func() string) string {
	if !c.IsAvailable() {
		return fallback()
	}
	text, err := c.Generate(ctx, prompt)
	if err != nil {
		if !c.fallback {
			logging.Error("ai generation failed and fallback is disabled", "error", err)
			return ""
		}
		logging.Warn("ai generation failed, using fallback content", "error", err)
		return fallback()
	}
	return text
}

// GenerateJSON generates text and decodes it as JSON into out. Providers
// occasionally wrap JSON in markdown fences, which are stripped first.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out any) error {
	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), out); err != nil {
		return fmt.Errorf("ai response is not valid JSON: %w", err)
	}
	return nil
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read generation response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return "", &retriableError{status: resp.StatusCode}
	default:
		return "", fmt.Errorf("generation returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("generation response contained no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
