package llm

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
)

const (
	defaultEndpoint       = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout    = 15 * time.Second
	defaultRetryAttempts  = 4
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// ErrNotConfigured is returned when the client has no API key.
var ErrNotConfigured = errors.New("llm: api key required")

// Config holds the connection settings for one model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client sends chat completion requests.
type Client struct {
	cfg    Config
	http   *http.Client
	policy retryPolicy
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRetryMaxAttempts sets how many times a request is tried in total.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.policy.attempts = attempts
	}
}

// WithRetryBackoff sets the first retry delay and the delay cap.
func WithRetryBackoff(base, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.policy.base = base
		c.policy.max = maxDelay
	}
}

// WithSleeper replaces the wait between retries. Tests use it to avoid real sleeps.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) {
		c.policy.sleep = sleep
	}
}

// NewClient constructs a Client. An empty BaseURL selects OpenRouter.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		policy: retryPolicy{
			attempts: defaultRetryAttempts,
			base:     defaultRetryBaseDelay,
			max:      defaultRetryMaxDelay,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.cfg.Model
}

// CompleteJSON sends a JSON-mode chat completion and returns the model's content.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if systemPrompt == "" || userPrompt == "" {
		return "", errors.New("llm: system and user prompts required")
	}
	req := completionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	return c.complete(ctx, "llm complete", req)
}

// HealthCheck verifies the key and model answer a trivial JSON request.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.CompleteJSON(ctx, "Respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &reply); err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	if !reply.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

func (c *Client) complete(ctx context.Context, op string, req completionRequest) (string, error) {
	var lastErr error
	attempts := c.policy.maxAttempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.post(ctx, op, req)
		if err == nil {
			return content, nil
		}
		lastErr = err
		delay, retry := c.policy.next(ctx, err, attempt)
		if !retry {
			return "", err
		}
		if err := c.policy.wait(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%s: gave up after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) post(ctx context.Context, op string, payload completionRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", newStatusError(resp, raw)
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if parsed.Error != nil && strings.TrimSpace(parsed.Error.Message) != "" {
		return "", fmt.Errorf("%s: provider error: %s", op, strings.TrimSpace(parsed.Error.Message))
	}
	content, finish := parsed.content()
	if content == "" {
		return "", &EmptyContentError{Op: op, FinishReason: finish, Refusal: parsed.refusal(), Snippet: snippet(string(raw))}
	}
	return content, nil
}
