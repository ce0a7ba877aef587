package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type completionError struct {
	status int
	msg    string
}

func (e *completionError) Error() string {
	return fmt.Sprintf("completion: %s (status %d)", e.msg, e.status)
}

func (e *completionError) Retryable() bool {
	return e.status >= 500 || e.status == http.StatusTooManyRequests
}

// CompletionClient calls an OpenAI-compatible chat completion endpoint.
type CompletionClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	breaker *Breaker
}

// NewCompletionClient returns a CompletionClient for the given endpoint and model.
func NewCompletionClient(baseURL, apiKey, model string, timeout time.Duration) *CompletionClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CompletionClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
		breaker: NewBreaker("completion", 3, time.Minute),
	}
}

// Model returns the configured model identifier.
func (c *CompletionClient) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a system+user prompt pair and returns the raw completion text.
func (c *CompletionClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}

	var out string
	err = withRetry(ctx, "completion", c.breaker, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return &completionError{status: http.StatusServiceUnavailable, msg: err.Error()}
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return &completionError{status: resp.StatusCode, msg: "unexpected response"}
		}

		var parsed chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return err
		}
		if len(parsed.Choices) == 0 {
			return &completionError{status: http.StatusBadGateway, msg: "empty completion"}
		}
		out = parsed.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
