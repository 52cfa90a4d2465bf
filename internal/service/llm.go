package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/timmy/resumetailor/internal/config"
	"github.com/timmy/resumetailor/internal/domain"
)

// LLMClient is a thin client for OpenAI-compatible chat completions APIs.
// Both the resume parser and the tailoring agent sit on top of it.
type LLMClient struct {
	client     *resty.Client
	model      string
	endpoint   string
	maxRetries int
}

// NewLLMClient creates a new LLM client.
// Parameters:
//   - cfg: LLM configuration including model, API key, and base URL.
//
// Returns:
//   - *LLMClient: initialized client wrapper.
func NewLLMClient(cfg *config.LLMConfig) *LLMClient {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	// Set timeout to prevent hanging requests
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	client.SetTimeout(timeout)

	// Default to OpenAI compatible endpoint if not specified
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &LLMClient{
		client:     client,
		model:      cfg.Model,
		endpoint:   baseURL + "/chat/completions",
		maxRetries: maxRetries,
	}
}

// GetModel returns the model name being used.
// Parameters: none.
// Returns:
//   - string: model identifier.
func (c *LLMClient) GetModel() string {
	return c.model
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a system+user message pair and returns the model's reply.
// Transient failures (transport errors, 429, 5xx) are retried with
// exponential backoff up to the configured retry budget; other HTTP errors
// surface immediately as BackendError.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - system: system prompt.
//   - user: user prompt.
//
// Returns:
//   - string: raw model output.
//   - error: non-nil if the call fails after retries.
func (c *LLMClient) Complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	}

	var content string
	operation := func() error {
		var result chatResponse
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(&req).
			SetResult(&result).
			SetError(&result).
			Post(c.endpoint)
		if err != nil {
			return fmt.Errorf("chat completion request failed: %w", err)
		}

		if resp.IsError() {
			msg := resp.Status()
			if result.Error != nil && result.Error.Message != "" {
				msg = result.Error.Message
			}
			backendErr := &domain.BackendError{Status: resp.StatusCode(), Message: msg}
			if resp.StatusCode() == 429 || resp.StatusCode() >= 500 {
				return backendErr
			}
			return backoff.Permanent(backendErr)
		}

		if len(result.Choices) == 0 {
			return backoff.Permanent(&domain.BackendError{
				Status:  resp.StatusCode(),
				Message: "chat completion returned no choices",
			})
		}

		content = result.Choices[0].Message.Content
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}

	return content, nil
}

// extractJSON pulls the JSON object out of a model reply, tolerating
// markdown fences and reasoning preambles around the object.
func extractJSON(content string) (string, error) {
	// Strip <think> blocks some local models emit
	for {
		start := strings.Index(content, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(content, "</think>")
		if end == -1 || end < start {
			content = content[:start]
			break
		}
		content = content[:start] + content[end+len("</think>"):]
	}

	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first == -1 || last == -1 || last < first {
		return "", fmt.Errorf("no JSON object found in model response")
	}

	return content[first : last+1], nil
}
