package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrEmptyCompletion = errors.New("completion returned no choices")
	ErrUpstream        = errors.New("language model request failed")
)

const maxRetryDelay = 30 * time.Second

// ChatClient sends one system instruction and one user message and returns the reply text.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userContent string) (string, error)
}

var _ ChatClient = (*OpenAIClient)(nil)

type OpenAIClient struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIClient creates a chat completion client. An empty baseURL keeps the
// library default endpoint.
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration, maxRetries int) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		timeout:    timeout,
		maxRetries: maxRetries,
		retryDelay: time.Second,
	}
}

// Complete retries transient failures with exponential backoff. Permanent API errors
// are returned at once.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			slog.Warn("Retrying chat completion",
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"delay", delay,
				"error", lastErr)

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		reply, err := c.complete(ctx, systemPrompt, userContent)
		if err == nil {
			return reply, nil
		}

		lastErr = err
		if !isTransient(err) {
			break
		}
	}

	return "", lastErr
}

func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(timeoutCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userContent},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) backoff(attempt int) time.Duration {
	delay := c.retryDelay * time.Duration(1<<(attempt-1))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// isTransient reports whether a failed call is worth repeating: rate limits, server
// errors and failures that never produced an HTTP response.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyCompletion) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return isTransientStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return isTransientStatus(reqErr.HTTPStatusCode)
	}

	return true
}

func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
