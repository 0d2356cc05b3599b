package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const completionBody = `{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"gpt-3.5-turbo",
"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],
"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`

func newChatServer(t *testing.T, handler func(w http.ResponseWriter, attempt int32, req openai.ChatCompletionRequest)) (*httptest.Server, *int32) {
	t.Helper()

	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		handler(w, atomic.AddInt32(&attempts, 1), req)
	}))
	t.Cleanup(server.Close)

	return server, &attempts
}

func newTestOpenAIClient(baseURL string, maxRetries int) *OpenAIClient {
	client := NewOpenAIClient("sk-test", baseURL+"/v1", "gpt-3.5-turbo", 5*time.Second, maxRetries)
	client.retryDelay = time.Millisecond
	return client
}

func TestOpenAIClientComplete(t *testing.T) {
	server, attempts := newChatServer(t, func(w http.ResponseWriter, _ int32, req openai.ChatCompletionRequest) {
		if len(req.Messages) != 2 {
			t.Errorf("Expected 2 messages, got %d", len(req.Messages))
		} else {
			if req.Messages[0].Role != openai.ChatMessageRoleSystem || req.Messages[0].Content != "system prompt" {
				t.Errorf("Expected system message first, got %+v", req.Messages[0])
			}
			if req.Messages[1].Role != openai.ChatMessageRoleUser || req.Messages[1].Content != "蛋價再漲" {
				t.Errorf("Expected user message second, got %+v", req.Messages[1])
			}
		}
		if req.Model != "gpt-3.5-turbo" {
			t.Errorf("Expected model 'gpt-3.5-turbo', got '%s'", req.Model)
		}
		fmt.Fprintf(w, completionBody, "high")
	})

	client := newTestOpenAIClient(server.URL, 2)

	reply, err := client.Complete(context.Background(), "system prompt", "蛋價再漲")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if reply != "high" {
		t.Errorf("Expected reply 'high', got '%s'", reply)
	}
	if *attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", *attempts)
	}
}

func TestOpenAIClientRetriesTransientErrors(t *testing.T) {
	server, attempts := newChatServer(t, func(w http.ResponseWriter, attempt int32, _ openai.ChatCompletionRequest) {
		if attempt < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
			return
		}
		fmt.Fprintf(w, completionBody, "low")
	})

	client := newTestOpenAIClient(server.URL, 2)

	reply, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}
	if reply != "low" {
		t.Errorf("Expected reply 'low', got '%s'", reply)
	}
	if *attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", *attempts)
	}
}

func TestOpenAIClientGivesUpAfterMaxRetries(t *testing.T) {
	server, attempts := newChatServer(t, func(w http.ResponseWriter, _ int32, _ openai.ChatCompletionRequest) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	})

	client := newTestOpenAIClient(server.URL, 1)

	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if *attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", *attempts)
	}
}

func TestOpenAIClientDoesNotRetryPermanentErrors(t *testing.T) {
	server, attempts := newChatServer(t, func(w http.ResponseWriter, _ int32, _ openai.ChatCompletionRequest) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	client := newTestOpenAIClient(server.URL, 3)

	_, err := client.Complete(context.Background(), "system", "user")

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got: %v", err)
	}
	if apiErr.HTTPStatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", apiErr.HTTPStatusCode)
	}
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got: %v", err)
	}
	if *attempts != 1 {
		t.Errorf("Expected a single attempt for permanent error, got %d", *attempts)
	}
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	server, attempts := newChatServer(t, func(w http.ResponseWriter, _ int32, _ openai.ChatCompletionRequest) {
		fmt.Fprint(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"gpt-3.5-turbo","choices":[]}`)
	})

	client := newTestOpenAIClient(server.URL, 3)

	_, err := client.Complete(context.Background(), "system", "user")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("Expected ErrEmptyCompletion, got: %v", err)
	}
	if *attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", *attempts)
	}
}

func TestBackoff(t *testing.T) {
	client := &OpenAIClient{retryDelay: time.Second}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := client.backoff(tt.attempt); got != tt.expected {
			t.Errorf("Expected backoff %v for attempt %d, got %v", tt.expected, tt.attempt, got)
		}
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, true},
		{"server error", &openai.APIError{HTTPStatusCode: 502}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"request error 500", &openai.RequestError{HTTPStatusCode: 500, Err: errors.New("boom")}, true},
		{"network", errors.New("connection reset"), true},
		{"canceled", context.Canceled, false},
		{"empty completion", ErrEmptyCompletion, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
