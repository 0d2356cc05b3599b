package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedSummary = errors.New("malformed summary reply")

type Summary struct {
	Impact string
	Cause  string
}

type Summarizer struct {
	chat      ChatClient
	prompt    string
	impactKey string
	causeKey  string
}

func NewSummarizer(chat ChatClient, prompt, impactKey, causeKey string) *Summarizer {
	return &Summarizer{
		chat:      chat,
		prompt:    prompt,
		impactKey: impactKey,
		causeKey:  causeKey,
	}
}

// Summarize asks for an impact/cause pair. The reply must be a JSON object carrying
// both keys as strings; anything else is ErrMalformedSummary.
func (s *Summarizer) Summarize(ctx context.Context, body string) (Summary, error) {
	reply, err := s.chat.Complete(ctx, s.prompt, body)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &fields); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrMalformedSummary, err)
	}

	impact, err := stringField(fields, s.impactKey)
	if err != nil {
		return Summary{}, err
	}

	cause, err := stringField(fields, s.causeKey)
	if err != nil {
		return Summary{}, err
	}

	return Summary{Impact: impact, Cause: cause}, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: missing key %q", ErrMalformedSummary, key)
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: key %q is not a string", ErrMalformedSummary, key)
	}

	return value, nil
}
