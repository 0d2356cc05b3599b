package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type KeywordExtractor struct {
	chat   ChatClient
	prompt string
}

func NewKeywordExtractor(chat ChatClient, prompt string) *KeywordExtractor {
	return &KeywordExtractor{chat: chat, prompt: prompt}
}

// Extract turns a free-text request into space separated search keywords.
func (e *KeywordExtractor) Extract(ctx context.Context, prompt string) (string, error) {
	reply, err := e.chat.Complete(ctx, e.prompt, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to extract keywords: %w", err)
	}

	keywords := normalizeKeywords(reply)
	if keywords == "" {
		return "", fmt.Errorf("failed to extract keywords: %w", ErrEmptyCompletion)
	}

	return keywords, nil
}

// normalizeKeywords folds full-width characters (including the ideographic space)
// and collapses whitespace runs.
func normalizeKeywords(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
