package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/news-comb/app/cache"
)

const verdictTTL = 24 * time.Hour

// Relevance is the model's verdict, kept verbatim. Only the exact string "high"
// counts as relevant.
type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
)

func (r Relevance) IsHigh() bool {
	return r == RelevanceHigh
}

type Classifier struct {
	chat     ChatClient
	prompt   string
	verdicts cache.Cache
}

// NewClassifier renders the topic into promptTemplate. verdicts may be nil.
func NewClassifier(chat ChatClient, promptTemplate, topic string, verdicts cache.Cache) *Classifier {
	if verdicts == nil {
		verdicts = cache.NoopCache{}
	}

	return &Classifier{
		chat:     chat,
		prompt:   fmt.Sprintf(promptTemplate, topic),
		verdicts: verdicts,
	}
}

func (c *Classifier) Classify(ctx context.Context, title string) (Relevance, error) {
	key := cache.Key("relevance", c.prompt, title)

	if cached, found, err := c.verdicts.Get(ctx, key); err != nil {
		slog.Warn("Failed to read cached verdict", "title", title, "error", err)
	} else if found {
		return Relevance(cached), nil
	}

	reply, err := c.chat.Complete(ctx, c.prompt, title)
	if err != nil {
		return "", fmt.Errorf("failed to classify title: %w", err)
	}

	if err := c.verdicts.Set(ctx, key, reply, verdictTTL); err != nil {
		slog.Warn("Failed to cache verdict", "title", title, "error", err)
	}

	slog.Debug("Title classified", "title", title, "relevance", reply)

	return Relevance(reply), nil
}
