package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
)

// EphemeralArticle is a search hit returned to the caller and never stored.
type EphemeralArticle struct {
	ID      int64
	URL     string
	Title   string
	Time    string
	Content string
}

// Searcher answers free-text searches. Ids come from a counter that starts at an
// offset above any stored article id and only grows for the life of the process.
type Searcher struct {
	extractor KeywordSource
	source    NewsSource
	nextID    atomic.Int64
}

func NewSearcher(extractor KeywordSource, source NewsSource, idOffset int64) *Searcher {
	s := &Searcher{
		extractor: extractor,
		source:    source,
	}
	s.nextID.Store(idOffset)
	return s
}

// Search turns prompt into keywords and fetches every hit of the first result page.
// Hits whose page cannot be fetched or parsed are dropped. The result is ordered by
// time string, newest first.
func (s *Searcher) Search(ctx context.Context, prompt string) ([]EphemeralArticle, error) {
	keywords, err := s.extractor.Extract(ctx, prompt)
	if err != nil {
		return nil, err
	}

	hits, err := s.source.ListSearchResults(ctx, keywords, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list search results: %w", err)
	}

	results := make([]EphemeralArticle, 0, len(hits))
	for _, hit := range hits {
		detail, err := s.source.FetchArticleDetail(ctx, hit.TitleLink)
		if err != nil {
			slog.Warn("Dropping search hit", "url", hit.TitleLink, "error", err)
			continue
		}

		results = append(results, EphemeralArticle{
			ID:      s.nextID.Add(1) - 1,
			URL:     hit.TitleLink,
			Title:   detail.Title,
			Time:    detail.Time,
			Content: detail.Content(),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Time > results[j].Time
	})

	slog.Debug("Search completed",
		"keywords", keywords,
		"hits", len(hits),
		"results", len(results))

	return results, nil
}
