package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/news"
)

// CycleStats counts what happened to the candidates of one ingestion cycle.
type CycleStats struct {
	Candidates int
	Filtered   int
	Skipped    int
	Stored     int
	Failed     int
	Duration   time.Duration
}

type Ingestor struct {
	source     NewsSource
	classifier RelevanceClassifier
	summarizer ArticleSummarizer
	articles   ArticleWriter
	archiver   Archiver
	keyword    string
	filter     TitleFilter
	strict     bool
}

type IngestorOption func(*Ingestor)

// WithArchiver uploads every stored article. Upload failures are logged only.
func WithArchiver(archiver Archiver) IngestorOption {
	return func(i *Ingestor) {
		i.archiver = archiver
	}
}

func WithTitleFilter(filter TitleFilter) IngestorOption {
	return func(i *Ingestor) {
		i.filter = filter
	}
}

// WithStrictCycle aborts a cycle on the first failing candidate instead of
// logging it and moving on.
func WithStrictCycle(strict bool) IngestorOption {
	return func(i *Ingestor) {
		i.strict = strict
	}
}

func NewIngestor(source NewsSource, classifier RelevanceClassifier, summarizer ArticleSummarizer,
	articles ArticleWriter, keyword string, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		source:     source,
		classifier: classifier,
		summarizer: summarizer,
		articles:   articles,
		keyword:    keyword,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// RunCycle lists the configured keyword and stores every candidate the classifier
// rates high, with its summary. There is no existence check before the write, so an
// already stored url fails with database.ErrDuplicateURL.
func (i *Ingestor) RunCycle(ctx context.Context, manyPages bool) (CycleStats, error) {
	startedAt := time.Now()
	stats := CycleStats{}

	candidates, err := i.source.ListSearchResults(ctx, i.keyword, manyPages)
	if err != nil {
		return stats, fmt.Errorf("failed to list search results: %w", err)
	}
	stats.Candidates = len(candidates)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return i.finishCycle(stats, manyPages, startedAt, err)
		}

		if filtered, reason := i.filter.Match(candidate.Title); filtered {
			slog.Debug("Candidate filtered", "title", candidate.Title, "reason", reason)
			stats.Filtered++
			continue
		}

		stored, err := i.processCandidate(ctx, candidate)
		if err != nil {
			stats.Failed++
			if i.strict {
				err = fmt.Errorf("failed to process %s: %w", candidate.TitleLink, err)
				return i.finishCycle(stats, manyPages, startedAt, err)
			}
			slog.Warn("Failed to process candidate",
				"url", candidate.TitleLink,
				"title", candidate.Title,
				"error", err)
			continue
		}

		if stored {
			stats.Stored++
		} else {
			stats.Skipped++
		}
	}

	return i.finishCycle(stats, manyPages, startedAt, nil)
}

// finishCycle stamps the duration and logs the counters, for completed and
// aborted cycles alike.
func (i *Ingestor) finishCycle(stats CycleStats, manyPages bool, startedAt time.Time, err error) (CycleStats, error) {
	stats.Duration = time.Since(startedAt)

	attrs := []any{
		"keyword", i.keyword,
		"many_pages", manyPages,
		"candidates", stats.Candidates,
		"filtered", stats.Filtered,
		"skipped", stats.Skipped,
		"stored", stats.Stored,
		"failed", stats.Failed,
		"duration", stats.Duration,
	}

	if err != nil {
		slog.Warn("Ingestion cycle aborted", append(attrs, "error", err)...)
		return stats, err
	}

	slog.Info("Ingestion cycle completed", attrs...)
	return stats, nil
}

func (i *Ingestor) processCandidate(ctx context.Context, candidate news.SearchResult) (bool, error) {
	relevance, err := i.classifier.Classify(ctx, candidate.Title)
	if err != nil {
		return false, err
	}

	if !relevance.IsHigh() {
		slog.Debug("Candidate not relevant", "title", candidate.Title, "relevance", relevance)
		return false, nil
	}

	detail, err := i.source.FetchArticleDetail(ctx, candidate.TitleLink)
	if err != nil {
		return false, err
	}

	content := detail.Content()

	summary, err := i.summarizer.Summarize(ctx, content)
	if err != nil {
		return false, err
	}

	article := database.Article{
		URL:     candidate.TitleLink,
		Title:   detail.Title,
		Time:    detail.Time,
		Content: content,
		Summary: summary.Impact,
		Reason:  summary.Cause,
	}

	id, err := i.articles.CreateArticle(ctx, article)
	if err != nil {
		return false, err
	}
	article.ID = id

	slog.Debug("Article stored", "id", id, "url", article.URL, "time", article.Time)

	if i.archiver != nil {
		if err := i.archiver.Archive(ctx, article); err != nil {
			slog.Warn("Failed to archive article", "id", id, "error", err)
		}
	}

	return true, nil
}
