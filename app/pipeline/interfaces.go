package pipeline

import (
	"context"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/llm"
	"github.com/lysyi3m/news-comb/app/news"
)

type NewsSource interface {
	ListSearchResults(ctx context.Context, keyword string, wantManyPages bool) ([]news.SearchResult, error)
	FetchArticleDetail(ctx context.Context, articleURL string) (*news.ArticleDetail, error)
}

type RelevanceClassifier interface {
	Classify(ctx context.Context, title string) (llm.Relevance, error)
}

type ArticleSummarizer interface {
	Summarize(ctx context.Context, body string) (llm.Summary, error)
}

type KeywordSource interface {
	Extract(ctx context.Context, prompt string) (string, error)
}

type ArticleWriter interface {
	CreateArticle(ctx context.Context, article database.Article) (int64, error)
}

// Archiver keeps a copy of stored articles outside the database.
type Archiver interface {
	Archive(ctx context.Context, article database.Article) error
}
