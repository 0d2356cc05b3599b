package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/llm"
	"github.com/lysyi3m/news-comb/app/news"
)

type fakeSource struct {
	mu       sync.Mutex
	results  []news.SearchResult
	listErr  error
	details  map[string]*news.ArticleDetail
	listings []listingCall
	fetched  []string
}

type listingCall struct {
	keyword   string
	manyPages bool
}

func (f *fakeSource) ListSearchResults(ctx context.Context, keyword string, wantManyPages bool) ([]news.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listings = append(f.listings, listingCall{keyword: keyword, manyPages: wantManyPages})
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.results, nil
}

func (f *fakeSource) FetchArticleDetail(ctx context.Context, articleURL string) (*news.ArticleDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetched = append(f.fetched, articleURL)
	detail, ok := f.details[articleURL]
	if !ok {
		return nil, news.ErrMalformedArticle
	}
	return detail, nil
}

type fakeClassifier struct {
	verdicts map[string]llm.Relevance
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, title string) (llm.Relevance, error) {
	f.calls++
	verdict, ok := f.verdicts[title]
	if !ok {
		return "low", nil
	}
	return verdict, nil
}

type fakeSummarizer struct {
	bodies []string
	err    error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, body string) (llm.Summary, error) {
	f.bodies = append(f.bodies, body)
	if f.err != nil {
		return llm.Summary{}, f.err
	}
	return llm.Summary{Impact: "impact of " + body, Cause: "cause"}, nil
}

type fakeWriter struct {
	articles []database.Article
	urls     map[string]bool
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{urls: map[string]bool{}}
}

func (f *fakeWriter) CreateArticle(ctx context.Context, article database.Article) (int64, error) {
	if f.urls[article.URL] {
		return 0, database.ErrDuplicateURL
	}
	f.urls[article.URL] = true
	f.articles = append(f.articles, article)
	return int64(len(f.articles)), nil
}

type fakeArchiver struct {
	archived []database.Article
	err      error
}

func (f *fakeArchiver) Archive(ctx context.Context, article database.Article) error {
	f.archived = append(f.archived, article)
	return f.err
}

type fakeExtractor struct {
	keywords string
	err      error
}

func (f *fakeExtractor) Extract(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.keywords, nil
}

var errBoom = errors.New("boom")
