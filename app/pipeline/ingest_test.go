package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/llm"
	"github.com/lysyi3m/news-comb/app/news"
)

func newIngestFixture() (*fakeSource, *fakeClassifier) {
	source := &fakeSource{
		results: []news.SearchResult{
			{Title: "蛋價再漲", TitleLink: "https://udn.com/news/story/1"},
			{Title: "股市收盤", TitleLink: "https://udn.com/news/story/2"},
			{Title: "油價下跌", TitleLink: "https://udn.com/news/story/3"},
		},
		details: map[string]*news.ArticleDetail{
			"https://udn.com/news/story/1": {Title: "蛋價再漲", Time: "2024-05-10 10:00", Paragraphs: []string{"第一段", "第二段"}},
			"https://udn.com/news/story/2": {Title: "股市收盤", Time: "2024-05-09 10:00", Paragraphs: []string{"股市"}},
			"https://udn.com/news/story/3": {Title: "油價下跌", Time: "2024-05-08 10:00", Paragraphs: []string{"油價"}},
		},
	}
	classifier := &fakeClassifier{verdicts: map[string]llm.Relevance{
		"蛋價再漲": "high",
		"股市收盤": "medium",
		"油價下跌": "HIGH",
	}}
	return source, classifier
}

func TestRunCycleStoresOnlyHighRelevance(t *testing.T) {
	source, classifier := newIngestFixture()
	summarizer := &fakeSummarizer{}
	writer := newFakeWriter()

	ingestor := NewIngestor(source, classifier, summarizer, writer, "價格")

	stats, err := ingestor.RunCycle(context.Background(), false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(source.listings) != 1 || source.listings[0].keyword != "價格" || source.listings[0].manyPages {
		t.Errorf("Expected one single-page listing for '價格', got %+v", source.listings)
	}

	if len(writer.articles) != 1 {
		t.Fatalf("Expected 1 stored article, got %d", len(writer.articles))
	}

	stored := writer.articles[0]
	if stored.URL != "https://udn.com/news/story/1" {
		t.Errorf("Expected url of the high candidate, got '%s'", stored.URL)
	}
	if stored.Content != "第一段 第二段" {
		t.Errorf("Expected paragraphs joined by a single space, got '%s'", stored.Content)
	}
	if stored.Summary != "impact of 第一段 第二段" || stored.Reason != "cause" {
		t.Errorf("Expected summary fields from summarizer, got '%s'/'%s'", stored.Summary, stored.Reason)
	}
	if stored.Time != "2024-05-10 10:00" || stored.Title != "蛋價再漲" {
		t.Errorf("Expected detail title/time, got '%s'/'%s'", stored.Title, stored.Time)
	}

	if len(source.fetched) != 1 {
		t.Errorf("Expected only the high candidate to be fetched, got %v", source.fetched)
	}

	if stats.Candidates != 3 || stats.Stored != 1 || stats.Skipped != 2 || stats.Failed != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestRunCycleManyPages(t *testing.T) {
	source, classifier := newIngestFixture()
	ingestor := NewIngestor(source, classifier, &fakeSummarizer{}, newFakeWriter(), "價格")

	if _, err := ingestor.RunCycle(context.Background(), true); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(source.listings) != 1 || !source.listings[0].manyPages {
		t.Errorf("Expected many-pages listing, got %+v", source.listings)
	}
}

func TestRunCycleListingFailureAborts(t *testing.T) {
	source := &fakeSource{listErr: errBoom}
	ingestor := NewIngestor(source, &fakeClassifier{}, &fakeSummarizer{}, newFakeWriter(), "價格")

	_, err := ingestor.RunCycle(context.Background(), false)
	if !errors.Is(err, errBoom) {
		t.Errorf("Expected listing error, got: %v", err)
	}
}

func TestRunCycleIsolatesFailuresByDefault(t *testing.T) {
	source, classifier := newIngestFixture()
	classifier.verdicts["股市收盤"] = "high"
	delete(source.details, "https://udn.com/news/story/1")
	writer := newFakeWriter()

	ingestor := NewIngestor(source, classifier, &fakeSummarizer{}, writer, "價格")

	stats, err := ingestor.RunCycle(context.Background(), false)
	if err != nil {
		t.Fatalf("Expected no error in lenient mode, got: %v", err)
	}

	if stats.Failed != 1 || stats.Stored != 1 {
		t.Errorf("Expected 1 failed and 1 stored, got %+v", stats)
	}
	if len(writer.articles) != 1 || writer.articles[0].URL != "https://udn.com/news/story/2" {
		t.Errorf("Expected the later candidate to be stored, got %+v", writer.articles)
	}
}

func TestRunCycleStrictAbortsOnFirstFailure(t *testing.T) {
	source, classifier := newIngestFixture()
	classifier.verdicts["股市收盤"] = "high"
	delete(source.details, "https://udn.com/news/story/1")
	writer := newFakeWriter()

	ingestor := NewIngestor(source, classifier, &fakeSummarizer{}, writer, "價格", WithStrictCycle(true))

	stats, err := ingestor.RunCycle(context.Background(), false)
	if !errors.Is(err, news.ErrMalformedArticle) {
		t.Fatalf("Expected malformed article error, got: %v", err)
	}
	if stats.Failed != 1 {
		t.Errorf("Expected 1 failure, got %+v", stats)
	}
	if len(writer.articles) != 0 {
		t.Errorf("Expected no article stored after abort, got %d", len(writer.articles))
	}
}

func TestRunCycleStrictAbortReportsCycle(t *testing.T) {
	source, classifier := newIngestFixture()
	delete(source.details, "https://udn.com/news/story/1")

	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(previous)

	ingestor := NewIngestor(source, classifier, &fakeSummarizer{}, newFakeWriter(), "價格", WithStrictCycle(true))

	stats, err := ingestor.RunCycle(context.Background(), false)
	if err == nil {
		t.Fatal("Expected strict cycle to abort")
	}
	if stats.Duration <= 0 {
		t.Errorf("Expected aborted cycle to carry its duration, got %v", stats.Duration)
	}

	output := logs.String()
	if !strings.Contains(output, "Ingestion cycle aborted") {
		t.Errorf("Expected abort log line, got: %s", output)
	}
	if !strings.Contains(output, "failed=1") {
		t.Errorf("Expected failure count in abort log line, got: %s", output)
	}
}

func TestRunCycleDuplicateURLFailsWrite(t *testing.T) {
	source, classifier := newIngestFixture()
	writer := newFakeWriter()
	writer.urls["https://udn.com/news/story/1"] = true
	summarizer := &fakeSummarizer{}

	ingestor := NewIngestor(source, classifier, summarizer, writer, "價格", WithStrictCycle(true))

	_, err := ingestor.RunCycle(context.Background(), false)
	if !errors.Is(err, database.ErrDuplicateURL) {
		t.Errorf("Expected ErrDuplicateURL, got: %v", err)
	}
	if len(summarizer.bodies) != 1 {
		t.Errorf("Expected the article to be summarized before the write, got %d calls", len(summarizer.bodies))
	}
}

func TestRunCycleSummaryFailureStoresNothing(t *testing.T) {
	source, classifier := newIngestFixture()
	writer := newFakeWriter()

	ingestor := NewIngestor(source, classifier, &fakeSummarizer{err: llm.ErrMalformedSummary}, writer, "價格")

	stats, err := ingestor.RunCycle(context.Background(), false)
	if err != nil {
		t.Fatalf("Expected no error in lenient mode, got: %v", err)
	}
	if stats.Failed != 1 || len(writer.articles) != 0 {
		t.Errorf("Expected failed summary to store nothing, got %+v and %d articles", stats, len(writer.articles))
	}
}

func TestRunCycleArchivesStoredArticles(t *testing.T) {
	source, classifier := newIngestFixture()
	archiver := &fakeArchiver{err: errBoom}
	writer := newFakeWriter()

	ingestor := NewIngestor(source, classifier, &fakeSummarizer{}, writer, "價格", WithArchiver(archiver))

	stats, err := ingestor.RunCycle(context.Background(), false)
	if err != nil {
		t.Fatalf("Expected archive failure to be ignored, got: %v", err)
	}
	if stats.Stored != 1 {
		t.Errorf("Expected 1 stored article, got %d", stats.Stored)
	}
	if len(archiver.archived) != 1 || archiver.archived[0].ID != 1 {
		t.Errorf("Expected stored article with id to be archived, got %+v", archiver.archived)
	}
}

func TestRunCycleTitleFilter(t *testing.T) {
	source, classifier := newIngestFixture()
	writer := newFakeWriter()

	ingestor := NewIngestor(source, classifier, &fakeSummarizer{}, writer, "價格",
		WithTitleFilter(TitleFilter{Excludes: []string{"蛋價"}}))

	stats, err := ingestor.RunCycle(context.Background(), false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stats.Filtered != 1 || stats.Stored != 0 {
		t.Errorf("Expected the excluded title to be filtered, got %+v", stats)
	}
	if classifier.calls != 2 {
		t.Errorf("Expected filtered title to skip classification, got %d calls", classifier.calls)
	}
}

func TestRunCycleStopsOnCanceledContext(t *testing.T) {
	source, classifier := newIngestFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ingestor := NewIngestor(source, classifier, &fakeSummarizer{}, newFakeWriter(), "價格")

	_, err := ingestor.RunCycle(ctx, false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}
