package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/lysyi3m/news-comb/app/news"
)

func TestSearch(t *testing.T) {
	source := &fakeSource{
		results: []news.SearchResult{
			{Title: "a", TitleLink: "https://udn.com/a"},
			{Title: "b", TitleLink: "https://udn.com/b"},
			{Title: "broken", TitleLink: "https://udn.com/broken"},
			{Title: "c", TitleLink: "https://udn.com/c"},
		},
		details: map[string]*news.ArticleDetail{
			"https://udn.com/a": {Title: "A", Time: "2024-05-01", Paragraphs: []string{"x", "y"}},
			"https://udn.com/b": {Title: "B", Time: "2024-05-10", Paragraphs: []string{"z"}},
			"https://udn.com/c": {Title: "C", Time: "2024-5-1", Paragraphs: nil},
		},
	}

	searcher := NewSearcher(&fakeExtractor{keywords: "雞蛋 價格"}, source, 1000000)

	results, err := searcher.Search(context.Background(), "我想看雞蛋價格")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(source.listings) != 1 {
		t.Fatalf("Expected exactly one listing call, got %d", len(source.listings))
	}
	if source.listings[0].keyword != "雞蛋 價格" || source.listings[0].manyPages {
		t.Errorf("Expected single-page listing for extracted keywords, got %+v", source.listings[0])
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 results (4 hits, 1 failure), got %d", len(results))
	}

	expectedTimes := []string{"2024-5-1", "2024-05-10", "2024-05-01"}
	seen := map[int64]bool{}
	for i, result := range results {
		if result.Time != expectedTimes[i] {
			t.Errorf("Expected time '%s' at position %d, got '%s'", expectedTimes[i], i, result.Time)
		}
		if result.ID < 1000000 {
			t.Errorf("Expected id >= 1000000, got %d", result.ID)
		}
		if seen[result.ID] {
			t.Errorf("Expected unique ids, got duplicate %d", result.ID)
		}
		seen[result.ID] = true
	}

	if results[2].Content != "x y" {
		t.Errorf("Expected flattened content 'x y', got '%s'", results[2].Content)
	}
}

func TestSearchIDsKeepGrowing(t *testing.T) {
	source := &fakeSource{
		results: []news.SearchResult{{Title: "a", TitleLink: "https://udn.com/a"}},
		details: map[string]*news.ArticleDetail{
			"https://udn.com/a": {Title: "A", Time: "2024-05-01"},
		},
	}
	searcher := NewSearcher(&fakeExtractor{keywords: "k"}, source, 500)

	first, err := searcher.Search(context.Background(), "p")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := searcher.Search(context.Background(), "p")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if first[0].ID != 500 || second[0].ID != 501 {
		t.Errorf("Expected ids 500 then 501, got %d then %d", first[0].ID, second[0].ID)
	}
}

func TestSearchKeywordFailure(t *testing.T) {
	source := &fakeSource{}
	searcher := NewSearcher(&fakeExtractor{err: errBoom}, source, 1000000)

	_, err := searcher.Search(context.Background(), "p")
	if !errors.Is(err, errBoom) {
		t.Errorf("Expected extraction error, got: %v", err)
	}
	if len(source.listings) != 0 {
		t.Error("Expected no listing after extraction failure")
	}
}

func TestSearchListingFailure(t *testing.T) {
	searcher := NewSearcher(&fakeExtractor{keywords: "k"}, &fakeSource{listErr: errBoom}, 1000000)

	_, err := searcher.Search(context.Background(), "p")
	if !errors.Is(err, errBoom) {
		t.Errorf("Expected listing error, got: %v", err)
	}
}
