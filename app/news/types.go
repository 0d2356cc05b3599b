package news

import (
	"errors"
	"strings"
)

var (
	// ErrMalformedArticle means an article page lacks one of the expected elements.
	ErrMalformedArticle = errors.New("malformed article page")
	ErrUpstream         = errors.New("news source request failed")
)

// SearchResult is one entry of the search endpoint's "lists" array.
type SearchResult struct {
	Title     string `json:"title"`
	TitleLink string `json:"titleLink"`
}

type searchResponse struct {
	Lists []SearchResult `json:"lists"`
}

type ArticleDetail struct {
	Title      string
	Time       string
	Paragraphs []string
}

// Content flattens the kept paragraphs into the stored body text.
func (d *ArticleDetail) Content() string {
	return strings.Join(d.Paragraphs, " ")
}
