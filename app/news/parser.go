package news

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	titleSelector   = "h1.article-content__title"
	timeSelector    = "time.article-content__time"
	contentSelector = "section.article-content__editor"

	// boilerplateGlyph marks related-link paragraphs inside the article body.
	boilerplateGlyph = "▪"
)

// ParseArticle extracts title, time and body paragraphs from an article page.
func ParseArticle(r io.Reader) (*ArticleDetail, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article HTML: %w", err)
	}

	title := doc.Find(titleSelector).First()
	if title.Length() == 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedArticle, titleSelector)
	}

	published := doc.Find(timeSelector).First()
	if published.Length() == 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedArticle, timeSelector)
	}

	section := doc.Find(contentSelector).First()
	if section.Length() == 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedArticle, contentSelector)
	}

	paragraphs := []string{}
	section.ChildrenFiltered("p").Each(func(_ int, p *goquery.Selection) {
		text := p.Text()
		if strings.TrimSpace(text) == "" || strings.Contains(text, boilerplateGlyph) {
			return
		}
		paragraphs = append(paragraphs, text)
	})

	return &ArticleDetail{
		Title:      strings.TrimSpace(title.Text()),
		Time:       strings.TrimSpace(published.Text()),
		Paragraphs: paragraphs,
	}, nil
}
