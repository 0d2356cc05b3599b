package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	searchPath      = "/api/more"
	searchChannelID = "2"
	searchType      = "searchword"
)

// Client talks to the news site's search API and article pages. It never retries.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	timeout    time.Duration
	maxPages   int
}

// NewClient creates a client for the site at baseURL. maxPages is the exclusive upper
// bound of the page range requested when many pages are wanted.
func NewClient(baseURL, userAgent string, timeout time.Duration, maxPages int) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse news base URL: %w", err)
	}

	if maxPages < 2 {
		return nil, fmt.Errorf("max pages must be at least 2, got %d", maxPages)
	}

	return &Client{
		httpClient: &http.Client{},
		baseURL:    base,
		userAgent:  userAgent,
		timeout:    timeout,
		maxPages:   maxPages,
	}, nil
}

// ListSearchResults queries the search endpoint for keyword. With wantManyPages it
// requests pages 1..maxPages-1 and concatenates them in page order, otherwise page 1 only.
func (c *Client) ListSearchResults(ctx context.Context, keyword string, wantManyPages bool) ([]SearchResult, error) {
	lastPage := 1
	if wantManyPages {
		lastPage = c.maxPages - 1
	}

	results := []SearchResult{}
	for page := 1; page <= lastPage; page++ {
		pageResults, err := c.fetchSearchPage(ctx, keyword, page)
		if err != nil {
			return nil, err
		}
		results = append(results, pageResults...)
	}

	slog.Debug("Search results listed",
		"keyword", keyword,
		"pages", lastPage,
		"results", len(results))

	return results, nil
}

func (c *Client) fetchSearchPage(ctx context.Context, keyword string, page int) ([]SearchResult, error) {
	data, err := c.get(ctx, c.searchURL(keyword, page))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search page %d: %w", page, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search page %d: %v", ErrUpstream, page, err)
	}

	for i := range resp.Lists {
		resp.Lists[i].TitleLink = c.resolve(resp.Lists[i].TitleLink)
	}

	return resp.Lists, nil
}

// searchURL builds the search request. The keyword is percent-encoded into the id
// value before the query string is encoded, so it ends up escaped twice.
func (c *Client) searchURL(keyword string, page int) string {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("id", "search:"+url.PathEscape(keyword))
	params.Set("channelId", searchChannelID)
	params.Set("type", searchType)

	u := c.baseURL.JoinPath(searchPath)
	u.RawQuery = params.Encode()
	return u.String()
}

func (c *Client) resolve(link string) string {
	ref, err := url.Parse(link)
	if err != nil || ref.IsAbs() {
		return link
	}
	return c.baseURL.ResolveReference(ref).String()
}

// FetchArticleDetail downloads and parses one article page.
func (c *Client) FetchArticleDetail(ctx context.Context, articleURL string) (*ArticleDetail, error) {
	data, err := c.get(ctx, articleURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article %s: %w", articleURL, err)
	}

	detail, err := ParseArticle(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article %s: %w", articleURL, err)
	}

	return detail, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP error: %d %s", ErrUpstream, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrUpstream, err)
	}

	return data, nil
}
