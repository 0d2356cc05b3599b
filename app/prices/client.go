package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/lysyi3m/news-comb/app/cache"
)

var ErrUpstream = errors.New("price API request failed")

const responseTTL = 10 * time.Minute

// Client proxies the necessities price open data API. Responses are returned
// verbatim and cached per filter pair.
type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	timeout    time.Duration
	responses  cache.Cache
}

func NewClient(endpoint, userAgent string, timeout time.Duration, responses cache.Cache) *Client {
	if responses == nil {
		responses = cache.NoopCache{}
	}

	return &Client{
		httpClient: &http.Client{},
		endpoint:   endpoint,
		userAgent:  userAgent,
		timeout:    timeout,
		responses:  responses,
	}
}

// Fetch returns the JSON document for the optional category and commodity filters.
// Empty filters are left out of the query.
func (c *Client) Fetch(ctx context.Context, category, commodity string) ([]byte, error) {
	key := cache.Key("prices", category, commodity)

	if cached, found, err := c.responses.Get(ctx, key); err != nil {
		slog.Warn("Failed to read cached prices", "error", err)
	} else if found {
		return []byte(cached), nil
	}

	data, err := c.get(ctx, c.requestURL(category, commodity))
	if err != nil {
		return nil, err
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrUpstream)
	}

	if err := c.responses.Set(ctx, key, string(data), responseTTL); err != nil {
		slog.Warn("Failed to cache prices", "error", err)
	}

	return data, nil
}

func (c *Client) requestURL(category, commodity string) string {
	params := url.Values{}
	if category != "" {
		params.Set("CategoryName", category)
	}
	if commodity != "" {
		params.Set("Name", commodity)
	}

	if len(params) == 0 {
		return c.endpoint
	}
	return c.endpoint + "?" + params.Encode()
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP error: %d %s", ErrUpstream, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrUpstream, err)
	}

	return data, nil
}
