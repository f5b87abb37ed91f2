// Package jina provides a client for the Jina AI reader and search API.
package jina

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jpeetla/executive-web-scraper/internal/resilience"
)

// Client reads pages and runs searches through Jina AI.
type Client interface {
	// Read fetches a URL through the reader and returns its rendered text.
	Read(ctx context.Context, targetURL string) (*ReadResponse, error)
	// Search performs a web search and returns ranked results.
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// ReadResponse is the parsed reader response.
type ReadResponse struct {
	Code int      `json:"code"`
	Data ReadData `json:"data"`
}

// ReadData holds the content of a read page.
type ReadData struct {
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	Content string    `json:"content"`
	Usage   ReadUsage `json:"usage"`
}

// ReadUsage tracks token consumption.
type ReadUsage struct {
	Tokens int `json:"tokens"`
}

// SearchResponse is the parsed search response.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

// URLs returns the result links in rank order, skipping blanks.
func (r *SearchResponse) URLs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Data))
	for _, d := range r.Data {
		if d.URL != "" {
			out = append(out, d.URL)
		}
	}
	return out
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// SearchOption configures a search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	siteFilter string
	num        int
}

// WithSiteFilter restricts search results to a specific domain.
func WithSiteFilter(domain string) SearchOption {
	return func(o *searchOpts) {
		o.siteFilter = domain
	}
}

// WithNum caps the number of results the service returns.
func WithNum(n int) SearchOption {
	return func(o *searchOpts) {
		o.num = n
	}
}

// Option configures the Jina client.
type Option func(*httpClient)

// WithBaseURL points Read at another reader host.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.readerURL = u }
}

// WithSearchBaseURL points Search at another search host.
func WithSearchBaseURL(u string) Option {
	return func(c *httpClient) { c.searchURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRetry sets the attempt count and first backoff for transient failures
// (network errors, 408, 429 and 5xx).
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *httpClient) {
		if attempts > 0 {
			c.retry.MaxAttempts = attempts
		}
		if backoff > 0 {
			c.retry.InitialBackoff = backoff
		}
	}
}

type httpClient struct {
	apiKey    string
	readerURL string
	searchURL string
	http      *http.Client
	retry     resilience.RetryConfig
}

// NewClient creates a Jina client. An empty key is allowed; the service
// then applies its anonymous quota.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		readerURL: "https://r.jina.ai",
		searchURL: "https://s.jina.ai",
		http:      &http.Client{Timeout: 30 * time.Second},
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			Multiplier:     2,
			OnRetry:        resilience.RetryLogger("jina", "get"),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues a GET and returns the body of a 2xx response or of any status
// listed in pass. Other statuses come back as *resilience.StatusError.
func (c *httpClient) get(ctx context.Context, endpoint string, header http.Header, pass ...int) ([]byte, int, error) {
	type reply struct {
		body   []byte
		status int
	}
	r, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (reply, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return reply{}, err
		}
		req.Header = header.Clone()
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return reply{}, err
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return reply{}, resilience.NewTransientError(err, resp.StatusCode)
		}
		if resp.StatusCode/100 == 2 || slices.Contains(pass, resp.StatusCode) {
			return reply{body: body, status: resp.StatusCode}, nil
		}
		return reply{}, &resilience.StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	})
	return r.body, r.status, err
}

func (c *httpClient) Read(ctx context.Context, targetURL string) (*ReadResponse, error) {
	h := http.Header{}
	h.Set("X-Return-Format", "text")
	h.Set("X-Retain-Images", "none")

	body, _, err := c.get(ctx, c.readerURL+"/"+targetURL, h)
	if err != nil {
		return nil, eris.Wrapf(err, "jina: read %s", targetURL)
	}

	var out ReadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal read response")
	}
	return &out, nil
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	var so searchOpts
	for _, opt := range opts {
		opt(&so)
	}

	endpoint := c.searchURL + "/" + url.PathEscape(query)
	params := url.Values{}
	if so.siteFilter != "" {
		params.Set("site", so.siteFilter)
	}
	if so.num > 0 {
		params.Set("num", strconv.Itoa(so.num))
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	h := http.Header{}
	h.Set("X-Respond-With", "no-content")

	body, status, err := c.get(ctx, endpoint, h, http.StatusUnprocessableEntity)
	if err != nil {
		return nil, eris.Wrapf(err, "jina: search %q", query)
	}
	// 422: the query matched nothing.
	if status == http.StatusUnprocessableEntity {
		return &SearchResponse{Code: status}, nil
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal search response")
	}
	return &out, nil
}
