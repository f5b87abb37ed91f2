// Package serpapi provides a client for the SerpAPI Google search endpoint.
package serpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client runs Google searches through SerpAPI.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest describes one Google query.
type SearchRequest struct {
	Query string
	// Num is the number of results requested. Zero leaves it to the service.
	Num int
}

// SearchResponse is the subset of the SerpAPI payload used here.
type SearchResponse struct {
	SearchMetadata SearchMetadata  `json:"search_metadata"`
	OrganicResults []OrganicResult `json:"organic_results"`
	Error          string          `json:"error,omitempty"`
}

// SearchMetadata reports the status of a search.
type SearchMetadata struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrganicResult is one organic search hit.
type OrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

// Links returns the organic result links in rank order.
func (r *SearchResponse) Links() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.OrganicResults))
	for _, o := range r.OrganicResults {
		if o.Link != "" {
			out = append(out, o.Link)
		}
	}
	return out
}

// Option configures the SerpAPI client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a SerpAPI client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://serpapi.com",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, eris.New("serpapi: api key not configured")
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", req.Query)
	params.Set("hl", "en")
	params.Set("gl", "us")
	params.Set("google_domain", "google.com")
	params.Set("api_key", c.apiKey)
	if req.Num > 0 {
		params.Set("num", strconv.Itoa(req.Num))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: create request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("serpapi: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "serpapi: unmarshal response")
	}
	// "Google hasn't returned any results" arrives as a 200 with Error set.
	return &result, nil
}
