// Package fetcher provides the polite page fetcher used by the resolution
// pipeline: a global minimum interval between requests, retry with
// exponential backoff, and robots.txt checks.
package fetcher

import (
	"context"
	"net/http"
)

// Fetcher retrieves pages. Implementations never return an error: failures
// are reported through the Response status and a nil Data.
type Fetcher interface {
	// Get fetches the URL.
	Get(ctx context.Context, url string) Response

	// CheckRobotsTxt reports whether crawling baseURL is permitted.
	CheckRobotsTxt(ctx context.Context, baseURL string) bool
}

// Response is the uniform result of a fetch.
type Response struct {
	Status  int
	Data    *string
	Headers http.Header
	URL     string
}

// OK reports whether the response carries a body from a 2xx status.
func (r Response) OK() bool {
	return r.Data != nil && r.Status >= 200 && r.Status < 300
}

// Body returns the response body, or "" when there is none.
func (r Response) Body() string {
	if r.Data == nil {
		return ""
	}
	return *r.Data
}

// Denied reports whether the server refused the request with a 4xx status.
func (r Response) Denied() bool {
	return r.Status >= 400 && r.Status < 500
}
