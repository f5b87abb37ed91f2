// Package search runs web queries and returns ranked result URLs.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jpeetla/executive-web-scraper/pkg/jina"
	"github.com/jpeetla/executive-web-scraper/pkg/serpapi"
)

// Gateway returns up to max result URLs for a query. Failures are logged
// and produce an empty list.
type Gateway interface {
	Search(ctx context.Context, query string, max int) []string
}

// SerpAPI searches Google through SerpAPI.
type SerpAPI struct {
	client  serpapi.Client
	timeout time.Duration
}

// NewSerpAPI creates a SerpAPI gateway. A zero timeout means 15s.
func NewSerpAPI(client serpapi.Client, timeout time.Duration) *SerpAPI {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SerpAPI{client: client, timeout: timeout}
}

// Search implements Gateway.
func (g *SerpAPI) Search(ctx context.Context, query string, max int) []string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Search(ctx, serpapi.SearchRequest{Query: query, Num: max})
	if err != nil {
		zap.L().Warn("search: serpapi query failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return limit(resp.Links(), max)
}

// Jina searches through the Jina search endpoint.
type Jina struct {
	client  jina.Client
	timeout time.Duration
}

// NewJina creates a Jina gateway. A zero timeout means 15s.
func NewJina(client jina.Client, timeout time.Duration) *Jina {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Jina{client: client, timeout: timeout}
}

// Search implements Gateway.
func (g *Jina) Search(ctx context.Context, query string, max int) []string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Search(ctx, query, jina.WithNum(max))
	if err != nil {
		zap.L().Warn("search: jina query failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return limit(resp.URLs(), max)
}

func limit(urls []string, max int) []string {
	if max > 0 && len(urls) > max {
		return urls[:max]
	}
	return urls
}
