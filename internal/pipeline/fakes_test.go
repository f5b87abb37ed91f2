package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/jpeetla/executive-web-scraper/internal/extract"
	"github.com/jpeetla/executive-web-scraper/internal/fetcher"
	"github.com/jpeetla/executive-web-scraper/internal/metrics"
	"github.com/jpeetla/executive-web-scraper/internal/model"
)

// --- Search ---

type fakeSearch struct {
	mu      sync.Mutex
	results map[string][]string
	queries []string
}

func (f *fakeSearch) Search(_ context.Context, query string, max int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	urls := f.results[query]
	if max > 0 && len(urls) > max {
		urls = urls[:max]
	}
	return urls
}

func (f *fakeSearch) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// --- Fetcher ---

type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	denied  map[string]bool
	fetched []string
}

func (f *fakeFetcher) Get(_ context.Context, url string) fetcher.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	body, ok := f.pages[url]
	if !ok {
		return fetcher.Response{Status: 500, URL: url}
	}
	return fetcher.Response{Status: 200, Data: &body, URL: url}
}

func (f *fakeFetcher) CheckRobotsTxt(_ context.Context, url string) bool {
	return !f.denied[url]
}

func (f *fakeFetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// --- Oracle ---

// fakeOracle returns the candidates registered for the first key that
// appears in the content.
type fakeOracle struct {
	mu        sync.Mutex
	byContent map[string][]extract.Candidate
	templates []string
	contents  []string
}

func (f *fakeOracle) Extract(_ context.Context, template, content string) []extract.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates = append(f.templates, template)
	f.contents = append(f.contents, content)
	for key, cands := range f.byContent {
		if strings.Contains(content, key) {
			return cands
		}
	}
	return nil
}

// --- Renderer ---

type fakeRenderer struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *fakeRenderer) Name() string { return "fake" }

func (f *fakeRenderer) Render(_ context.Context, url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	return f.pages[url]
}

// --- Gateway ---

type fakeGateway struct {
	source  model.Source
	records []model.Executive
	err     error
	calls   int
}

func (f *fakeGateway) Name() model.Source { return f.source }

func (f *fakeGateway) Search(_ context.Context, domain string) ([]model.Executive, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Executive, len(f.records))
	for i, r := range f.records {
		r.Domain = domain
		r.Source = f.source
		out[i] = r
	}
	return out, nil
}

// --- Metrics ---

type fakeRecorder struct {
	mu     sync.Mutex
	events []metrics.Event
}

func (f *fakeRecorder) Record(e metrics.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeRecorder) count(kind metrics.Kind, outcome string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Kind == kind && (outcome == "" || e.Outcome == outcome) {
			n++
		}
	}
	return n
}

// panickyOracle panics on content containing trigger and otherwise defers to
// next.
type panickyOracle struct {
	trigger string
	next    *fakeOracle
}

func (p *panickyOracle) Extract(ctx context.Context, template, content string) []extract.Candidate {
	if strings.Contains(content, p.trigger) {
		panic("oracle exploded")
	}
	return p.next.Extract(ctx, template, content)
}
