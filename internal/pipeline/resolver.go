// Package pipeline resolves a company identifier into its executives: a
// waterfall of search intents feeding fetch, normalize and extraction
// stages, followed by people-data gateways when the web yields too few.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jpeetla/executive-web-scraper/internal/extract"
	"github.com/jpeetla/executive-web-scraper/internal/fetcher"
	"github.com/jpeetla/executive-web-scraper/internal/metrics"
	"github.com/jpeetla/executive-web-scraper/internal/model"
	"github.com/jpeetla/executive-web-scraper/internal/normalize"
	"github.com/jpeetla/executive-web-scraper/internal/people"
	"github.com/jpeetla/executive-web-scraper/internal/render"
	"github.com/jpeetla/executive-web-scraper/internal/search"
)

// ErrInvalidIdentifier is returned by ResolveIdentifier for a blank input.
var ErrInvalidIdentifier = eris.New("pipeline: identifier must not be empty")

const (
	defaultMinExecutives  = 5
	defaultMaxResults     = 3
	defaultMaxConcurrency = 3
	linkedInSearchResults = 3

	directLinkedInIntent = "CEO, CTO, COO, and/or executive team LinkedIn"
)

// Extractor pulls candidates out of normalized content.
type Extractor interface {
	Extract(ctx context.Context, template, content string) []extract.Candidate
}

// Deps are the collaborators of a Resolver. Renderer, Normalizer and
// Metrics fall back to no-op or default implementations when nil.
type Deps struct {
	Search     search.Gateway
	Fetcher    fetcher.Fetcher
	Renderer   render.Renderer
	Normalizer *normalize.Normalizer
	Oracle     Extractor
	Gateways   []people.Gateway
	Metrics    metrics.Recorder
}

// Options tune a Resolver.
type Options struct {
	Target Target
	// MinExecutives overrides Target.MinResults when positive.
	MinExecutives  int
	MaxResults     int
	MaxConcurrency int
	EarlyStop      bool
	// ResolveLinkedIn searches for a profile URL for every web candidate.
	ResolveLinkedIn bool
	// DirectLinkedIn adds profile URLs found by a single LinkedIn query,
	// with name and title left blank.
	DirectLinkedIn bool
	// FilterRosters passes gateway records through the roster template.
	FilterRosters bool
	RespectRobots bool
}

// DefaultOptions returns the executive target with early stop, LinkedIn
// resolution and robots checks enabled.
func DefaultOptions() Options {
	return Options{
		Target:          ExecutiveTarget(),
		MaxResults:      defaultMaxResults,
		MaxConcurrency:  defaultMaxConcurrency,
		EarlyStop:       true,
		ResolveLinkedIn: true,
		RespectRobots:   true,
	}
}

// Resolver runs the resolution pipeline. It is safe for concurrent use;
// each call owns its own run state.
type Resolver struct {
	deps Deps
	opts Options
}

// New creates a Resolver.
func New(deps Deps, opts Options) *Resolver {
	if deps.Renderer == nil {
		deps.Renderer = render.Nop{}
	}
	if deps.Normalizer == nil {
		deps.Normalizer = normalize.New(normalize.Options{})
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	if len(opts.Target.Intents) == 0 {
		opts.Target = ExecutiveTarget()
	}
	if opts.Target.Template == "" {
		opts.Target.Template = extract.TemplateWebpage
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultMaxConcurrency
	}
	return &Resolver{deps: deps, opts: opts}
}

// Threshold is the executive count that satisfies a run.
func (r *Resolver) Threshold() int {
	if r.opts.MinExecutives > 0 {
		return r.opts.MinExecutives
	}
	if r.opts.Target.MinResults > 0 {
		return r.opts.Target.MinResults
	}
	return defaultMinExecutives
}

// Resolve returns the executives found for identifier. It never fails:
// every stage error is logged and treated as no results.
func (r *Resolver) Resolve(ctx context.Context, identifier string) []model.Executive {
	return r.Run(ctx, identifier).Executives
}

// ResolveIdentifier validates identifier and runs the pipeline.
func (r *Resolver) ResolveIdentifier(ctx context.Context, identifier string) (model.RunResult, error) {
	if NormalizeDomain(identifier) == "" {
		return model.RunResult{}, ErrInvalidIdentifier
	}
	return r.Run(ctx, identifier), nil
}

// Run resolves identifier and reports the executives with run statistics.
func (r *Resolver) Run(ctx context.Context, identifier string) (result model.RunResult) {
	start := time.Now()
	domain := NormalizeDomain(identifier)
	st := newRun(domain)
	log := zap.L().With(zap.String("domain", domain), zap.String("target", r.opts.Target.Name))

	defer func() {
		if p := recover(); p != nil {
			log.Error("pipeline: recovered from panic", zap.Any("panic", p))
		}
		execs, stats := st.snapshot()
		result = model.RunResult{
			Executives: execs,
			Stats:      stats,
			BySource:   model.CountBySource(execs),
			Duration:   time.Since(start),
		}
		r.deps.Metrics.Record(metrics.Event{
			Kind:     metrics.KindRun,
			Outcome:  outcome(len(execs)),
			Count:    len(execs),
			Duration: result.Duration,
		})
		log.Info("pipeline: run complete",
			zap.Int("executives", len(execs)),
			zap.Int("urls_processed", stats.URLsProcessed),
			zap.Duration("duration", result.Duration),
		)
	}()

	if domain == "" {
		log.Warn("pipeline: empty identifier")
		return result
	}

	r.webStage(ctx, st, log)
	if r.opts.DirectLinkedIn {
		r.directLinkedIn(ctx, st, log)
	}
	r.gatewayStage(ctx, st, log)
	return result
}

func (r *Resolver) webStage(ctx context.Context, st *run, log *zap.Logger) {
	if r.deps.Search == nil || r.deps.Fetcher == nil || r.deps.Oracle == nil {
		log.Warn("pipeline: web stage not configured, skipping")
		return
	}

	threshold := r.Threshold()
	for i, intent := range r.opts.Target.Intents {
		if ctx.Err() != nil {
			return
		}
		if r.opts.EarlyStop && st.count() >= threshold {
			log.Info("pipeline: threshold met, skipping remaining intents",
				zap.Int("skipped", len(r.opts.Target.Intents)-i))
			return
		}

		query := st.domain + " " + intent
		started := time.Now()
		urls := r.deps.Search.Search(ctx, query, r.opts.MaxResults)
		st.update(func(s *model.RunStats) { s.Queries++ })
		r.deps.Metrics.Record(metrics.Event{
			Kind:     metrics.KindQuery,
			Outcome:  outcome(len(urls)),
			Count:    len(urls),
			Duration: time.Since(started),
		})

		kept := st.claim(urls, r.opts.Target.TrustedDomains)
		log.Debug("pipeline: intent searched",
			zap.String("intent", intent),
			zap.Int("results", len(urls)),
			zap.Int("kept", len(kept)),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.MaxConcurrency)
		for _, u := range kept {
			g.Go(func() error {
				r.processURL(gctx, st, u)
				return nil
			})
		}
		_ = g.Wait()
	}
}

// processURL fetches, normalizes and extracts one page, adding every
// candidate to the run. Missing fields stay ""; only wholly blank candidates
// are dropped.
func (r *Resolver) processURL(ctx context.Context, st *run, pageURL string) {
	log := zap.L().With(zap.String("domain", st.domain), zap.String("url", pageURL))
	started := time.Now()
	record := func(outcome string, count int) {
		r.deps.Metrics.Record(metrics.Event{
			Kind:     metrics.KindURL,
			Outcome:  outcome,
			Count:    count,
			Duration: time.Since(started),
		})
	}
	// Workers run on errgroup goroutines, out of reach of Run's recover.
	defer func() {
		if p := recover(); p != nil {
			log.Error("pipeline: recovered from panic processing url", zap.Any("panic", p))
			st.update(func(s *model.RunStats) { s.URLsSkipped++ })
			record(metrics.OutcomeError, 0)
		}
	}()

	if r.opts.RespectRobots && !r.deps.Fetcher.CheckRobotsTxt(ctx, pageURL) {
		log.Warn("pipeline: robots.txt disallows crawling, skipping")
		st.update(func(s *model.RunStats) { s.URLsSkipped++ })
		record(metrics.OutcomeRobots, 0)
		return
	}

	resp := r.deps.Fetcher.Get(ctx, pageURL)
	if !resp.OK() || strings.TrimSpace(resp.Body()) == "" {
		log.Debug("pipeline: fetch failed, skipping", zap.Int("status", resp.Status))
		st.update(func(s *model.RunStats) { s.URLsSkipped++ })
		record(metrics.OutcomeFetch, 0)
		return
	}

	content := r.deps.Normalizer.NormalizeHTML(resp.Body())
	if content == "" {
		log.Debug("pipeline: no static content, rendering", zap.String("renderer", r.deps.Renderer.Name()))
		content = r.deps.Normalizer.Normalize(r.deps.Renderer.Render(ctx, pageURL))
	}
	if content == "" {
		st.update(func(s *model.RunStats) { s.URLsSkipped++ })
		record(metrics.OutcomeEmpty, 0)
		return
	}
	st.update(func(s *model.RunStats) { s.URLsProcessed++ })

	extractStart := time.Now()
	candidates := r.deps.Oracle.Extract(ctx, r.opts.Target.Template, content)
	st.update(func(s *model.RunStats) { s.Extractions++ })
	r.deps.Metrics.Record(metrics.Event{
		Kind:     metrics.KindExtraction,
		Outcome:  outcome(len(candidates)),
		Source:   string(model.SourceWeb),
		Count:    len(candidates),
		Duration: time.Since(extractStart),
	})

	added := 0
	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		title := strings.TrimSpace(c.Title)
		linkedIn := strings.TrimSpace(c.LinkedIn)
		if name == "" && title == "" && linkedIn == "" {
			continue
		}
		if linkedIn == "" && name != "" && r.opts.ResolveLinkedIn {
			linkedIn = r.findLinkedIn(ctx, st, name, title)
		}
		if st.add(model.Executive{
			Domain:   st.domain,
			Name:     name,
			Title:    title,
			LinkedIn: linkedIn,
			Source:   model.SourceWeb,
		}) {
			added++
		}
	}
	log.Debug("pipeline: page extracted", zap.Int("candidates", len(candidates)), zap.Int("added", added))
	record(metrics.OutcomeOK, added)
}

// findLinkedIn returns the first profile URL a "{name} {title} LinkedIn"
// search yields, or "".
func (r *Resolver) findLinkedIn(ctx context.Context, st *run, name, title string) string {
	query := strings.Join(strings.Fields(fmt.Sprintf("%s %s LinkedIn", name, title)), " ")
	urls := r.deps.Search.Search(ctx, query, linkedInSearchResults)
	st.update(func(s *model.RunStats) { s.Queries++ })
	for _, u := range urls {
		if strings.Contains(u, "linkedin.com/in") {
			return u
		}
	}
	return ""
}

// directLinkedIn adds every profile URL from one LinkedIn-focused query.
func (r *Resolver) directLinkedIn(ctx context.Context, st *run, log *zap.Logger) {
	if r.deps.Search == nil || ctx.Err() != nil {
		return
	}
	if r.opts.EarlyStop && st.count() >= r.Threshold() {
		return
	}

	urls := r.deps.Search.Search(ctx, st.domain+" "+directLinkedInIntent, r.opts.MaxResults)
	st.update(func(s *model.RunStats) { s.Queries++ })

	added := 0
	for _, u := range urls {
		if !strings.Contains(u, "linkedin.com/in/") {
			continue
		}
		if st.add(model.Executive{Domain: st.domain, LinkedIn: u, Source: model.SourceWeb}) {
			added++
		}
	}
	log.Debug("pipeline: direct linkedin search", zap.Int("results", len(urls)), zap.Int("added", added))
}

// gatewayStage tops the run up from people-data gateways while it is below
// the threshold.
func (r *Resolver) gatewayStage(ctx context.Context, st *run, log *zap.Logger) {
	threshold := r.Threshold()
	for _, gw := range r.deps.Gateways {
		if ctx.Err() != nil {
			return
		}
		if st.count() >= threshold {
			return
		}

		glog := log.With(zap.String("source", string(gw.Name())))
		started := time.Now()
		records, err := gw.Search(ctx, st.domain)
		st.update(func(s *model.RunStats) { s.GatewayCalls++ })
		if err != nil {
			glog.Warn("pipeline: gateway failed", zap.Error(err))
			r.deps.Metrics.Record(metrics.Event{
				Kind:     metrics.KindGatewayCall,
				Outcome:  metrics.OutcomeError,
				Source:   string(gw.Name()),
				Duration: time.Since(started),
			})
			continue
		}

		if r.opts.FilterRosters && len(records) > 0 {
			records = r.filterRoster(ctx, st.domain, gw.Name(), records)
		}

		added := st.merge(records)
		r.deps.Metrics.Record(metrics.Event{
			Kind:     metrics.KindGatewayCall,
			Outcome:  outcome(added),
			Source:   string(gw.Name()),
			Count:    added,
			Duration: time.Since(started),
		})
		glog.Info("pipeline: gateway merged", zap.Int("records", len(records)), zap.Int("added", added))
	}
}

// filterRoster asks the oracle to keep only the leadership entries of a
// gateway roster.
func (r *Resolver) filterRoster(ctx context.Context, domain string, source model.Source, records []model.Executive) []model.Executive {
	if r.deps.Oracle == nil {
		return records
	}

	candidates := r.deps.Oracle.Extract(ctx, extract.TemplateRoster, RosterContent(records))
	out := make([]model.Executive, 0, len(candidates))
	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		out = append(out, model.Executive{
			Domain:   domain,
			Name:     name,
			Title:    strings.TrimSpace(c.Title),
			LinkedIn: strings.TrimSpace(c.LinkedIn),
			Source:   source,
		})
	}
	return out
}

// RosterContent renders records as the plain-text roster the oracle reads.
func RosterContent(records []model.Executive) string {
	var b strings.Builder
	for i, e := range records {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Name: %s\nTitle: %s\nLinkedIn: %s", e.Name, e.Title, e.LinkedIn)
	}
	return b.String()
}

func outcome(n int) string {
	if n > 0 {
		return metrics.OutcomeOK
	}
	return metrics.OutcomeEmpty
}
