package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jpeetla/executive-web-scraper/internal/config"
	"github.com/jpeetla/executive-web-scraper/internal/extract"
	"github.com/jpeetla/executive-web-scraper/internal/fetcher"
	"github.com/jpeetla/executive-web-scraper/internal/metrics"
	"github.com/jpeetla/executive-web-scraper/internal/model"
	"github.com/jpeetla/executive-web-scraper/internal/normalize"
	"github.com/jpeetla/executive-web-scraper/internal/people"
	"github.com/jpeetla/executive-web-scraper/internal/pipeline"
	"github.com/jpeetla/executive-web-scraper/internal/render"
	"github.com/jpeetla/executive-web-scraper/internal/resilience"
	"github.com/jpeetla/executive-web-scraper/internal/search"
	"github.com/jpeetla/executive-web-scraper/internal/store"
	anthropicpkg "github.com/jpeetla/executive-web-scraper/pkg/anthropic"
	"github.com/jpeetla/executive-web-scraper/pkg/apollo"
	"github.com/jpeetla/executive-web-scraper/pkg/crust"
	"github.com/jpeetla/executive-web-scraper/pkg/gemini"
	"github.com/jpeetla/executive-web-scraper/pkg/jina"
	"github.com/jpeetla/executive-web-scraper/pkg/notion"
	"github.com/jpeetla/executive-web-scraper/pkg/serpapi"
)

// pipelineEnv holds the resolver and everything it was built from, shared
// by the scrape, batch and serve commands.
type pipelineEnv struct {
	Store    store.Store
	Resolver *pipeline.Resolver
	Target   pipeline.Target
	Notion   notion.Client       // nil when notion.token is unset
	Metrics  *metrics.Prometheus // nil when metrics are disabled

	closers []func() error
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	for i := len(pe.closers) - 1; i >= 0; i-- {
		if err := pe.closers[i](); err != nil {
			zap.L().Warn("close pipeline resource", zap.Error(err))
		}
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates the config, opens the run store and builds the
// resolver for targetName (the configured target when empty). Callers
// should defer env.Close().
func initPipeline(ctx context.Context, targetName string) (*pipelineEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	target, err := loadTarget(cfg, targetName)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	env := &pipelineEnv{Store: st, Target: target}
	if cfg.Notion.Token != "" {
		env.Notion = notion.NewClient(cfg.Notion.Token)
	}

	jinaOpts := []jina.Option{jina.WithBaseURL(cfg.Jina.BaseURL)}
	if cfg.Jina.SearchBaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	}
	jinaClient := jina.NewClient(cfg.Jina.Key, jinaOpts...)

	gw, err := buildSearch(cfg, jinaClient)
	if err != nil {
		env.Close()
		return nil, err
	}

	completer, err := buildCompleter(ctx, cfg)
	if err != nil {
		env.Close()
		return nil, err
	}

	renderer, closeRenderer := buildRenderer(cfg, jinaClient)
	if closeRenderer != nil {
		env.closers = append(env.closers, closeRenderer)
	}

	crustClient := crust.NewClient(cfg.Crust.Key, crust.WithBaseURL(cfg.Crust.BaseURL))
	apolloClient := apollo.NewClient(cfg.Apollo.Key, apollo.WithBaseURL(cfg.Apollo.BaseURL))
	gateways, err := people.Build(enabledGateways(cfg), crustClient, apolloClient)
	if err != nil {
		env.Close()
		return nil, err
	}

	var recorder metrics.Recorder = metrics.Nop{}
	if cfg.Metrics.Enabled {
		env.Metrics = metrics.NewPrometheus()
		recorder = env.Metrics
	}

	env.Resolver = pipeline.New(pipeline.Deps{
		Search:   gw,
		Fetcher:  buildFetcher(cfg),
		Renderer: renderer,
		Normalizer: normalize.New(normalize.Options{
			TokenBudget:   cfg.Normalize.TokenBudget,
			CharsPerToken: cfg.Normalize.CharsPerToken,
			TopSections:   cfg.Normalize.TopSections,
		}),
		Oracle: extract.NewOracle(completer, extract.Options{
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     config.Timeout(cfg.LLM.TimeoutSecs, 60*time.Second),
		}),
		Gateways: gateways,
		Metrics:  recorder,
	}, resolverOptions(cfg, target))

	zap.L().Info("pipeline ready",
		zap.String("target", target.Name),
		zap.String("search", cfg.Search.Provider),
		zap.String("llm", cfg.LLM.Provider),
		zap.Int("gateways", len(gateways)),
		zap.Bool("render", cfg.Render.Enabled),
	)
	return env, nil
}

// initStore opens the configured run store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

func loadTarget(c *config.Config, name string) (pipeline.Target, error) {
	if name == "" {
		name = c.Pipeline.Target
	}
	var extra []pipeline.Target
	if c.Pipeline.TargetsFile != "" {
		loaded, err := pipeline.LoadTargets(c.Pipeline.TargetsFile)
		if err != nil {
			return pipeline.Target{}, err
		}
		extra = loaded
	}
	return pipeline.TargetByName(name, extra)
}

func resolverOptions(c *config.Config, target pipeline.Target) pipeline.Options {
	return pipeline.Options{
		Target:          target,
		MinExecutives:   c.Pipeline.MinExecutives,
		MaxResults:      c.Pipeline.MaxResults,
		MaxConcurrency:  c.Pipeline.MaxConcurrency,
		EarlyStop:       c.Pipeline.EarlyStop,
		ResolveLinkedIn: c.Pipeline.ResolveLinkedIn,
		DirectLinkedIn:  c.Pipeline.DirectLinkedIn,
		FilterRosters:   c.Pipeline.FilterRosters,
		RespectRobots:   c.Fetch.RespectRobots,
	}
}

func buildSearch(c *config.Config, jc jina.Client) (search.Gateway, error) {
	timeout := config.Timeout(c.Search.TimeoutSecs, 15*time.Second)
	switch c.Search.Provider {
	case "serpapi":
		return search.NewSerpAPI(serpapi.NewClient(c.SerpAPI.Key, serpapi.WithBaseURL(c.SerpAPI.BaseURL)), timeout), nil
	case "jina":
		return search.NewJina(jc, timeout), nil
	default:
		return nil, eris.Errorf("unknown search provider %q", c.Search.Provider)
	}
}

func buildCompleter(ctx context.Context, c *config.Config) (extract.Completer, error) {
	switch c.LLM.Provider {
	case "anthropic":
		return extract.NewAnthropicCompleter(anthropicpkg.NewClient(c.Anthropic.Key), c.Anthropic.Model), nil
	case "gemini":
		gc, err := gemini.NewClient(ctx, gemini.Config{APIKey: c.Gemini.Key, BaseURL: c.Gemini.BaseURL})
		if err != nil {
			return nil, err
		}
		return extract.NewGeminiCompleter(gc, c.Gemini.Model), nil
	default:
		return nil, eris.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
}

func buildFetcher(c *config.Config) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    c.Fetch.UserAgent,
		Timeout:      config.Timeout(c.Fetch.TimeoutSecs, 10*time.Second),
		MinInterval:  time.Duration(c.Fetch.MinIntervalMS) * time.Millisecond,
		MaxBodyBytes: c.Fetch.MaxBodyBytes,
		Retry: resilience.FetchRetryConfig(
			c.Fetch.MaxRetries,
			time.Duration(c.Fetch.RetryBaseMS)*time.Millisecond,
		),
	})
}

// buildRenderer returns the render fallback and, for a headless browser,
// the function that shuts it down. With rod selected and a Jina key set,
// Jina Reader is tried after the browser.
func buildRenderer(c *config.Config, jc jina.Client) (render.Renderer, func() error) {
	if !c.Render.Enabled {
		return render.Nop{}, nil
	}

	timeout := config.Timeout(c.Render.TimeoutSecs, 30*time.Second)
	jr := render.NewJinaRenderer(jc, timeout)
	if c.Render.Provider == "jina" {
		return jr, nil
	}

	rod := render.NewRodRenderer(
		render.WithMaxPages(c.Render.MaxPages),
		render.WithTimeout(timeout),
		render.WithUserAgent(c.Fetch.UserAgent),
	)
	if c.Jina.Key == "" {
		return rod, rod.Close
	}
	return render.NewChain(rod, jr), rod.Close
}

// enabledGateways drops configured gateways whose provider key is unset.
func enabledGateways(c *config.Config) []string {
	var out []string
	for _, name := range c.Pipeline.Gateways {
		switch model.Source(strings.ToLower(strings.TrimSpace(name))) {
		case model.SourceCrust, model.SourceParaform:
			if c.Crust.Key == "" {
				zap.L().Debug("crust key not set, gateway disabled", zap.String("gateway", name))
				continue
			}
		case model.SourceApollo:
			if c.Apollo.Key == "" {
				zap.L().Debug("apollo key not set, gateway disabled", zap.String("gateway", name))
				continue
			}
		}
		out = append(out, name)
	}
	return out
}
