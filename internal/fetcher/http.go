package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jpeetla/executive-web-scraper/internal/resilience"
)

// DefaultUserAgent identifies the crawler to the sites it visits.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ExecutiveFinderBot/1.0)"

// StatusExhausted is reported when every retry attempt failed.
const StatusExhausted = http.StatusInternalServerError

var errInvalidRequest = errors.New("fetcher: invalid request")

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MinInterval  time.Duration
	MaxBodyBytes int64
	Retry        resilience.RetryConfig
	Client       *http.Client
}

// HTTPFetcher implements Fetcher using net/http. A single HTTPFetcher paces
// every request it makes, including retries and robots.txt lookups.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 << 20
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.FetchRetryConfig(3, time.Second)
	}
	opts.Retry.ShouldRetry = shouldRetry
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("fetcher", "get")
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &HTTPFetcher{
		client:  client,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// shouldRetry retries everything except malformed requests and cancellation.
// 4xx responses never reach here: attempt returns them as a value.
func shouldRetry(err error) bool {
	if errors.Is(err, errInvalidRequest) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// Get fetches rawURL. It never returns an error: a 4xx comes back at once
// with its status and nil Data, and exhausted retries yield StatusExhausted.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) Response {
	log := zap.L().With(zap.String("url", rawURL))

	resp, err := resilience.DoVal(ctx, f.opts.Retry, func(ctx context.Context) (Response, error) {
		return f.attempt(ctx, rawURL)
	})
	if err != nil {
		log.Debug("fetcher: giving up", zap.Error(err))
		return Response{Status: StatusExhausted, URL: rawURL}
	}
	if resp.Denied() {
		log.Warn("fetcher: client error, not retrying", zap.Int("status", resp.Status))
	}
	return resp
}

func (f *HTTPFetcher) attempt(ctx context.Context, rawURL string) (Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return Response{}, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, eris.Wrapf(errInvalidRequest, "fetcher: create request %s: %v", rawURL, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Response{}, eris.Wrap(err, "fetcher: do request")
	}
	defer resp.Body.Close() //nolint:errcheck

	out := Response{Status: resp.StatusCode, Headers: resp.Header, URL: rawURL}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return out, nil
	case resp.StatusCode >= 300:
		return Response{}, &resilience.StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return Response{}, eris.Wrap(err, "fetcher: read body")
	}
	data := string(body)
	out.Data = &data
	return out, nil
}
