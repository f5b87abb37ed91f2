package render

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jpeetla/executive-web-scraper/internal/normalize"
)

// DefaultMaxPages is the number of pages rendered before the browser is recycled.
const DefaultMaxPages = 75

// LaunchFunc starts a browser and returns it with a function that kills the
// underlying process.
type LaunchFunc func() (*rod.Browser, func(), error)

// RodOption configures a RodRenderer.
type RodOption func(*RodRenderer)

// WithMaxPages sets how many pages are rendered before the browser restarts.
func WithMaxPages(n int64) RodOption {
	return func(r *RodRenderer) {
		if n > 0 {
			r.maxPages = n
		}
	}
}

// WithTimeout sets the per-page render timeout.
func WithTimeout(d time.Duration) RodOption {
	return func(r *RodRenderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) RodOption {
	return func(r *RodRenderer) {
		r.userAgent = ua
	}
}

// WithLauncher replaces the headless Chrome launcher.
func WithLauncher(fn LaunchFunc) RodOption {
	return func(r *RodRenderer) {
		r.launch = fn
	}
}

// RodRenderer renders pages in headless Chrome. The browser is launched on
// first use and recycled every maxPages pages. It is safe for concurrent use.
type RodRenderer struct {
	launch    LaunchFunc
	maxPages  int64
	timeout   time.Duration
	userAgent string

	mu      sync.Mutex
	current *generation
	closed  bool
}

// generation is one launched browser. A retired generation is shut down
// once its last in-flight page is released.
type generation struct {
	browser  *rod.Browser
	kill     func()
	pages    int64
	inflight int
	retired  bool
}

func (g *generation) shutdown() {
	if g.browser != nil {
		_ = g.browser.Close()
	}
	if g.kill != nil {
		g.kill()
	}
}

// NewRodRenderer creates a RodRenderer. No browser is started until Render
// is first called.
func NewRodRenderer(opts ...RodOption) *RodRenderer {
	r := &RodRenderer{
		launch:   launchHeadless,
		maxPages: DefaultMaxPages,
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func launchHeadless() (*rod.Browser, func(), error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, nil, eris.Wrap(err, "render: launch browser")
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, eris.Wrap(err, "render: connect to browser")
	}
	return browser, l.Kill, nil
}

// Name implements Renderer.
func (r *RodRenderer) Name() string { return "rod" }

// Render implements Renderer.
func (r *RodRenderer) Render(ctx context.Context, url string) string {
	log := zap.L().With(zap.String("url", url))

	gen, err := r.acquire()
	if err != nil {
		log.Warn("render: browser unavailable", zap.Error(err))
		return ""
	}
	defer r.release(gen)

	html, err := r.renderHTML(ctx, gen.browser, url)
	if err != nil {
		log.Debug("render: page failed", zap.Error(err))
		return ""
	}
	return normalize.ExtractText(html)
}

func (r *RodRenderer) renderHTML(ctx context.Context, browser *rod.Browser, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", eris.Wrap(err, "render: open page")
	}
	defer page.Close() //nolint:errcheck

	page = page.Context(ctx)
	if r.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.userAgent}); err != nil {
			return "", eris.Wrap(err, "render: set user agent")
		}
	}
	if err := page.Navigate(url); err != nil {
		return "", eris.Wrap(err, "render: navigate")
	}
	if err := page.WaitLoad(); err != nil {
		return "", eris.Wrap(err, "render: wait load")
	}
	html, err := page.HTML()
	if err != nil {
		return "", eris.Wrap(err, "render: read html")
	}
	return html, nil
}

// acquire returns the live browser generation with one more page in flight,
// launching or recycling the browser as needed. Every successful acquire
// must be paired with release.
func (r *RodRenderer) acquire() (*generation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, eris.New("render: renderer closed")
	}

	if r.current != nil && r.current.pages >= r.maxPages {
		r.recycle()
	}
	if r.current == nil {
		browser, kill, err := r.launch()
		if err != nil {
			return nil, err
		}
		r.current = &generation{browser: browser, kill: kill}
	}
	r.current.pages++
	r.current.inflight++
	return r.current, nil
}

// release ends one in-flight page on gen and shuts gen down if it was
// retired and this was its last page.
func (r *RodRenderer) release(gen *generation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gen.inflight--
	if gen.retired && gen.inflight == 0 {
		gen.shutdown()
	}
}

// recycle swaps in a fresh browser. The old one is kept if the launch fails.
// Must be called with mu held.
func (r *RodRenderer) recycle() {
	browser, kill, err := r.launch()
	if err != nil {
		zap.L().Warn("render: browser recycle failed, keeping current", zap.Error(err))
		return
	}
	r.retire()
	r.current = &generation{browser: browser, kill: kill}
}

// retire detaches the current generation, shutting it down now when idle
// and otherwise on its last release. Must be called with mu held.
func (r *RodRenderer) retire() {
	if r.current == nil {
		return
	}
	r.current.retired = true
	if r.current.inflight == 0 {
		r.current.shutdown()
	}
	r.current = nil
}

// Close releases the browser. Pages still rendering finish first. It is
// safe to call more than once.
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.retire()
	return nil
}
