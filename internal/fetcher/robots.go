package fetcher

import (
	"context"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// CheckRobotsTxt fetches baseURL's /robots.txt and reports whether the site
// root may be crawled by this fetcher's user agent. A missing or unreadable
// robots.txt allows crawling. Only a group that disallows "/" (or "*") for
// the matching agent denies it; Allow lines cannot lift that denial.
func (f *HTTPFetcher) CheckRobotsTxt(ctx context.Context, baseURL string) bool {
	robotsURL, ok := RobotsURL(baseURL)
	if !ok {
		return true
	}

	resp := f.Get(ctx, robotsURL)
	if !resp.OK() || strings.TrimSpace(resp.Body()) == "" {
		zap.L().Debug("robots.txt unavailable, defaulting to allow",
			zap.String("url", robotsURL),
			zap.Int("status", resp.Status),
		)
		return true
	}

	data, err := robotstxt.FromString(rootRules(resp.Body()))
	if err != nil {
		zap.L().Debug("robots.txt parse failed, defaulting to allow",
			zap.String("url", robotsURL),
			zap.Error(err),
		)
		return true
	}

	return data.FindGroup(RobotsAgent(f.opts.UserAgent)).Test("/")
}

// rootRules rewrites a robots.txt body so that only root denials survive:
// "Disallow: /", "Disallow: *" and "Disallow: /*" all become "Disallow: /",
// and every other Allow or Disallow line becomes an empty Disallow. Empty
// rules keep group boundaries intact while letting Test("/") answer whether
// the matched group denies the root, whatever its Allow lines say.
func rootRules(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key != "allow" && key != "disallow" {
			continue
		}
		if c := strings.IndexByte(value, '#'); c >= 0 {
			value = value[:c]
		}
		switch value = strings.TrimSpace(value); {
		case key == "disallow" && (value == "/" || value == "*" || value == "/*"):
			lines[i] = "Disallow: /"
		default:
			lines[i] = "Disallow:"
		}
	}
	return strings.Join(lines, "\n")
}

// RobotsAgent reduces a browser-style user agent to the product token that
// robots.txt groups name, e.g. "ExecutiveFinderBot" from
// "Mozilla/5.0 (compatible; ExecutiveFinderBot/1.0)".
func RobotsAgent(userAgent string) string {
	if i := strings.Index(userAgent, "compatible;"); i >= 0 {
		rest := strings.TrimSpace(userAgent[i+len("compatible;"):])
		if j := strings.IndexAny(rest, "/;) "); j > 0 {
			return rest[:j]
		}
		return rest
	}
	return userAgent
}

// RobotsURL returns the robots.txt location for the host of rawURL.
func RobotsURL(rawURL string) (string, bool) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host + "/robots.txt", true
}
