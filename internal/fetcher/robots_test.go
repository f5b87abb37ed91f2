package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func robotsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckRobotsTxt(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"missing", http.StatusNotFound, "", true},
		{"forbidden", http.StatusForbidden, "", true},
		{"empty", http.StatusOK, "", true},
		{"allow all", http.StatusOK, "User-agent: *\nDisallow:\n", true},
		{"partial disallow", http.StatusOK, "User-agent: *\nDisallow: /private\n", true},
		{"disallow root", http.StatusOK, "User-agent: *\nDisallow: /\n", false},
		{"disallow other agent", http.StatusOK, "User-agent: googlebot\nDisallow: /\n", true},
		{"disallow our agent", http.StatusOK, "User-agent: test-agent\nDisallow: /\n\nUser-agent: *\nAllow: /\n", false},
		{"disallow star", http.StatusOK, "User-agent: *\nDisallow: *\n", false},
		{"disallow slash star", http.StatusOK, "User-agent: *\nDisallow: /*\n", false},
		{"allow cannot lift root disallow", http.StatusOK, "User-agent: *\nAllow: /$\nDisallow: /\n", false},
		{"disallow root with comment", http.StatusOK, "User-agent: *\r\nDisallow: / # everything\r\n", false},
		{"wildcard path is not root", http.StatusOK, "User-agent: *\nDisallow: /*.pdf\n", true},
		{"own group without root rule", http.StatusOK, "User-agent: test-agent\nDisallow: /private\n\nUser-agent: *\nDisallow: /\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := robotsServer(t, tt.status, tt.body)
			f := newTestFetcher(&recordingClock{})
			assert.Equal(t, tt.want, f.CheckRobotsTxt(context.Background(), srv.URL+"/team"))
		})
	}
}

func TestCheckRobotsTxt_FetchFailureAllows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(&recordingClock{})
	assert.True(t, f.CheckRobotsTxt(context.Background(), srv.URL))
}

func TestCheckRobotsTxt_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("User-agent: *\nDisallow: /\n")) //nolint:errcheck
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Timeout: 20 * time.Millisecond})
	f.opts.Retry.Clock = &recordingClock{}
	assert.True(t, f.CheckRobotsTxt(context.Background(), srv.URL))
}

func TestRobotsURL(t *testing.T) {
	got, ok := RobotsURL("https://acme.com/about/team?x=1")
	assert.True(t, ok)
	assert.Equal(t, "https://acme.com/robots.txt", got)

	got, ok = RobotsURL("acme.com")
	assert.True(t, ok)
	assert.Equal(t, "https://acme.com/robots.txt", got)

	_, ok = RobotsURL("https://")
	assert.False(t, ok)
}

func TestRobotsAgent(t *testing.T) {
	assert.Equal(t, "ExecutiveFinderBot", RobotsAgent(DefaultUserAgent))
	assert.Equal(t, "JobScraperBot", RobotsAgent("Mozilla/5.0 (compatible; JobScraperBot/1.0; +http://example.com/bot)"))
	assert.Equal(t, "test-agent", RobotsAgent("test-agent"))
}

func TestRootRules(t *testing.T) {
	in := "User-agent: *\nAllow: /$\nDisallow: *  # all\nDisallow: /tmp\nCrawl-delay: 2\nSitemap: https://acme.com/s.xml"
	want := "User-agent: *\nDisallow:\nDisallow: /\nDisallow:\nCrawl-delay: 2\nSitemap: https://acme.com/s.xml"
	assert.Equal(t, want, rootRules(in))
}
