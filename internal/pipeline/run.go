package pipeline

import (
	"strings"
	"sync"

	"github.com/jpeetla/executive-web-scraper/internal/model"
)

// run is the mutable state of one Resolve call. Workers share it through
// the mutex; nothing outlives the call.
type run struct {
	domain string

	mu      sync.Mutex
	scraped map[string]struct{}
	keys    map[string]struct{}
	names   map[string]struct{}
	execs   []model.Executive
	stats   model.RunStats
}

func newRun(domain string) *run {
	return &run{
		domain:  domain,
		scraped: make(map[string]struct{}),
		keys:    make(map[string]struct{}),
		names:   make(map[string]struct{}),
	}
}

// claim filters urls through the allow-list and marks the survivors as
// scraped so later intents skip them.
func (r *run) claim(urls, trusted []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := FilterByCompany(urls, r.domain, trusted, r.scraped)
	for _, u := range kept {
		r.scraped[u] = struct{}{}
	}
	r.stats.URLsSkipped += len(urls) - len(kept)
	return kept
}

// add inserts e unless an executive with the same LinkedIn URL, or with the
// same name and title when neither has one, is already present.
func (r *run) add(e model.Executive) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(e)
}

func (r *run) addLocked(e model.Executive) bool {
	key := e.DedupeKey()
	if _, ok := r.keys[key]; ok {
		return false
	}
	r.keys[key] = struct{}{}
	if e.Name != "" {
		r.names[strings.TrimSpace(e.Name)] = struct{}{}
	}
	r.execs = append(r.execs, e)
	return true
}

// merge appends gateway records whose exact name is not yet present.
// It returns how many were added.
func (r *run) merge(records []model.Executive) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, e := range records {
		if e.Name != "" {
			if _, ok := r.names[strings.TrimSpace(e.Name)]; ok {
				continue
			}
		}
		if r.addLocked(e) {
			added++
		}
	}
	return added
}

func (r *run) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.execs)
}

func (r *run) update(fn func(*model.RunStats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

// snapshot returns a copy of the accumulated executives and stats.
func (r *run) snapshot() ([]model.Executive, model.RunStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Executive, len(r.execs))
	copy(out, r.execs)
	stats := r.stats
	stats.ExecutivesSeen = len(out)
	return out, stats
}
