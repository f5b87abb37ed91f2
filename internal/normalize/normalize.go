// Package normalize reduces raw page text to a bounded excerpt biased toward
// leadership content, sized for an LLM prompt.
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Options configures a Normalizer.
type Options struct {
	// TokenBudget is the prompt budget in tokens. Default: 15000.
	TokenBudget int
	// CharsPerToken converts the budget to characters. Default: 4.
	CharsPerToken int
	// TopSections is how many scored sections are kept. Default: 2.
	TopSections int
	// Titles overrides ExecutiveTitles for scoring.
	Titles []string
}

// Normalizer cleans and budgets page text. It is safe for concurrent use.
type Normalizer struct {
	budget     int
	top        int
	leadership []*regexp.Regexp
	titles     []*regexp.Regexp
	frequency  []*regexp.Regexp
}

// New builds a Normalizer, applying defaults for zero options.
func New(opts Options) *Normalizer {
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = 15000
	}
	if opts.CharsPerToken <= 0 {
		opts.CharsPerToken = 4
	}
	if opts.TopSections <= 0 {
		opts.TopSections = 2
	}
	titles := opts.Titles
	if len(titles) == 0 {
		titles = ExecutiveTitles
	}
	return &Normalizer{
		budget:     opts.TokenBudget * opts.CharsPerToken,
		top:        opts.TopSections,
		leadership: compileTerms(LeadershipKeywords),
		titles:     compileTerms(titles),
		frequency:  compileTerms(frequencyWords),
	}
}

// Budget returns the character ceiling of Normalize output.
func (n *Normalizer) Budget() int { return n.budget }

// Normalize cleans text and, when it exceeds the budget, keeps the
// highest-scoring sections and truncates the remainder to fit.
func (n *Normalizer) Normalize(text string) string {
	cleaned := Clean(text)
	if len(cleaned) <= n.budget {
		return cleaned
	}

	reduced := RemoveStopWords(cleaned)
	if len(reduced) <= n.budget {
		return reduced
	}

	selected := n.selectSections(n.split(reduced))
	return Truncate(selected, n.budget)
}

// NormalizeHTML extracts visible text from an HTML document and normalizes it.
func (n *Normalizer) NormalizeHTML(html string) string {
	return n.Normalize(ExtractText(html))
}

type section struct {
	idx   int
	text  string
	score int
}

// split breaks text into paragraphs, or into fixed budget-sized chunks when
// the document has no usable paragraph structure.
func (n *Normalizer) split(text string) []string {
	paras := strings.Split(text, "\n\n")
	usable := len(paras) > 1
	for _, p := range paras {
		if len(p) > n.budget {
			usable = false
			break
		}
	}
	if usable {
		return paras
	}
	return chunk(text, n.budget)
}

func (n *Normalizer) selectSections(parts []string) string {
	sections := make([]section, 0, len(parts))
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		sections = append(sections, section{idx: i, text: p, score: n.Score(p)})
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].score > sections[j].score
	})
	if len(sections) > n.top {
		sections = sections[:n.top]
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].idx < sections[j].idx })

	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.text
	}
	return strings.Join(out, "\n\n")
}

// Score rates how likely a section is to describe company leadership.
func (n *Normalizer) Score(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, re := range n.leadership {
		score += 2 * len(re.FindAllStringIndex(lower, -1))
	}
	for _, re := range n.titles {
		score += 3 * len(re.FindAllStringIndex(lower, -1))
	}
	freq := 0
	for _, re := range n.frequency {
		freq += len(re.FindAllStringIndex(lower, -1))
	}
	return score + min(freq, frequencyCap)
}

// Truncate cuts text to at most limit bytes on a rune boundary. When the last
// sentence or line break falls within the final 20% of the limit, the cut is
// moved back to it.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	if idx := strings.LastIndexAny(cut, ".\n"); idx >= 0 && idx > limit*8/10 {
		cut = cut[:idx+1]
	}
	return strings.TrimSpace(cut)
}

func chunk(text string, size int) []string {
	var out []string
	for len(text) > size {
		end := size
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == 0 {
			end = size
		}
		out = append(out, text[:end])
		text = text[end:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// compileTerms builds case-insensitive whole-word matchers. Terms are
// matched against text that has been through RemoveStopWords, so the same
// reduction is applied to each term.
func compileTerms(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(terms))
	seen := make(map[string]bool)
	for _, t := range terms {
		t = strings.ToLower(RemoveStopWords(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(t)+`\b`))
	}
	return out
}
