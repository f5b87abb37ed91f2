// Package extract asks a language model to pull executives out of page text.
package extract

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Candidate is one person returned by the model. Missing fields are "".
type Candidate struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	LinkedIn string `json:"linkedin"`
}

// Options tunes the completion call.
type Options struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Oracle turns page content into candidates. It never returns an error:
// completion or parse failures are logged and yield no candidates.
type Oracle struct {
	completer Completer
	opts      Options
}

// NewOracle creates an Oracle. A nil completer makes every call return nothing.
func NewOracle(c Completer, opts Options) *Oracle {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Oracle{completer: c, opts: opts}
}

// Extract runs the named template over content.
func (o *Oracle) Extract(ctx context.Context, template, content string) []Candidate {
	log := zap.L().With(zap.String("template", template))

	if o.completer == nil {
		log.Warn("extract: no language model configured")
		return nil
	}
	if strings.TrimSpace(content) == "" {
		return nil
	}
	t, ok := LookupTemplate(template)
	if !ok {
		log.Warn("extract: unknown template")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	text, err := o.completer.Complete(ctx, Prompt{
		System:      systemPrompt,
		User:        t.userPrompt(content),
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
		Schema:      t.schema(),
	})
	if err != nil {
		log.Warn("extract: completion failed", zap.Error(err))
		return nil
	}

	candidates, err := parseCandidates(text, t.LinkedIn)
	if err != nil {
		log.Warn("extract: failed to parse model output", zap.Error(err))
		return nil
	}
	log.Debug("extract: candidates parsed", zap.Int("count", len(candidates)))
	return candidates
}

// response accepts any JSON type per field so a stray number or null
// does not sink the whole answer.
type response struct {
	Executives []map[string]any `json:"executives"`
}

func parseCandidates(text string, withLinkedIn bool) ([]Candidate, error) {
	var resp response
	if err := json.Unmarshal([]byte(cleanJSON(text)), &resp); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(resp.Executives))
	for _, e := range resp.Executives {
		c := Candidate{
			Name:  stringField(e, "name"),
			Title: stringField(e, "title"),
		}
		if withLinkedIn {
			c.LinkedIn = stringField(e, "linkedin")
		}
		out = append(out, c)
	}
	return out, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// cleanJSON pulls a JSON object out of text that may carry markdown fences
// or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
