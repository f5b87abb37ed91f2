package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// disallowedRe matches anything outside letters, digits, whitespace and
	// basic punctuation.
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{N}_\s\-.,()]`)

	// markupRe matches styling and markup tokens that leak out of HTML.
	markupRe = regexp.MustCompile(`(?i)\b(?:class|id|style|div|span|width|height|margin|padding|color|font|text-align|href|src|alt|meta|css|html|doctype|javascript)\b`)

	spaceRe   = regexp.MustCompile(`[^\S\n]+`)
	lineTrim  = regexp.MustCompile(` ?\n ?`)
	newlineRe = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes unicode, strips characters outside the allow-set and
// leaked markup tokens, and collapses whitespace. Paragraph breaks survive
// as a single blank line.
func Clean(text string) string {
	text = norm.NFKC.String(text)
	text = disallowedRe.ReplaceAllString(text, " ")
	text = markupRe.ReplaceAllString(text, " ")
	return collapse(text)
}

func collapse(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRe.ReplaceAllString(text, " ")
	text = lineTrim.ReplaceAllString(text, "\n")
	text = newlineRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
