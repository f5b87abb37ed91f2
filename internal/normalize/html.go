package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelectors end a paragraph in the extracted text.
const blockSelectors = "p, div, section, article, header, footer, aside, main, h1, h2, h3, h4, h5, h6, blockquote, table, ul, ol, dl"

// lineSelectors end a line but not a paragraph.
const lineSelectors = "li, tr, dt, dd, br"

// ExtractText returns the visible text of an HTML document with block
// elements separated by blank lines. Non-HTML input is returned unchanged.
func ExtractText(html string) string {
	if !looksLikeHTML(html) {
		return html
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("script, style, noscript, svg, iframe, template, head").Remove()
	doc.Find(lineSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n\n")
	})
	doc.Find("td, th").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Text()
	}
	return body.Text()
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(strings.TrimSpace(s))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<") ||
		strings.Contains(head, "<html") ||
		strings.Contains(head, "<body") ||
		strings.Contains(head, "<div")
}
