package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	html := `<!DOCTYPE html><html><head><title>Acme</title><style>.x{color:red}</style></head>
<body>
<nav><a href="/">Home</a></nav>
<script>var tracking = 1;</script>
<h1>Our Team</h1>
<div><p>Jane Doe</p><p>CEO</p></div>
<ul><li>John Roe, CTO</li><li>Ann Lee, COO</li></ul>
<table><tr><td>Sam</td><td>CFO</td></tr></table>
</body></html>`

	got := Clean(ExtractText(html))

	assert.Contains(t, got, "Our Team")
	assert.Contains(t, got, "Jane Doe\n\nCEO")
	assert.Contains(t, got, "John Roe, CTO\nAnn Lee, COO")
	assert.Contains(t, got, "Sam CFO")
	assert.NotContains(t, got, "tracking")
	assert.NotContains(t, got, "red")
	assert.NotContains(t, got, "Acme")
}

func TestExtractText_PlainText(t *testing.T) {
	assert.Equal(t, "Jane Doe, CEO", ExtractText("Jane Doe, CEO"))
}

func TestNormalizeHTML_EmptyBody(t *testing.T) {
	n := New(Options{})
	assert.Empty(t, n.NormalizeHTML(`<html><body><script>render()</script></body></html>`))
}
