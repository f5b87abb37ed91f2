package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces", "Jane   Doe\t\tCEO", "Jane Doe CEO"},
		{"keeps paragraphs", "Jane Doe\n\n\n\nJohn Roe", "Jane Doe\n\nJohn Roe"},
		{"strips symbols", "Jane Doe | CEO & Founder!", "Jane Doe CEO Founder"},
		{"keeps punctuation", "Doe, Jane (CEO). Co-founder", "Doe, Jane (CEO). Co-founder"},
		{"strips markup tokens", "div class style Jane span Doe", "Jane Doe"},
		{"keeps accented names", "José Müller, CTO", "José Müller, CTO"},
		{"nfkc", "ﬁnance", "finance"},
		{"trims", "  \n Jane \n ", "Jane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	in := "<div class='x'>Jane Doe — CEO</div>\n\n\n Our team: John | CTO"
	once := Clean(in)
	assert.Equal(t, once, Clean(once))
}

func TestNormalize_ShortTextEqualsClean(t *testing.T) {
	n := New(Options{TokenBudget: 100, CharsPerToken: 4})
	for _, in := range []string{
		"Jane Doe, CEO",
		"Meet our team!\n\nJane Doe is the CEO & co-founder.",
		"",
		strings.Repeat("x", 400),
	} {
		assert.Equal(t, Clean(in), n.Normalize(in))
	}
}

func TestNormalize_RespectsBudget(t *testing.T) {
	n := New(Options{TokenBudget: 50, CharsPerToken: 4})
	require.Equal(t, 200, n.Budget())

	inputs := []string{
		strings.Repeat("Our leadership team includes Jane Doe, CEO. ", 40),
		strings.Repeat("lorem ipsum dolor sit amet\n\n", 100),
		strings.Repeat("abcdefghij", 500),
		strings.Repeat("José Müller Geschäftsführer ", 100),
	}
	for _, in := range inputs {
		out := n.Normalize(in)
		assert.LessOrEqual(t, len(out), n.Budget())
		assert.NotEmpty(t, out)
	}
}

func TestNormalize_SelectsLeadershipSections(t *testing.T) {
	filler := strings.Repeat("Widgets shipped worldwide with fast delivery options available. ", 3)
	doc := strings.Join([]string{
		filler,
		"Leadership team: Jane Doe, CEO and Founder. John Roe, CTO.",
		filler,
		"Board of directors: Ann Lee, Chief Financial Officer.",
		filler,
	}, "\n\n")

	n := New(Options{TokenBudget: 60, CharsPerToken: 4})
	out := n.Normalize(doc)

	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "Ann Lee")
	assert.NotContains(t, out, "Widgets")
	assert.LessOrEqual(t, len(out), n.Budget())
}

func TestScore(t *testing.T) {
	n := New(Options{})

	assert.Equal(t, 0, n.Score("widgets and gadgets"))
	// ceo: +2 leadership, +3 title.
	assert.Equal(t, 5, n.Score("ceo"))
	// "position" is both a leadership keyword (+2) and a frequency word (+1).
	assert.Equal(t, 3, n.Score("position"))
	// Frequency bonus caps at 5.
	assert.Equal(t, 5, n.Score(strings.Repeat("job ", 20)))
	assert.Greater(t, n.Score("VP Engineering leads team"), n.Score("engineering leads"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))

	// Sentence boundary within the last 20% is used.
	text := "aaaaaaaaa. bbbbbbbbbbbbbbb"
	assert.Equal(t, "aaaaaaaaa.", Truncate(text, 11))

	// Boundary too early: hard cut.
	text = "a. bbbbbbbbbbbbbbbbbbbbbbbb"
	assert.Equal(t, "a. bbbbbbb", Truncate(text, 10))

	// Never splits a multi-byte rune.
	got := Truncate("ééééé", 5)
	assert.Equal(t, "éé", got)
}

func TestRemoveStopWords(t *testing.T) {
	assert.Equal(t, "VP Engineering", RemoveStopWords("VP of Engineering"))
	assert.Equal(t, "Jane Doe CEO\n\nJohn", RemoveStopWords("Jane Doe is the CEO\n\nand John"))
}

func TestChunk(t *testing.T) {
	parts := chunk(strings.Repeat("a", 25), 10)
	assert.Equal(t, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), "aaaaa"}, parts)

	for _, p := range chunk(strings.Repeat("é", 10), 5) {
		assert.True(t, len(p) <= 5)
	}
}
