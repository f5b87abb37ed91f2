package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jpeetla/executive-web-scraper/pkg/anthropic"
	"github.com/jpeetla/executive-web-scraper/pkg/gemini"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func TestExtract_Webpage(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, mock.MatchedBy(func(p Prompt) bool {
		return p.MaxTokens == 1000 && p.Temperature == 0 &&
			strings.Contains(p.User, "Jane Doe, Chief Executive Officer") &&
			strings.Contains(p.User, "Chief People Officer")
	})).Return(`{"executives":[{"name":"Jane Doe","title":"CEO"},{"name":"John Roe"}]}`, nil)

	o := NewOracle(c, Options{})
	got := o.Extract(context.Background(), TemplateWebpage, "Jane Doe, Chief Executive Officer")

	assert.Equal(t, []Candidate{
		{Name: "Jane Doe", Title: "CEO"},
		{Name: "John Roe", Title: ""},
	}, got)
	c.AssertExpectations(t)
}

func TestExtract_RosterKeepsLinkedIn(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, mock.Anything).
		Return("```json\n{\"executives\":[{\"name\":\"Jane Doe\",\"title\":\"CEO\",\"linkedin\":\"https://linkedin.com/in/janedoe\"}]}\n```", nil)

	got := NewOracle(c, Options{}).Extract(context.Background(), TemplateRoster, "roster text")
	require.Len(t, got, 1)
	assert.Equal(t, "https://linkedin.com/in/janedoe", got[0].LinkedIn)
}

func TestExtract_WebpageDropsLinkedIn(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, mock.Anything).
		Return(`{"executives":[{"name":"Jane Doe","title":"CEO","linkedin":"https://linkedin.com/in/x"}]}`, nil)

	got := NewOracle(c, Options{}).Extract(context.Background(), TemplateWebpage, "text")
	require.Len(t, got, 1)
	assert.Empty(t, got[0].LinkedIn)
}

func TestExtract_FailuresYieldNothing(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
	}{
		{"completion error", "", errors.New("rate limited")},
		{"not json", "I could not find anyone.", nil},
		{"wrong types", `{"executives": "none"}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mockCompleter{}
			c.On("Complete", mock.Anything, mock.Anything).Return(tt.text, tt.err)
			assert.Empty(t, NewOracle(c, Options{}).Extract(context.Background(), TemplateWebpage, "text"))
		})
	}
}

func TestExtract_NonStringFieldsDefault(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, mock.Anything).
		Return(`{"executives":[{"name":"Jane Doe","title":null},{"name":42,"title":"CTO"}]}`, nil)

	got := NewOracle(c, Options{}).Extract(context.Background(), TemplateWebpage, "text")
	assert.Equal(t, []Candidate{{Name: "Jane Doe"}, {Title: "CTO"}}, got)
}

func TestExtract_SkipsCallWhenNothingToDo(t *testing.T) {
	c := &mockCompleter{}
	o := NewOracle(c, Options{})

	assert.Empty(t, o.Extract(context.Background(), TemplateWebpage, "   "))
	assert.Empty(t, o.Extract(context.Background(), "resume", "text"))
	assert.Empty(t, NewOracle(nil, Options{}).Extract(context.Background(), TemplateWebpage, "text"))
	c.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestExtract_AppliesTimeout(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 2*time.Second
	}), mock.Anything).Return(`{"executives":[]}`, nil)

	o := NewOracle(c, Options{Timeout: 2 * time.Second})
	assert.Empty(t, o.Extract(context.Background(), TemplateWebpage, "text"))
	c.AssertExpectations(t)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`Here you go: {"a":{"b":2}} Thanks!`, `{"a":{"b":2}}`},
		{"no json", "no json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanJSON(tt.in))
	}
}

func TestTemplateSchema(t *testing.T) {
	web, ok := LookupTemplate(TemplateWebpage)
	require.True(t, ok)
	items := web.schema().Properties["executives"].Items
	assert.NotContains(t, items.Properties, "linkedin")

	roster, ok := LookupTemplate(TemplateRoster)
	require.True(t, ok)
	items = roster.schema().Properties["executives"].Items
	assert.Contains(t, items.Properties, "linkedin")
	assert.Equal(t, genai.TypeArray, roster.schema().Properties["executives"].Type)
}

type mockAnthropic struct {
	mock.Mock
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func TestAnthropicCompleter(t *testing.T) {
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" && req.MaxTokens == 1000 &&
			req.Temperature != nil && *req.Temperature == 0 &&
			req.System == "sys" && len(req.Messages) == 1 && req.Messages[0].Content == "user"
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: `{"executives":[]}`}},
	}, nil)

	c := NewAnthropicCompleter(client, "claude-haiku-4-5-20251001")
	got, err := c.Complete(context.Background(), Prompt{System: "sys", User: "user", MaxTokens: 1000})
	require.NoError(t, err)
	assert.Equal(t, `{"executives":[]}`, got)
	client.AssertExpectations(t)
}

func TestAnthropicCompleter_Error(t *testing.T) {
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	_, err := NewAnthropicCompleter(client, "m").Complete(context.Background(), Prompt{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract: anthropic completion")
}

type fakeGemini struct {
	errs  []error
	calls int
	last  gemini.GenerateRequest
}

func (f *fakeGemini) Generate(_ context.Context, req gemini.GenerateRequest) (*gemini.GenerateResponse, error) {
	f.last = req
	f.calls++
	if len(f.errs) >= f.calls {
		return nil, f.errs[f.calls-1]
	}
	return &gemini.GenerateResponse{Text: "  {\"executives\":[]}\n"}, nil
}

type noSleep struct{ sleeps int }

func (n *noSleep) Sleep(context.Context, time.Duration) error {
	n.sleeps++
	return nil
}

func TestGeminiCompleter_RetriesServerErrors(t *testing.T) {
	client := &fakeGemini{errs: []error{genai.APIError{Code: 503}}}
	clk := &noSleep{}

	c := NewGeminiCompleter(client, "gemini-2.5-flash").WithClock(clk)
	got, err := c.Complete(context.Background(), Prompt{User: "u", MaxTokens: 1000, Schema: &genai.Schema{}})

	require.NoError(t, err)
	assert.Equal(t, `{"executives":[]}`, got)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 1, clk.sleeps)
	assert.Equal(t, int32(1000), client.last.MaxOutputTokens)
	assert.NotNil(t, client.last.Schema)
}

func TestGeminiCompleter_DoesNotRetryClientErrors(t *testing.T) {
	client := &fakeGemini{errs: []error{genai.APIError{Code: 400}}}

	_, err := NewGeminiCompleter(client, "m").WithClock(&noSleep{}).Complete(context.Background(), Prompt{})
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
}
