package extract

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/jpeetla/executive-web-scraper/internal/resilience"
	"github.com/jpeetla/executive-web-scraper/pkg/anthropic"
	"github.com/jpeetla/executive-web-scraper/pkg/gemini"
)

// Prompt is one completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	// Schema constrains structured output on backends that support it.
	Schema *genai.Schema
}

// Completer sends a prompt to a language model and returns the raw text.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// AnthropicCompleter completes prompts with the Messages API.
type AnthropicCompleter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicCompleter creates an AnthropicCompleter.
func NewAnthropicCompleter(client anthropic.Client, model string) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, model: model}
}

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	temp := p.Temperature
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   int64(p.MaxTokens),
		System:      p.System,
		Temperature: &temp,
		Messages:    []anthropic.Message{{Role: "user", Content: p.User}},
	})
	if err != nil {
		return "", eris.Wrap(err, "extract: anthropic completion")
	}
	resp.Usage.LogCost(c.model, "extract")
	return resp.Text(), nil
}

// GeminiCompleter completes prompts with the Gemini API, retrying rate
// limits and server errors.
type GeminiCompleter struct {
	client gemini.Client
	model  string
	retry  resilience.RetryConfig
}

// NewGeminiCompleter creates a GeminiCompleter.
func NewGeminiCompleter(client gemini.Client, model string) *GeminiCompleter {
	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = gemini.Retryable
	retry.OnRetry = resilience.RetryLogger("gemini", "generate")
	return &GeminiCompleter{client: client, model: model, retry: retry}
}

// WithClock replaces the clock used for retry sleeps.
func (c *GeminiCompleter) WithClock(clk resilience.Clock) *GeminiCompleter {
	c.retry.Clock = clk
	return c
}

// Complete implements Completer.
func (c *GeminiCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	temp := float32(p.Temperature)
	req := gemini.GenerateRequest{
		Model:           c.model,
		System:          p.System,
		Prompt:          p.User,
		Temperature:     &temp,
		MaxOutputTokens: int32(p.MaxTokens),
		Schema:          p.Schema,
	}

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*gemini.GenerateResponse, error) {
		return c.client.Generate(ctx, req)
	})
	if err != nil {
		return "", eris.Wrap(err, "extract: gemini completion")
	}
	return strings.TrimSpace(resp.Text), nil
}
