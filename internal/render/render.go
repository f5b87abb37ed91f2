// Package render produces the visible text of pages that need a browser to
// show their content.
package render

import (
	"context"

	"go.uber.org/zap"
)

// Renderer returns the visible text of a rendered page, or "" on any failure.
type Renderer interface {
	Render(ctx context.Context, url string) string
	Name() string
}

// Chain tries renderers in order and returns the first non-empty text.
type Chain struct {
	renderers []Renderer
}

// NewChain creates a Chain. Renderers are tried in the given order.
func NewChain(renderers ...Renderer) *Chain {
	return &Chain{renderers: renderers}
}

// Name implements Renderer.
func (c *Chain) Name() string { return "chain" }

// Render implements Renderer.
func (c *Chain) Render(ctx context.Context, url string) string {
	for _, r := range c.renderers {
		if ctx.Err() != nil {
			return ""
		}
		if text := r.Render(ctx, url); text != "" {
			return text
		}
		zap.L().Debug("render: renderer returned nothing, trying next",
			zap.String("renderer", r.Name()),
			zap.String("url", url),
		)
	}
	return ""
}

// Nop never renders anything. It is used when rendering is disabled.
type Nop struct{}

// Name implements Renderer.
func (Nop) Name() string { return "nop" }

// Render implements Renderer.
func (Nop) Render(context.Context, string) string { return "" }
