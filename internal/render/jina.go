package render

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jpeetla/executive-web-scraper/internal/normalize"
	"github.com/jpeetla/executive-web-scraper/pkg/jina"
)

// JinaRenderer renders pages through the Jina reader service.
type JinaRenderer struct {
	client  jina.Client
	timeout time.Duration
}

// NewJinaRenderer creates a JinaRenderer. A zero timeout means 30s.
func NewJinaRenderer(client jina.Client, timeout time.Duration) *JinaRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JinaRenderer{client: client, timeout: timeout}
}

// Name implements Renderer.
func (r *JinaRenderer) Name() string { return "jina" }

// Render implements Renderer.
func (r *JinaRenderer) Render(ctx context.Context, url string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.Read(ctx, url)
	if err != nil {
		zap.L().Warn("render: jina read failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	// The reader may hand back HTML when a site blocks text extraction.
	return strings.TrimSpace(normalize.ExtractText(resp.Data.Content))
}
