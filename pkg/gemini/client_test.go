package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{APIKey: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key not configured")
}

func TestGenerate_StructuredJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))

		gen, ok := body["generationConfig"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "application/json", gen["responseMimeType"])
		assert.EqualValues(t, 1000, gen["maxOutputTokens"])
		assert.Contains(t, body, "systemInstruction")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"executives\": []}"}]}}],
			"usageMetadata": {"promptTokenCount": 42, "candidatesTokenCount": 7}
		}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	temp := float32(0)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:           "gemini-2.5-flash",
		System:          "Return JSON only.",
		Prompt:          "Find the executives.",
		Temperature:     &temp,
		MaxOutputTokens: 1000,
		Schema:          &genai.Schema{Type: genai.TypeObject},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"executives": []}`, resp.Text)
	assert.Equal(t, int32(42), resp.InputTokens)
	assert.Equal(t, int32(7), resp.OutputTokens)
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "bad request", "status": "INVALID_ARGUMENT"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), GenerateRequest{Model: "gemini-2.5-flash", Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini: generate content")
	assert.False(t, Retryable(err))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return false }

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", genai.APIError{Code: 429}, true},
		{"server error", genai.APIError{Code: 503}, true},
		{"unauthorized", genai.APIError{Code: 401}, false},
		{"wrapped server error", eris.Wrap(genai.APIError{Code: 500}, "gemini: generate content"), true},
		{"net timeout", timeoutErr{}, true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}
