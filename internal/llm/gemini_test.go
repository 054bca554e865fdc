package llm_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inclusive-matching-api/internal/domain"
	"inclusive-matching-api/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGeminiServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var captured string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		captured = string(raw)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func geminiConfig(baseURL string) llm.Config {
	return llm.Config{
		Provider:      llm.ProviderGemini,
		GeminiAPIKey:  "test-key",
		GeminiModel:   "gemini-test",
		GeminiBaseURL: baseURL,
		Temperature:   0.1,
		MaxTokens:     1200,
	}
}

func TestGeminiGatewayComplete(t *testing.T) {
	srv, captured := newGeminiServer(t, http.StatusOK, `{
	  "candidates": [{"content": {"role": "model", "parts": [{"text": "{\"results\":[]}"}]}}],
	  "usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15}
	}`)

	gw, err := llm.NewGateway(context.Background(), geminiConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)

	out, err := gw.Complete(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"results":[]}`, out)

	assert.Contains(t, *captured, "system prompt")
	assert.Contains(t, *captured, "user prompt")
	assert.Contains(t, *captured, "application/json")
}

func TestGeminiGatewayEmptyCandidates(t *testing.T) {
	srv, _ := newGeminiServer(t, http.StatusOK, `{"candidates": []}`)

	gw, err := llm.NewGateway(context.Background(), geminiConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)

	_, err = gw.Complete(context.Background(), "system", "user")
	assert.ErrorIs(t, err, domain.ErrLLMEmptyResponse)
}

func TestGeminiGatewayUpstreamError(t *testing.T) {
	srv, _ := newGeminiServer(t, http.StatusBadRequest,
		`{"error": {"code": 400, "message": "bad request", "status": "INVALID_ARGUMENT"}}`)

	gw, err := llm.NewGateway(context.Background(), geminiConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)

	_, err = gw.Complete(context.Background(), "system", "user")
	assert.ErrorIs(t, err, domain.ErrLLMUpstream)
}
