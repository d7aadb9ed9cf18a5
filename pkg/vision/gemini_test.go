package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-lookout/pkg/frame"
)

func testFrame() *frame.Frame {
	return &frame.Frame{
		Data:       []byte{0xff, 0xd8, 0xff, 0xd9},
		MIMEType:   frame.MIMETypeJPEG,
		Width:      4,
		Height:     3,
		CapturedAt: time.Now(),
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "gemini", pe.Provider)
}

func TestGeminiAnalyze(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Stop. "},{"text":"Curb ahead."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(WithAPIKey("k"), WithBaseURL(srv.URL), WithModel("test-model"))
	require.NoError(t, err)

	res, err := g.Analyze(context.Background(), testFrame())
	require.NoError(t, err)
	assert.Equal(t, "Stop. Curb ahead.", res.Text)
	assert.Equal(t, "test-model", res.Model)
	assert.False(t, res.Empty())

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, DefaultPrompt, got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 1)
	require.NotNil(t, got.Contents[0].Parts[0].InlineData)
	assert.Equal(t, "image/jpeg", got.Contents[0].Parts[0].InlineData.MimeType)
	assert.Equal(t, testFrame().Base64(), got.Contents[0].Parts[0].InlineData.Data)
	assert.Equal(t, 0.2, got.GenerationConfig.Temperature)
	assert.Equal(t, 60, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiMissingCandidatesIsEmpty(t *testing.T) {
	for _, body := range []string{`{}`, `{"candidates":[]}`, `{"candidates":[{"content":{"parts":[]}}]}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		g, err := NewGemini(WithAPIKey("k"), WithBaseURL(srv.URL))
		require.NoError(t, err)

		res, err := g.Analyze(context.Background(), testFrame())
		require.NoError(t, err, body)
		assert.True(t, res.Empty(), body)
		srv.Close()
	}
}

func TestGeminiAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	g, err := NewGemini(WithAPIKey("k"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = g.Analyze(context.Background(), testFrame())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.StatusCode)
	assert.Equal(t, "RESOURCE_EXHAUSTED", apiErr.Code)
	assert.True(t, apiErr.IsRetryable())
}

func TestGeminiTransportErrorOmitsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	g, err := NewGemini(WithAPIKey("SECRET-KEY-123"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = g.Analyze(context.Background(), testFrame())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", 199) + "é"
	got := truncate(s, 200)
	assert.Equal(t, strings.Repeat("a", 199), got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "short", truncate("short", 200))
}

func TestGeminiMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	g, err := NewGemini(WithAPIKey("k"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = g.Analyze(context.Background(), testFrame())
	assert.Error(t, err)
}

func TestGeminiNoFrame(t *testing.T) {
	g, err := NewGemini(WithAPIKey("k"))
	require.NoError(t, err)

	_, err = g.Analyze(context.Background(), &frame.Frame{})
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestGeminiContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g, err := NewGemini(WithAPIKey("k"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = g.Analyze(ctx, testFrame())
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestOpenAIAnalyzeBasic(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"gpt-test","choices":[{"message":{"content":"  Door on your left.  "}}]}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(WithAPIKey("sk"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	res, err := o.Analyze(context.Background(), testFrame())
	require.NoError(t, err)
	assert.Equal(t, "Door on your left.", res.Text)
	assert.Equal(t, "gpt-test", res.Model)

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	parts := msgs[1].(map[string]any)["content"].([]any)
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.True(t, strings.HasPrefix(img["url"].(string), "data:image/jpeg;base64,"))
}

func TestOpenAIKeyOptionalForLocal(t *testing.T) {
	_, err := NewOpenAI()
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewOpenAI(WithBaseURL("http://localhost:11434/v1"))
	assert.NoError(t, err)
}

func TestOpenAIErrorUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(WithAPIKey("sk"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = o.Analyze(context.Background(), testFrame())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())
	assert.False(t, apiErr.IsRetryable())
	assert.Equal(t, "invalid_api_key", apiErr.Code)
}
