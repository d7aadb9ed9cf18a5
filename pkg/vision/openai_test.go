package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIKeyOnlyForDefaultEndpoint(t *testing.T) {
	_, err := NewOpenAI()
	assert.ErrorIs(t, err, ErrNoAPIKey)

	o, err := NewOpenAI(WithBaseURL("http://localhost:11434/v1"))
	require.NoError(t, err)
	assert.Equal(t, "openai", o.Name())
}

func TestOpenAIAnalyze(t *testing.T) {
	var (
		got  map[string]any
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"gpt-4o-mini-2024","choices":[{"message":{"role":"assistant","content":"  Stairs going down.  "}}]}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(WithAPIKey("sk"), WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	res, err := o.Analyze(context.Background(), testFrame())
	require.NoError(t, err)
	assert.Equal(t, "Stairs going down.", res.Text)
	assert.Equal(t, "gpt-4o-mini-2024", res.Model)
	assert.Equal(t, "Bearer sk", auth)

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])

	parts := msgs[1].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.True(t, strings.HasPrefix(image["url"].(string), "data:image/jpeg;base64,"))
	assert.Equal(t, "low", image["detail"])
}

func TestOpenAINoChoicesIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(WithBaseURL(srv.URL))
	require.NoError(t, err)

	res, err := o.Analyze(context.Background(), testFrame())
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestOpenAIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(WithAPIKey("sk"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = o.Analyze(context.Background(), testFrame())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "rate_limit_exceeded", apiErr.Code)
	assert.Equal(t, "openai", apiErr.Provider)
}

func TestOpenAIRejectsEmptyFrame(t *testing.T) {
	o, err := NewOpenAI(WithAPIKey("sk"))
	require.NoError(t, err)

	_, err = o.Analyze(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFrame)
}
