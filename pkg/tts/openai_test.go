package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestOpenAISynthesize(t *testing.T) {
	var got openAISpeechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write(make([]byte, 4800))
	}))
	defer srv.Close()

	p, err := NewOpenAI(WithAPIKey("sk"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	res, err := p.Synthesize(context.Background(), "Stop. Curb ahead.", "")
	require.NoError(t, err)
	assert.Len(t, res.Audio, 4800)
	assert.Equal(t, EncodingPCM24, res.Format.Encoding)
	assert.Equal(t, 100*time.Millisecond, res.Duration)

	assert.Equal(t, "pcm", got.ResponseFormat)
	assert.Equal(t, VoiceNova, got.Voice)
	assert.Equal(t, "Stop. Curb ahead.", got.Input)
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte{0, 0})
	}))
	defer srv.Close()

	p, err := NewOpenAI(WithAPIKey("sk"), WithBaseURL(srv.URL), WithRetry(2, time.Millisecond))
	require.NoError(t, err)

	_, err = p.Synthesize(context.Background(), "hi", "alloy")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestOpenAIDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad voice","code":"invalid_voice"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAI(WithAPIKey("sk"), WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	_, err = p.Synthesize(context.Background(), "hi", "nobody")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_voice", apiErr.Code)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenAIEmptyText(t *testing.T) {
	p, err := NewOpenAI(WithAPIKey("sk"))
	require.NoError(t, err)
	_, err = p.Synthesize(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestOpenAIVoices(t *testing.T) {
	p, err := NewOpenAI(WithAPIKey("sk"))
	require.NoError(t, err)
	voices, err := p.Voices(context.Background())
	require.NoError(t, err)
	assert.Len(t, voices, 6)
	assert.Equal(t, "openai", voices[0].Provider)
}
