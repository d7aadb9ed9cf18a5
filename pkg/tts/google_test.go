package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGoogle(t *testing.T, h http.HandlerFunc) *Google {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	g, err := NewGoogle(context.Background(),
		WithHTTPClient(srv.Client()),
		WithBaseURL(srv.URL+"/"),
	)
	require.NoError(t, err)
	return g
}

func TestGoogleSynthesize(t *testing.T) {
	wav := make([]byte, wavHeaderSize+48000)
	var got map[string]any

	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text:synthesize", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString(wav),
		})
	})

	res, err := g.Synthesize(context.Background(), "Door on your right.", "en-GB-Neural2-A")
	require.NoError(t, err)
	assert.Len(t, res.Audio, len(wav))
	assert.Equal(t, EncodingWAV, res.Format.Encoding)
	assert.Equal(t, "en-GB-Neural2-A", res.Voice)

	voice := got["voice"].(map[string]any)
	assert.Equal(t, "en-GB", voice["languageCode"])
	assert.Equal(t, "en-GB-Neural2-A", voice["name"])
	audio := got["audioConfig"].(map[string]any)
	assert.Equal(t, "LINEAR16", audio["audioEncoding"])
}

func TestGoogleVoices(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voices", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("languageCode"))
		w.Write([]byte(`{"voices":[
			{"languageCodes":["en-US"],"name":"en-US-Neural2-F","ssmlGender":"FEMALE"},
			{"languageCodes":["en-GB"],"name":"en-GB-Neural2-A","ssmlGender":"FEMALE"}
		]}`))
	})

	voices, err := g.Voices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 2)
	assert.Equal(t, "en-GB-Neural2-A", voices[0].Name)
	assert.Equal(t, "en-GB", voices[0].Locale)
	assert.Equal(t, "female", voices[0].Gender)
	assert.Equal(t, "google", voices[0].Provider)
}

func TestGoogleAPIError(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API not enabled"}}`))
	})

	_, err := g.Synthesize(context.Background(), "hi", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.StatusCode)
	assert.Equal(t, "API not enabled", apiErr.Message)
}

func TestLanguageForVoice(t *testing.T) {
	assert.Equal(t, "en-GB", languageForVoice("en-GB-Neural2-A", "en-US"))
	assert.Equal(t, "cmn-CN", languageForVoice("cmn-CN-Wavenet-A", "en-US"))
	assert.Equal(t, "fr-FR", languageForVoice("", "fr-FR"))
	assert.Equal(t, "en-US", languageForVoice("", ""))
}
