package tts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const voicesOutput = `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-gb           --/M      English_(Great_Britain) gmw/en               (en 2)
 2  en-us           --/F      English_(America)  gmw/en-US            (en 3)
`

func TestParseEspeakVoices(t *testing.T) {
	voices, err := parseEspeakVoices([]byte(voicesOutput))
	require.NoError(t, err)
	require.Len(t, voices, 3)

	assert.Equal(t, "af", voices[0].ID)
	assert.Equal(t, "af", voices[0].Locale)
	assert.Equal(t, "male", voices[0].Gender)

	assert.Equal(t, "en-gb", voices[1].ID)
	assert.Equal(t, "en-GB", voices[1].Locale)
	assert.Equal(t, "English (Great Britain)", voices[1].Name)

	assert.Equal(t, "female", voices[2].Gender)
}

func TestParseEspeakVoicesEmpty(t *testing.T) {
	_, err := parseEspeakVoices([]byte("Pty Language Age/Gender VoiceName File Other Languages\n"))
	assert.Error(t, err)
}

func TestEspeakSynthesize(t *testing.T) {
	var gotArgs []string
	cfg := DefaultConfig()
	cfg.Binary = "espeak-ng"
	e := newEspeak(cfg, func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return make([]byte, wavHeaderSize+44100), nil
	})

	res, err := e.Synthesize(context.Background(), "Steps down ahead.", "")
	require.NoError(t, err)
	assert.Equal(t, EncodingWAV, res.Format.Encoding)
	assert.Equal(t, "en-us", res.Voice)
	assert.Equal(t, []string{"--stdout", "-s", "192", "-v", "en-us", "--", "Steps down ahead."}, gotArgs)
}

func TestEspeakSynthesizeError(t *testing.T) {
	e := newEspeak(DefaultConfig(), func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})

	_, err := e.Synthesize(context.Background(), "hi", "xx")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "espeak", pe.Provider)
}

func TestEspeakVoices(t *testing.T) {
	e := newEspeak(DefaultConfig(), func(ctx context.Context, name string, args ...string) ([]byte, error) {
		assert.Equal(t, []string{"--voices"}, args)
		return []byte(voicesOutput), nil
	})

	voices, err := e.Voices(context.Background())
	require.NoError(t, err)
	assert.Len(t, voices, 3)
}
