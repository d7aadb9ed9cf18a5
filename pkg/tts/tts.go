// Package tts turns short text into audio through interchangeable providers.
//
// Cloud providers (Google Cloud Text-to-Speech, OpenAI) and a local
// espeak-ng fallback all implement Provider. Providers that can enumerate
// their voices also implement VoiceLister so callers can pick one by name
// or locale.
//
//	provider, _ := tts.NewGoogle(ctx, tts.WithAPIKey(os.Getenv("GOOGLE_API_KEY")))
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Curb ahead.", "en-US-Neural2-F")
//	// result.Audio holds WAV or PCM bytes described by result.Format
package tts

import (
	"context"
	"time"
)

// Provider synthesizes speech.
type Provider interface {
	// Synthesize converts text to a complete audio buffer. An empty voice
	// selects the provider default.
	Synthesize(ctx context.Context, text, voice string) (*AudioResult, error)

	// Name identifies the provider in logs and metrics.
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// VoiceLister is implemented by providers that can enumerate voices.
// The list may change between calls.
type VoiceLister interface {
	Voices(ctx context.Context) ([]Voice, error)
}

// Voice is one selectable voice.
type Voice struct {
	// ID is what Synthesize expects.
	ID string `json:"id"`

	// Name is the human-readable name. Often equal to ID.
	Name string `json:"name"`

	// Locale is a BCP 47 tag such as "en-US". Empty means multilingual.
	Locale string `json:"locale"`

	Gender   string `json:"gender,omitempty"`
	Provider string `json:"provider"`
}

// AudioResult is a complete synthesis result.
type AudioResult struct {
	Audio     []byte
	Format    AudioFormat
	Duration  time.Duration
	CharCount int
	LatencyMs int64
	Voice     string
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
	BitDepth   int
}

// Encoding names an audio container or raw sample format.
type Encoding string

const (
	// Raw little-endian PCM16, mono.
	EncodingPCM16 Encoding = "pcm_16000"
	EncodingPCM22 Encoding = "pcm_22050"
	EncodingPCM24 Encoding = "pcm_24000"
	EncodingPCM44 Encoding = "pcm_44100"

	// Containers.
	EncodingWAV Encoding = "wav"
	EncodingMP3 Encoding = "mp3_44100_128"
)

// IsPCM reports whether e is headerless PCM16.
func (e Encoding) IsPCM() bool {
	switch e {
	case EncodingPCM16, EncodingPCM22, EncodingPCM24, EncodingPCM44:
		return true
	}
	return false
}

// SampleRateFromEncoding extracts the sample rate from an encoding type.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22:
		return 22050
	case EncodingPCM24:
		return 24000
	case EncodingPCM44, EncodingMP3:
		return 44100
	default:
		return 24000
	}
}

// PCMDuration estimates playback time for n bytes of mono PCM16.
func PCMDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 || n <= 0 {
		return 0
	}
	samples := n / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
