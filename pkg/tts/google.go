package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

const providerGoogle = "google"

// Google implements Provider and VoiceLister with Cloud Text-to-Speech.
// Audio comes back as LINEAR16 with a WAV header.
type Google struct {
	config  *Config
	service *texttospeech.Service
	logger  *slog.Logger
}

// NewGoogle creates a Cloud Text-to-Speech provider. With an API key the
// key is used directly; otherwise Application Default Credentials are
// looked up.
func NewGoogle(ctx context.Context, opts ...Option) (*Google, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	var clientOpts []option.ClientOption
	switch {
	case cfg.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	default:
		ts, err := defaultTokenSource(ctx)
		if err != nil {
			return nil, WrapError(providerGoogle, err)
		}
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.BaseURL))
	}

	svc, err := texttospeech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("create service: %w", err))
	}

	return &Google{
		config:  cfg,
		service: svc,
		logger:  cfg.Logger.With("component", "tts.google"),
	}, nil
}

func defaultTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	creds, err := google.FindDefaultCredentials(ctx, texttospeech.CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	return creds.TokenSource, nil
}

// Synthesize converts text to WAV audio.
func (g *Google) Synthesize(ctx context.Context, text, voice string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerGoogle, ErrEmptyText)
	}
	if voice == "" {
		voice = g.config.Voice
	}
	start := time.Now()

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: languageForVoice(voice, g.config.Locale),
			Name:         voice,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding:   "LINEAR16",
			SampleRateHertz: int64(g.config.SampleRate),
			SpeakingRate:    g.config.SpeakingRate,
		},
	}

	resp, err := g.service.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, g.wrapError(err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("decode audio: %w", err))
	}
	latency := time.Since(start).Milliseconds()

	g.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", voice,
	)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingWAV,
			SampleRate: g.config.SampleRate,
			Channels:   1,
			BitDepth:   16,
		},
		Duration:  PCMDuration(len(audio)-wavHeaderSize, g.config.SampleRate),
		CharCount: len(text),
		LatencyMs: latency,
		Voice:     voice,
	}, nil
}

// Voices lists voices for the configured locale's language, sorted by name.
func (g *Google) Voices(ctx context.Context) ([]Voice, error) {
	call := g.service.Voices.List().Context(ctx)
	if lang := baseLanguage(g.config.Locale); lang != "" {
		call = call.LanguageCode(lang)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, g.wrapError(err)
	}

	var out []Voice
	for _, v := range resp.Voices {
		locale := ""
		if len(v.LanguageCodes) > 0 {
			locale = v.LanguageCodes[0]
		}
		out = append(out, Voice{
			ID:       v.Name,
			Name:     v.Name,
			Locale:   locale,
			Gender:   strings.ToLower(v.SsmlGender),
			Provider: providerGoogle,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Name returns "google".
func (g *Google) Name() string { return providerGoogle }

// Close is a no-op; the service has no persistent connections to release.
func (g *Google) Close() error { return nil }

func (g *Google) wrapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{
			StatusCode: gerr.Code,
			Message:    gerr.Message,
			Provider:   providerGoogle,
		}
	}
	return WrapError(providerGoogle, err)
}

// wavHeaderSize is the canonical RIFF header length Google prepends.
const wavHeaderSize = 44

// languageForVoice derives the language code Google requires from a voice
// name like "en-GB-Neural2-A", falling back to locale.
func languageForVoice(voice, locale string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) == 3 && len(parts[0]) >= 2 && len(parts[0]) <= 3 {
		return parts[0] + "-" + parts[1]
	}
	if locale == "" {
		return "en-US"
	}
	return locale
}

func baseLanguage(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return lang
}

var (
	_ Provider    = (*Google)(nil)
	_ VoiceLister = (*Google)(nil)
)
