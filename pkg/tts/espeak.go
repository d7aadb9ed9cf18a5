package tts

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const providerEspeak = "espeak"

// commandFunc runs a program and returns its stdout.
type commandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Espeak implements Provider and VoiceLister with a local espeak-ng
// binary. It needs no network and serves as the last fallback.
type Espeak struct {
	config *Config
	run    commandFunc
	logger *slog.Logger
}

// NewEspeak creates a local synthesizer. It fails with ErrNoBinary when
// the executable cannot be found.
func NewEspeak(opts ...Option) (*Espeak, error) {
	cfg := DefaultConfig()
	cfg.Binary = "espeak-ng"
	cfg.Apply(opts...)

	if _, err := exec.LookPath(cfg.Binary); err != nil {
		return nil, WrapError(providerEspeak, fmt.Errorf("%w: %s", ErrNoBinary, cfg.Binary))
	}

	return newEspeak(cfg, runCommand), nil
}

func newEspeak(cfg *Config, run commandFunc) *Espeak {
	return &Espeak{
		config: cfg,
		run:    run,
		logger: cfg.Logger.With("component", "tts.espeak"),
	}
}

// wordsPerMinute maps SpeakingRate onto espeak's -s flag (175 wpm is normal).
func (e *Espeak) wordsPerMinute() int {
	rate := e.config.SpeakingRate
	if rate <= 0 {
		rate = 1
	}
	return int(175 * rate)
}

// Synthesize renders WAV audio via --stdout.
func (e *Espeak) Synthesize(ctx context.Context, text, voice string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerEspeak, ErrEmptyText)
	}
	if voice == "" {
		voice = e.config.Voice
	}
	if voice == "" {
		voice = strings.ToLower(e.config.Locale)
	}
	start := time.Now()

	args := []string{"--stdout", "-s", strconv.Itoa(e.wordsPerMinute())}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args, "--", text)

	audio, err := e.run(ctx, e.config.Binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, WrapError(providerEspeak, err)
	}

	const rate = 22050
	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingWAV,
			SampleRate: rate,
			Channels:   1,
			BitDepth:   16,
		},
		Duration:  PCMDuration(len(audio)-wavHeaderSize, rate),
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
		Voice:     voice,
	}, nil
}

// Voices parses `espeak-ng --voices`.
func (e *Espeak) Voices(ctx context.Context) ([]Voice, error) {
	out, err := e.run(ctx, e.config.Binary, "--voices")
	if err != nil {
		return nil, WrapError(providerEspeak, err)
	}
	voices, err := parseEspeakVoices(out)
	if err != nil {
		return nil, WrapError(providerEspeak, err)
	}
	return voices, nil
}

// parseEspeakVoices reads the table printed by --voices:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-gb           --/M      English_(Great_Britain) gmw/en       (en 2)
func parseEspeakVoices(out []byte) ([]Voice, error) {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for sc.Scan() {
		line := sc.Text()
		if header {
			header = false
			if strings.HasPrefix(strings.TrimSpace(line), "Pty") {
				continue
			}
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		gender := ""
		if _, g, ok := strings.Cut(fields[2], "/"); ok {
			switch g {
			case "M":
				gender = "male"
			case "F":
				gender = "female"
			}
		}
		voices = append(voices, Voice{
			ID:       fields[1],
			Name:     strings.ReplaceAll(fields[3], "_", " "),
			Locale:   normalizeLocale(fields[1]),
			Gender:   gender,
			Provider: providerEspeak,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(voices) == 0 {
		return nil, errors.New("no voices listed")
	}
	return voices, nil
}

// normalizeLocale turns "en-gb" into "en-GB".
func normalizeLocale(tag string) string {
	lang, region, ok := strings.Cut(tag, "-")
	if !ok {
		return strings.ToLower(tag)
	}
	if len(region) == 2 {
		region = strings.ToUpper(region)
	}
	return strings.ToLower(lang) + "-" + region
}

// Name returns "espeak".
func (e *Espeak) Name() string { return providerEspeak }

// Close is a no-op.
func (e *Espeak) Close() error { return nil }

var (
	_ Provider    = (*Espeak)(nil)
	_ VoiceLister = (*Espeak)(nil)
)
