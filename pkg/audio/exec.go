package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/teslashibe/go-lookout/pkg/tts"
)

// ExecConfig names the external programs ExecPlayer uses.
type ExecConfig struct {
	// APlay plays WAV and raw PCM (alsa-utils).
	APlay string
	// FFPlay plays everything else (ffmpeg).
	FFPlay string
	// Device is passed to aplay -D when set.
	Device string
}

// DefaultExecConfig uses aplay and ffplay from PATH.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{APlay: "aplay", FFPlay: "ffplay"}
}

// waitDelay bounds how long Play waits for pipes after the process is killed.
const waitDelay = 500 * time.Millisecond

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// ExecPlayer pipes audio into aplay or ffplay.
type ExecPlayer struct {
	cfg     ExecConfig
	logger  *slog.Logger
	command commandFunc
}

// NewExecPlayer creates a player. It fails when neither program is on PATH.
func NewExecPlayer(cfg ExecConfig, logger *slog.Logger) (*ExecPlayer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	_, aErr := exec.LookPath(cfg.APlay)
	_, fErr := exec.LookPath(cfg.FFPlay)
	if aErr != nil && fErr != nil {
		return nil, fmt.Errorf("%w: neither %s nor %s found", ErrUnavailable, cfg.APlay, cfg.FFPlay)
	}
	return &ExecPlayer{
		cfg:     cfg,
		logger:  logger.With("component", "audio.exec"),
		command: exec.CommandContext,
	}, nil
}

// args picks the program and flags for a format.
func (p *ExecPlayer) args(f tts.AudioFormat) (string, []string, error) {
	switch {
	case f.Encoding.IsPCM():
		rate := f.SampleRate
		if rate == 0 {
			rate = tts.SampleRateFromEncoding(f.Encoding)
		}
		channels := f.Channels
		if channels == 0 {
			channels = 1
		}
		args := []string{"-q", "-t", "raw", "-f", "S16_LE", "-r", strconv.Itoa(rate), "-c", strconv.Itoa(channels)}
		return p.cfg.APlay, append(p.withDevice(args), "-"), nil
	case f.Encoding == tts.EncodingWAV:
		return p.cfg.APlay, append(p.withDevice([]string{"-q", "-t", "wav"}), "-"), nil
	case f.Encoding == tts.EncodingMP3:
		return p.cfg.FFPlay, []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-i", "-"}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Encoding)
	}
}

func (p *ExecPlayer) withDevice(args []string) []string {
	if p.cfg.Device != "" {
		return append(args, "-D", p.cfg.Device)
	}
	return args
}

// Play runs the player process with the audio on stdin. Cancelling ctx
// kills the process.
func (p *ExecPlayer) Play(ctx context.Context, audio *tts.AudioResult) error {
	if audio == nil || len(audio.Audio) == 0 {
		return nil
	}
	name, args, err := p.args(audio.Format)
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := p.command(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(audio.Audio)
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	p.logger.Debug("playing", "program", name, "bytes", len(audio.Audio), "encoding", audio.Format.Encoding)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("audio: %s: %w: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// Name returns "exec".
func (p *ExecPlayer) Name() string { return "exec" }

// Close is a no-op; each Play owns its process.
func (p *ExecPlayer) Close() error { return nil }

var _ Player = (*ExecPlayer)(nil)
