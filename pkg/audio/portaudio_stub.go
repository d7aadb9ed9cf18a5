//go:build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-lookout/pkg/tts"
)

// PortAudioPlayer is unavailable without the portaudio build tag.
type PortAudioPlayer struct{}

// NewPortAudioPlayer always fails; rebuild with -tags portaudio.
func NewPortAudioPlayer(logger *slog.Logger) (*PortAudioPlayer, error) {
	return nil, fmt.Errorf("%w: built without -tags portaudio", ErrUnavailable)
}

func (p *PortAudioPlayer) Play(ctx context.Context, audio *tts.AudioResult) error {
	return ErrUnavailable
}

func (p *PortAudioPlayer) Name() string { return "portaudio" }

func (p *PortAudioPlayer) Close() error { return nil }

var _ Player = (*PortAudioPlayer)(nil)
