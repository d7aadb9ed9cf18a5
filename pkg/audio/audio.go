// Package audio plays synthesized speech on the local output device.
package audio

import (
	"context"
	"errors"

	"github.com/teslashibe/go-lookout/pkg/tts"
)

var (
	// ErrUnsupportedFormat is returned for encodings a player cannot handle.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")

	// ErrUnavailable is returned when a backend was not compiled in or
	// its binary is missing.
	ErrUnavailable = errors.New("audio: backend unavailable")
)

// Player plays one synthesis result at a time.
type Player interface {
	// Play blocks until playback finishes or ctx is cancelled. On
	// cancellation the sound stops and ctx.Err() is returned.
	Play(ctx context.Context, audio *tts.AudioResult) error

	// Name identifies the backend.
	Name() string

	// Close releases the device.
	Close() error
}
