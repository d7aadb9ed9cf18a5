package audio

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-lookout/pkg/tts"
)

// Mock is a Player for tests. By default Play sleeps for the result's
// Duration (or until ctx ends).
type Mock struct {
	// PlayFunc replaces the default behaviour when set.
	PlayFunc func(ctx context.Context, audio *tts.AudioResult) error

	mu     sync.Mutex
	played []*tts.AudioResult
}

// NewMock creates a mock player.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Play(ctx context.Context, audio *tts.AudioResult) error {
	m.mu.Lock()
	m.played = append(m.played, audio)
	fn := m.PlayFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, audio)
	}
	if audio == nil || audio.Duration <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(audio.Duration)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Played returns every result passed to Play.
func (m *Mock) Played() []*tts.AudioResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*tts.AudioResult, len(m.played))
	copy(out, m.played)
	return out
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Close() error { return nil }

var _ Player = (*Mock)(nil)
