// Package speech speaks utterances one at a time and reports their
// lifecycle as events.
//
// A new utterance always replaces the one playing (last write wins, no
// queue). Each utterance gets an ID; Start, End and Error events carry it
// so a consumer can ignore events that belong to an utterance it no longer
// cares about. Once an utterance is cancelled or replaced it emits nothing
// more.
package speech

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-lookout/pkg/audio"
	"github.com/teslashibe/go-lookout/pkg/tts"
)

// EventKind names a speaker event.
type EventKind string

const (
	EventStart         EventKind = "start"
	EventEnd           EventKind = "end"
	EventError         EventKind = "error"
	EventVoicesChanged EventKind = "voices_changed"
)

// Event reports utterance progress or a voice-list change.
type Event struct {
	Kind        EventKind
	UtteranceID string
	Text        string

	// Voice is the selected voice name for EventVoicesChanged and the
	// voice used for utterance events.
	Voice string

	// Err is set for EventError.
	Err error
}

// Config controls voice selection and event buffering.
type Config struct {
	// Preferences are voice names tried in order, case-insensitively.
	Preferences []string

	// Locale is the fallback locale when no preference matches.
	Locale string

	// EventBuffer is the capacity of the events channel.
	EventBuffer int
}

// DefaultConfig returns en-US with no name preferences.
func DefaultConfig() Config {
	return Config{Locale: "en-US", EventBuffer: 64}
}

type utterance struct {
	id     string
	text   string
	voice  string
	cancel context.CancelFunc
}

// Speaker synthesizes and plays utterances.
type Speaker struct {
	provider tts.Provider
	player   audio.Player
	cfg      Config
	logger   *slog.Logger
	events   chan Event
	quit     chan struct{}
	quitOnce sync.Once

	mu      sync.Mutex
	current *utterance
	voices  []tts.Voice
	voice   tts.Voice

	wg sync.WaitGroup
}

// New creates a speaker. Call RefreshVoices or WatchVoices to load voices;
// until then the provider default voice is used.
func New(provider tts.Provider, player audio.Player, cfg Config, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	return &Speaker{
		provider: provider,
		player:   player,
		cfg:      cfg,
		logger:   logger.With("component", "speech"),
		events:   make(chan Event, cfg.EventBuffer),
		quit:     make(chan struct{}),
	}
}

// Events returns the event stream. It is never closed. End and Error
// events wait for room in the buffer; Start and voice changes are dropped
// when the consumer falls behind.
func (s *Speaker) Events() <-chan Event {
	return s.events
}

// Speak cancels whatever is playing and starts text. It returns at once
// with the new utterance ID.
func (s *Speaker) Speak(text string) string {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.current != nil {
		s.current.cancel()
	}
	u := &utterance{
		id:     uuid.NewString(),
		text:   text,
		voice:  s.voice.ID,
		cancel: cancel,
	}
	s.current = u
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, u)
	return u.id
}

// Cancel stops the current utterance. It is a no-op when nothing plays.
func (s *Speaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.current.cancel()
	s.logger.Debug("utterance cancelled", "id", s.current.id)
	s.current = nil
}

// Current returns the ID of the utterance in progress, or "".
func (s *Speaker) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.id
}

func (s *Speaker) run(ctx context.Context, u *utterance) {
	defer s.wg.Done()
	defer u.cancel()

	res, err := s.provider.Synthesize(ctx, u.text, u.voice)
	if err != nil {
		s.finish(ctx, u, Event{Kind: EventError, Err: err})
		return
	}

	s.emit(ctx, u, Event{Kind: EventStart})

	start := time.Now()
	if err := s.player.Play(ctx, res); err != nil {
		s.finish(ctx, u, Event{Kind: EventError, Err: err})
		return
	}

	s.logger.Debug("utterance finished",
		"id", u.id,
		"chars", len(u.text),
		"played_ms", time.Since(start).Milliseconds(),
	)
	s.finish(ctx, u, Event{Kind: EventEnd})
}

// emit publishes ev if u is still current and not cancelled.
func (s *Speaker) emit(ctx context.Context, u *utterance, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stamp(ctx, u, &ev) {
		s.send(ev)
	}
}

// finish clears u and delivers its terminal event. The send happens
// outside s.mu so a consumer calling Speak is never blocked by it.
func (s *Speaker) finish(ctx context.Context, u *utterance, ev Event) {
	s.mu.Lock()
	ok := s.stamp(ctx, u, &ev)
	if ok {
		s.current = nil
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	select {
	case s.events <- ev:
	case <-s.quit:
		s.logger.Debug("speaker closed before terminal event was read", "kind", ev.Kind, "id", ev.UtteranceID)
	}
}

// stamp fills in utterance fields if u is still current. Caller holds s.mu.
func (s *Speaker) stamp(ctx context.Context, u *utterance, ev *Event) bool {
	if s.current != u || ctx.Err() != nil {
		return false
	}
	ev.UtteranceID = u.id
	ev.Text = u.text
	ev.Voice = u.voice
	if ev.Kind == EventError {
		s.logger.Warn("utterance failed", "id", u.id, "error", ev.Err)
	}
	return true
}

// send never blocks. Caller holds s.mu.
func (s *Speaker) send(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("speech event dropped, consumer too slow", "kind", ev.Kind, "id", ev.UtteranceID)
	}
}

// Close cancels the current utterance and waits for workers to exit.
func (s *Speaker) Close() error {
	s.Cancel()
	s.quitOnce.Do(func() { close(s.quit) })
	s.wg.Wait()
	return nil
}
