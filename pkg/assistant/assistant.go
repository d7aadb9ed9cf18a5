// Package assistant runs the capture, describe and speak loop.
//
// A single goroutine (Run) owns all session state. Commands, ticks,
// camera results, analysis results and speech events reach it over
// channels, so there is exactly one writer. Workers never touch state;
// they post results tagged with the session generation and the loop drops
// anything from an older session.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-lookout/internal/metrics"
	"github.com/teslashibe/go-lookout/pkg/camera"
	"github.com/teslashibe/go-lookout/pkg/speech"
	"github.com/teslashibe/go-lookout/pkg/tts"
	"github.com/teslashibe/go-lookout/pkg/vision"
)

// ErrNotRunning is returned by commands when Run is not active.
var ErrNotRunning = errors.New("assistant: loop not running")

// Speaker is the speech output the loop drives. *speech.Speaker
// implements it.
type Speaker interface {
	Speak(text string) string
	Cancel()
	Events() <-chan speech.Event
	Voice() tts.Voice
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdToggle
)

type command struct {
	kind  commandKind
	reply chan Status
}

type acquireResult struct {
	gen uint64
	err error
}

type analysisResult struct {
	gen      uint64
	text     string
	model    string
	err      error
	duration time.Duration
}

// Loop is the assistant state machine.
type Loop struct {
	cfg      *Config
	camera   camera.Source
	analyzer vision.Analyzer
	speaker  Speaker
	logger   *slog.Logger
	metrics  *metrics.Metrics

	commands chan command
	acquired chan acquireResult
	results  chan analysisResult
	done     chan struct{}
	running  chan struct{}
	runOnce  sync.Once

	snapMu   sync.RWMutex
	snapshot Status

	// Owned by the Run goroutine.
	status        Status
	gen           uint64
	sessionCtx    context.Context
	sessionCancel context.CancelFunc
	ticker        Ticker
	tickC         <-chan time.Time
	analyzing     bool
	utterance     string
}

// New creates a loop. Nothing happens until Run is started.
func New(cam camera.Source, analyzer vision.Analyzer, speaker Speaker, opts ...Option) *Loop {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	l := &Loop{
		cfg:      cfg,
		camera:   cam,
		analyzer: analyzer,
		speaker:  speaker,
		logger:   cfg.Logger.With("component", "assistant"),
		metrics:  cfg.Metrics,
		commands: make(chan command),
		acquired: make(chan acquireResult, 1),
		results:  make(chan analysisResult, 1),
		done:     make(chan struct{}),
		running:  make(chan struct{}),
		status:   DefaultStatus(),
	}
	l.snapshot = l.status
	return l
}

// Start begins a session. It is a no-op unless the loop is idle.
func (l *Loop) Start(ctx context.Context) (Status, error) {
	return l.send(ctx, cmdStart)
}

// Stop ends the session. It is a no-op when idle.
func (l *Loop) Stop(ctx context.Context) (Status, error) {
	return l.send(ctx, cmdStop)
}

// Toggle starts when idle and stops otherwise.
func (l *Loop) Toggle(ctx context.Context) (Status, error) {
	return l.send(ctx, cmdToggle)
}

func (l *Loop) send(ctx context.Context, kind commandKind) (Status, error) {
	cmd := command{kind: kind, reply: make(chan Status, 1)}

	select {
	case <-l.running:
	default:
		return l.Status(), ErrNotRunning
	}

	select {
	case l.commands <- cmd:
	case <-l.done:
		return l.Status(), ErrNotRunning
	case <-ctx.Done():
		return l.Status(), ctx.Err()
	}

	select {
	case s := <-cmd.reply:
		return s, nil
	case <-l.done:
		return l.Status(), ErrNotRunning
	case <-ctx.Done():
		return l.Status(), ctx.Err()
	}
}

// Status returns the latest published snapshot.
func (l *Loop) Status() Status {
	l.snapMu.RLock()
	defer l.snapMu.RUnlock()
	return l.snapshot
}

// Run processes events until ctx ends, then stops any session and
// releases the camera. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	started := false
	l.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("assistant: Run called twice")
	}

	close(l.running)
	defer close(l.done)

	l.logger.Info("assistant loop started", "interval", l.cfg.Interval)
	if v := l.speaker.Voice(); v.Name != "" {
		l.status.Voice = v.Name
		l.publish()
	}

	for {
		select {
		case <-ctx.Done():
			if l.status.State != StateIdle {
				l.stopSession()
			}
			l.logger.Info("assistant loop stopped")
			return nil

		case cmd := <-l.commands:
			l.handleCommand(ctx, cmd)

		case r := <-l.acquired:
			l.handleAcquired(r)

		case <-l.tickC:
			l.handleTick()

		case r := <-l.results:
			l.handleResult(r)

		case ev := <-l.speaker.Events():
			l.handleSpeech(ev)
		}
	}
}

func (l *Loop) handleCommand(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdStart:
		l.startSession(ctx)
	case cmdStop:
		l.stopSession()
	case cmdToggle:
		if l.status.State == StateIdle {
			l.startSession(ctx)
		} else {
			l.stopSession()
		}
	}
	cmd.reply <- l.status
}

func (l *Loop) startSession(ctx context.Context) {
	if l.status.State != StateIdle {
		return
	}

	l.gen++
	l.sessionCtx, l.sessionCancel = context.WithCancel(ctx)

	l.status.Active = true
	l.status.State = StateStarting
	l.status.Message = MessageStarting
	l.status.LastError = ""
	l.status.Description = ""
	l.status.SessionID = uuid.NewString()
	l.status.Cycles = 0

	l.logger.Info("session starting", "session", l.status.SessionID)
	l.metrics.SetActive(true)
	l.speak(StartingPhrase, kindAnnounce)
	l.publish()

	go l.acquire(l.sessionCtx, l.gen)
}

// stopSession returns to idle. Calling it while idle changes nothing.
func (l *Loop) stopSession() {
	if l.status.State == StateIdle {
		return
	}

	l.stopTicker()
	l.sessionCancel()
	l.gen++

	if err := l.camera.Release(); err != nil {
		l.logger.Warn("camera release failed", "error", err)
	}
	l.speaker.Cancel()
	l.utterance = ""
	l.analyzing = false

	l.logger.Info("session stopped", "session", l.status.SessionID, "cycles", l.status.Cycles)

	voice := l.status.Voice
	l.status = DefaultStatus()
	l.status.Voice = voice

	l.metrics.SetActive(false)
	l.publish()
}

func (l *Loop) acquire(ctx context.Context, gen uint64) {
	err := l.camera.Acquire(ctx)
	select {
	case l.acquired <- acquireResult{gen: gen, err: err}:
	case <-l.done:
	}
}

func (l *Loop) handleAcquired(r acquireResult) {
	if r.gen != l.gen || l.status.State != StateStarting {
		// The session that asked for the camera is gone.
		if r.err == nil && l.status.State == StateIdle {
			_ = l.camera.Release()
		}
		return
	}

	if r.err != nil {
		msg := camera.Describe(r.err)
		l.logger.Warn("camera acquisition failed", "error", r.err)

		l.stopTicker()
		l.sessionCancel()
		l.gen++
		_ = l.camera.Release()
		l.analyzing = false

		l.speak(CameraErrorPhrase, kindError)
		l.status.Active = false
		l.status.State = StateIdle
		l.status.Message = msg
		l.status.LastError = msg
		l.metrics.SetActive(false)
		l.publish()
		return
	}

	l.status.State = StateListening
	l.status.Message = MessageListening
	l.ticker = l.cfg.NewTicker(l.cfg.Interval)
	l.tickC = l.ticker.C()
	l.logger.Info("camera acquired, listening", "interval", l.cfg.Interval)
	l.publish()
}

func (l *Loop) stopTicker() {
	if l.ticker != nil {
		l.ticker.Stop()
		l.ticker = nil
	}
	l.tickC = nil
}

// handleTick admits a tick only when nothing else is going on.
func (l *Loop) handleTick() {
	if l.status.State != StateListening || l.analyzing || l.utterance != "" {
		l.metrics.TickSkipped()
		l.logger.Debug("tick skipped", "state", l.status.State, "analyzing", l.analyzing, "speaking", l.utterance != "")
		return
	}

	l.analyzing = true
	l.status.State = StateAnalyzing
	l.status.Message = MessageAnalyzing
	l.publish()

	go l.runCycle(l.sessionCtx, l.gen)
}

func (l *Loop) handleResult(r analysisResult) {
	if r.gen != l.gen {
		l.metrics.Cycle(metrics.ResultDiscarded)
		l.logger.Debug("discarded stale analysis", "gen", r.gen, "current", l.gen)
		return
	}
	l.analyzing = false
	l.status.Cycles++

	text := strings.TrimSpace(r.text)
	switch {
	case r.err != nil:
		l.logger.Warn("analysis failed", "error", r.err, "duration_ms", r.duration.Milliseconds())
		l.metrics.Cycle(metrics.ResultError)
		l.status.LastError = "Analysis failed: " + reason(r.err)
		l.speak(AnalysisErrorPhrase, kindError)
	case text == "":
		l.metrics.Cycle(metrics.ResultEmpty)
		l.status.LastError = ""
		l.status.Description = NoDescriptionPhrase
		l.speak(NoDescriptionPhrase, kindFallback)
	default:
		l.logger.Info("scene described", "text", text, "model", r.model, "duration_ms", r.duration.Milliseconds())
		l.metrics.Cycle(metrics.ResultSpoken)
		l.status.LastError = ""
		l.status.Description = text
		l.speak(text, kindDescription)
	}

	l.status.State = StateSpeaking
	l.status.Message = MessageSpeaking
	l.publish()
}

func (l *Loop) handleSpeech(ev speech.Event) {
	if ev.Kind == speech.EventVoicesChanged {
		l.status.Voice = ev.Voice
		l.publish()
		return
	}
	if ev.UtteranceID == "" || ev.UtteranceID != l.utterance {
		return
	}

	switch ev.Kind {
	case speech.EventStart:
		return
	case speech.EventEnd:
		l.utterance = ""
	case speech.EventError:
		l.utterance = ""
		l.logger.Warn("speech failed", "utterance", ev.UtteranceID, "error", ev.Err)
		if l.status.Active {
			l.status.LastError = "Speech error: " + reason(ev.Err)
		}
	}

	if l.status.State == StateSpeaking {
		l.status.State = StateListening
		l.status.Message = MessageListening
	}
	l.publish()
}

func (l *Loop) speak(text, kind string) {
	l.utterance = l.speaker.Speak(text)
	l.metrics.Utterance(kind)
}

// publish copies the live status into the snapshot and notifies the sink.
func (l *Loop) publish() {
	s := l.status

	l.snapMu.Lock()
	l.snapshot = s
	l.snapMu.Unlock()

	if l.cfg.Sink != nil {
		l.cfg.Sink.PublishStatus(s)
	}
}
