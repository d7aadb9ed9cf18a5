package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"
)

// Publisher is the remote end that owns the real camera, typically a
// browser page connected over a websocket.
type Publisher interface {
	// StartCapture asks the publisher to open its camera and stream frames.
	StartCapture(facing Facing) error

	// StopCapture asks the publisher to stop streaming and release the camera.
	StopCapture() error
}

// Push is a Source fed by a remote publisher. Frames arrive through
// HandleFrame; capture failures arrive through HandleError.
type Push struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	pub      Publisher
	attached chan struct{} // closed on the next Attach
	waiting  chan error    // non-nil while Acquire waits for the first frame
	acquired bool
	latest   image.Image
	latestAt time.Time
	failure  error
}

// NewPush creates a push source with no publisher attached.
func NewPush(cfg Config, logger *slog.Logger) *Push {
	if logger == nil {
		logger = slog.Default()
	}
	return &Push{
		cfg:      cfg,
		logger:   logger.With("component", "camera.push"),
		now:      time.Now,
		attached: make(chan struct{}),
	}
}

// Attach registers the publisher. A newer publisher replaces an older one.
// If a capture is live or being acquired the new publisher is started.
func (p *Push) Attach(pub Publisher) {
	p.mu.Lock()
	p.pub = pub
	close(p.attached)
	p.attached = make(chan struct{})
	resume := p.acquired
	p.mu.Unlock()

	p.logger.Info("publisher attached")
	if resume {
		if err := pub.StartCapture(p.cfg.Facing); err != nil {
			p.logger.Warn("resume capture failed", "error", err)
		}
	}
}

// Detach removes pub if it is the current publisher.
func (p *Push) Detach(pub Publisher) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pub != pub {
		return
	}
	p.pub = nil
	p.logger.Info("publisher detached")
}

// Connected reports whether a publisher is attached.
func (p *Push) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pub != nil
}

// HandleFrame stores a decoded frame from the publisher.
func (p *Push) HandleFrame(img image.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest = img
	p.latestAt = p.now()
	p.failure = nil
	p.signal(nil)
}

// HandleError records a capture failure reported by the publisher, using
// the browser's error name (NotAllowedError, NotFoundError, ...).
func (p *Push) HandleError(reason string) {
	err := ErrorForReason(reason)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Warn("publisher reported camera error", "reason", reason)
	p.failure = err
	p.signal(err)
}

// signal wakes a pending Acquire. Caller holds p.mu.
func (p *Push) signal(err error) {
	if p.waiting == nil {
		return
	}
	select {
	case p.waiting <- err:
	default:
	}
}

// Acquire asks the publisher to start and waits for the first frame.
func (p *Push) Acquire(ctx context.Context) error {
	p.mu.Lock()
	if p.acquired {
		p.mu.Unlock()
		return nil
	}
	wait := make(chan error, 1)
	p.waiting = wait
	p.latest = nil
	p.failure = nil
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.waiting == wait {
			p.waiting = nil
		}
		p.mu.Unlock()
	}()

	tctx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	pub, err := p.awaitPublisher(tctx)
	if err != nil {
		return p.timeoutError(ctx, err, "no publisher connected")
	}
	if err := pub.StartCapture(p.cfg.Facing); err != nil {
		return fmt.Errorf("%w: start capture: %v", ErrNoCamera, err)
	}

	select {
	case err := <-wait:
		if err != nil {
			p.abandon(pub, wait)
			return err
		}
	case <-tctx.Done():
		p.abandon(pub, wait)
		return p.timeoutError(ctx, tctx.Err(), "no frame received")
	}

	p.mu.Lock()
	p.acquired = true
	p.mu.Unlock()

	p.logger.Info("camera acquired", "facing", p.cfg.Facing)
	return nil
}

// abandon stops the publisher for a failed Acquire unless a newer Acquire
// has taken over the capture. p.mu is held across StopCapture so a newer
// Acquire cannot send its start before this stop.
func (p *Push) abandon(pub Publisher, wait chan error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.waiting != wait {
		p.logger.Debug("acquire superseded, leaving capture running")
		return
	}
	if err := pub.StopCapture(); err != nil {
		p.logger.Debug("stop capture failed", "error", err)
	}
}

func (p *Push) awaitPublisher(ctx context.Context) (Publisher, error) {
	for {
		p.mu.Lock()
		pub, attached := p.pub, p.attached
		p.mu.Unlock()

		if pub != nil {
			return pub, nil
		}
		select {
		case <-attached:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// timeoutError keeps caller cancellation distinct from the acquire timeout.
func (p *Push) timeoutError(parent context.Context, err error, what string) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s within %s", ErrNoCamera, what, p.cfg.AcquireTimeout)
	}
	return err
}

// Release asks the publisher to stop and drops the last frame.
func (p *Push) Release() error {
	p.mu.Lock()
	if !p.acquired {
		p.mu.Unlock()
		return nil
	}
	p.acquired = false
	p.latest = nil
	pub := p.pub
	p.mu.Unlock()

	p.logger.Info("camera released")
	if pub == nil {
		return nil
	}
	return pub.StopCapture()
}

// Frame returns the latest pushed frame if it is fresh enough.
func (p *Push) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.acquired {
		return nil, ErrNotAcquired
	}
	if p.failure != nil {
		return nil, p.failure
	}
	if p.latest == nil {
		return nil, ErrNoFrame
	}
	if p.cfg.StaleAfter > 0 && p.now().Sub(p.latestAt) > p.cfg.StaleAfter {
		return nil, fmt.Errorf("%w: last frame is %s old", ErrNoFrame, p.now().Sub(p.latestAt).Round(time.Millisecond))
	}
	return p.latest, nil
}

// Acquired reports whether the publisher is streaming.
func (p *Push) Acquired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

// ErrorForReason maps a getUserMedia error name to a camera error.
func ErrorForReason(reason string) error {
	switch reason {
	case "NotAllowedError", "PermissionDeniedError", "SecurityError":
		return ErrPermissionDenied
	case "NotFoundError", "DevicesNotFoundError", "OverconstrainedError":
		return ErrNoCamera
	case "":
		return fmt.Errorf("%w: unknown error", ErrNoCamera)
	default:
		return fmt.Errorf("%w: %s", ErrNoCamera, reason)
	}
}

var _ Source = (*Push)(nil)
