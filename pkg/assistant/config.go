package assistant

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-lookout/internal/metrics"
	"github.com/teslashibe/go-lookout/pkg/frame"
)

// DefaultInterval is the time between capture ticks.
const DefaultInterval = 2500 * time.Millisecond

// Ticker is the part of time.Ticker the loop needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop() { r.t.Stop() }

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Config holds loop settings.
type Config struct {
	Interval time.Duration
	Frame    frame.Options

	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Sink    StatusSink

	// NewTicker creates the capture ticker. Tests swap it for a manual one.
	NewTicker func(time.Duration) Ticker
}

// Option configures the loop.
type Option func(*Config)

// WithInterval sets the capture cadence.
func WithInterval(d time.Duration) Option {
	return func(c *Config) { c.Interval = d }
}

// WithFrameOptions sets downscale and encode options.
func WithFrameOptions(o frame.Options) Option {
	return func(c *Config) { c.Frame = o }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics records loop metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithSink pushes every status change to s.
func WithSink(s StatusSink) Option {
	return func(c *Config) { c.Sink = s }
}

// WithTicker replaces the ticker factory.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(c *Config) { c.NewTicker = f }
}

// DefaultConfig returns a 2.5 s cadence with 512 px, quality 50 frames.
func DefaultConfig() *Config {
	return &Config{
		Interval:  DefaultInterval,
		Frame:     frame.DefaultOptions(),
		Logger:    slog.Default(),
		NewTicker: NewTicker,
	}
}

// Apply applies options and fills zero values.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.NewTicker == nil {
		c.NewTicker = NewTicker
	}
}
