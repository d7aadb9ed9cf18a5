package vision

import (
	"context"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-lookout/pkg/frame"
)

// Chain tries analyzers in order until one succeeds.
type Chain struct {
	analyzers []Analyzer
	logger    *slog.Logger
}

// NewChain creates an analyzer chain. At least one analyzer is required.
func NewChain(logger *slog.Logger, analyzers ...Analyzer) (*Chain, error) {
	if len(analyzers) == 0 {
		return nil, ErrNoAnalyzers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		analyzers: analyzers,
		logger:    logger.With("component", "vision.chain"),
	}, nil
}

// Analyze returns the first successful result. An empty result counts as
// success; the caller decides what to say.
func (c *Chain) Analyze(ctx context.Context, f *frame.Frame) (*Result, error) {
	var errs []error

	for i, a := range c.analyzers {
		res, err := a.Analyze(ctx, f)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback analyzer succeeded", "analyzer", a.Name(), "index", i)
			}
			return res, nil
		}

		errs = append(errs, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("analyzer failed, trying next", "analyzer", a.Name(), "error", err)
	}

	return nil, &ChainError{Errors: errs}
}

// Name lists the chained analyzers, e.g. "gemini>openai".
func (c *Chain) Name() string {
	names := make([]string, len(c.analyzers))
	for i, a := range c.analyzers {
		names[i] = a.Name()
	}
	return strings.Join(names, ">")
}

// Close closes every analyzer and returns the last error.
func (c *Chain) Close() error {
	var lastErr error
	for _, a := range c.analyzers {
		if err := a.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Analyzers returns the chained analyzers.
func (c *Chain) Analyzers() []Analyzer {
	return c.analyzers
}

var _ Analyzer = (*Chain)(nil)
