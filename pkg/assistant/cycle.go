package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-lookout/pkg/frame"
)

// runCycle captures, samples and analyzes one frame off the loop goroutine.
func (l *Loop) runCycle(ctx context.Context, gen uint64) {
	start := time.Now()
	text, model, err := l.describe(ctx)

	r := analysisResult{
		gen:      gen,
		text:     text,
		model:    model,
		err:      err,
		duration: time.Since(start),
	}
	select {
	case l.results <- r:
	case <-l.done:
	}
}

func (l *Loop) describe(ctx context.Context) (text, model string, err error) {
	img, err := l.camera.Frame(ctx)
	if err != nil {
		return "", "", fmt.Errorf("capture: %w", err)
	}

	f, err := frame.Sample(img, l.cfg.Frame)
	if err != nil {
		return "", "", fmt.Errorf("encode: %w", err)
	}

	start := time.Now()
	res, err := l.analyzer.Analyze(ctx, f)
	l.metrics.ObserveAnalysis(l.analyzer.Name(), time.Since(start), err)
	if err != nil {
		return "", "", err
	}
	if res == nil {
		return "", "", nil
	}
	return res.Text, res.Model, nil
}
