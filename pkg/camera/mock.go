package camera

import (
	"context"
	"image"
	"image/color"
	"sync"
)

// Mock is a Source for tests.
type Mock struct {
	mu sync.Mutex

	AcquireFunc func(ctx context.Context) error
	FrameFunc   func(ctx context.Context) (image.Image, error)

	AcquireCalls int
	ReleaseCalls int
	FrameCalls   int

	acquired bool
}

// NewMock returns a mock that acquires successfully and serves a grey frame.
func NewMock() *Mock {
	return &Mock{}
}

// WithAcquireError makes every Acquire fail with err.
func (m *Mock) WithAcquireError(err error) *Mock {
	m.AcquireFunc = func(ctx context.Context) error { return err }
	return m
}

func (m *Mock) Acquire(ctx context.Context) error {
	m.mu.Lock()
	m.AcquireCalls++
	fn := m.AcquireFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.acquired = true
	m.mu.Unlock()
	return nil
}

func (m *Mock) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCalls++
	m.acquired = false
	return nil
}

func (m *Mock) Frame(ctx context.Context) (image.Image, error) {
	m.mu.Lock()
	m.FrameCalls++
	fn, acquired := m.FrameFunc, m.acquired
	m.mu.Unlock()

	if !acquired {
		return nil, ErrNotAcquired
	}
	if fn != nil {
		return fn(ctx)
	}
	return SolidImage(64, 48, color.Gray{Y: 128}), nil
}

func (m *Mock) Acquired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired
}

// Counts returns acquire, release and frame call counts.
func (m *Mock) Counts() (acquire, release, frame int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AcquireCalls, m.ReleaseCalls, m.FrameCalls
}

// SolidImage returns a w x h image filled with c.
func SolidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var _ Source = (*Mock)(nil)
