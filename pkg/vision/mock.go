package vision

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-lookout/pkg/frame"
)

// Mock implements Analyzer for testing.
type Mock struct {
	// AnalyzeFunc is called when Analyze is invoked.
	AnalyzeFunc func(ctx context.Context, f *frame.Frame) (*Result, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	// NameValue overrides the reported name.
	NameValue string

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records an invocation.
type MockCall struct {
	Method string
	Frame  *frame.Frame
	Time   time.Time
}

// NewMock returns a mock that always describes a clear path.
func NewMock() *Mock {
	return &Mock{
		AnalyzeFunc: func(ctx context.Context, f *frame.Frame) (*Result, error) {
			return &Result{Text: "Path clear ahead.", Model: "mock"}, nil
		},
	}
}

// WithText returns a mock that always answers text.
func WithText(text string) *Mock {
	return &Mock{
		AnalyzeFunc: func(ctx context.Context, f *frame.Frame) (*Result, error) {
			return &Result{Text: text, Model: "mock"}, nil
		},
	}
}

// WithError returns a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		AnalyzeFunc: func(ctx context.Context, f *frame.Frame) (*Result, error) {
			return nil, err
		},
	}
}

func (m *Mock) Analyze(ctx context.Context, f *frame.Frame) (*Result, error) {
	m.record("Analyze", f)
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, f)
	}
	return &Result{Model: "mock"}, nil
}

func (m *Mock) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

func (m *Mock) Close() error {
	m.record("Close", nil)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) record(method string, f *frame.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Frame: f, Time: time.Now()})
}

// Calls returns a copy of all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var _ Analyzer = (*Mock)(nil)
