package tts

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider and VoiceLister for testing.
// All methods can be customized via function fields.
type Mock struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns silent PCM of a length proportional to the text.
	SynthesizeFunc func(ctx context.Context, text, voice string) (*AudioResult, error)

	// VoicesFunc is called when Voices is invoked. If nil, returns nil.
	VoicesFunc func(ctx context.Context) ([]Voice, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	// NameValue overrides the reported name.
	NameValue string

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
	Voice  string
	Time   time.Time
}

// NewMock creates a new mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{}
}

// Silence returns a PCM24 result of about 20 ms per character.
func Silence(text string) *AudioResult {
	const bytesPerChar = 960
	return &AudioResult{
		Audio: make([]byte, len(text)*bytesPerChar),
		Format: AudioFormat{
			Encoding:   EncodingPCM24,
			SampleRate: 24000,
			Channels:   1,
			BitDepth:   16,
		},
		CharCount: len(text),
		LatencyMs: 1,
		Duration:  time.Duration(len(text)) * 20 * time.Millisecond,
	}
}

// Synthesize calls SynthesizeFunc and records the call.
func (m *Mock) Synthesize(ctx context.Context, text, voice string) (*AudioResult, error) {
	m.recordCall("Synthesize", text, voice)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, voice)
	}
	res := Silence(text)
	res.Voice = voice
	return res, nil
}

// Voices calls VoicesFunc and records the call.
func (m *Mock) Voices(ctx context.Context) ([]Voice, error) {
	m.recordCall("Voices", "", "")
	if m.VoicesFunc != nil {
		return m.VoicesFunc(ctx)
	}
	return nil, nil
}

// Name returns NameValue or "mock".
func (m *Mock) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.recordCall("Close", "", "")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) recordCall(method, text, voice string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Text:   text,
		Voice:  voice,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call, or nil if none.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError returns a mock that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text, voice string) (*AudioResult, error) {
			return nil, err
		},
		VoicesFunc: func(ctx context.Context) ([]Voice, error) {
			return nil, err
		},
	}
}

// WithLatency wraps a mock to add artificial latency.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	original := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, text, voice string) (*AudioResult, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if original != nil {
			return original(ctx, text, voice)
		}
		return Silence(text), nil
	}
	return m
}

var (
	_ Provider    = (*Mock)(nil)
	_ VoiceLister = (*Mock)(nil)
)
