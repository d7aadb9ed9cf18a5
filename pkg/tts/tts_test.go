package tts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider(t *testing.T) {
	mock := NewMock()
	ctx := context.Background()

	result, err := mock.Synthesize(ctx, "Hello world", "nova")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Audio)
	assert.Equal(t, 11, result.CharCount)
	assert.Equal(t, 24000, result.Format.SampleRate)
	assert.Equal(t, "nova", result.Voice)

	_, _ = mock.Voices(ctx)
	require.NoError(t, mock.Close())

	assert.Len(t, mock.Calls(), 3)
	assert.Equal(t, 1, mock.CallCount("Synthesize"))
	last := mock.LastCall()
	require.NotNil(t, last)
	assert.Equal(t, "Close", last.Method)

	mock.Reset()
	assert.Empty(t, mock.Calls())
	assert.Nil(t, mock.LastCall())
}

func TestMockWithLatencyHonoursContext(t *testing.T) {
	mock := WithLatency(NewMock(), time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.Synthesize(ctx, "slow", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChainFallback(t *testing.T) {
	primary := WithError(errors.New("primary down"))
	primary.NameValue = "google"
	backup := NewMock()
	backup.NameValue = "espeak"

	chain, err := NewChain(nil, primary, backup)
	require.NoError(t, err)

	result, err := chain.Synthesize(context.Background(), "Curb ahead.", "en-US-Neural2-F")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Audio)

	assert.Equal(t, "en-US-Neural2-F", primary.LastCall().Voice)
	assert.Equal(t, "", backup.LastCall().Voice, "fallback must use its own default voice")
	assert.Equal(t, "google>espeak", chain.Name())
}

func TestChainAllFail(t *testing.T) {
	errA := errors.New("a")
	chain, err := NewChain(nil, WithError(errA), WithError(errors.New("b")))
	require.NoError(t, err)

	_, err = chain.Synthesize(context.Background(), "hi", "")
	var chainErr *ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Len(t, chainErr.Errors, 2)
	assert.ErrorIs(t, err, errA)
}

func TestChainVoicesSkipsFailingLister(t *testing.T) {
	broken := WithError(errors.New("no list"))
	broken.NameValue = "google"
	local := NewMock()
	local.NameValue = "espeak"
	local.VoicesFunc = func(ctx context.Context) ([]Voice, error) {
		return []Voice{{ID: "en-us", Name: "English (America)", Locale: "en-US", Provider: "espeak"}}, nil
	}

	chain, err := NewChain(nil, broken, local)
	require.NoError(t, err)

	voices, err := chain.Voices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 1)

	// The voice now belongs to espeak, so google must not receive it.
	_, err = chain.Synthesize(context.Background(), "hi", "en-us")
	require.NoError(t, err)
	assert.Equal(t, "", broken.LastCall().Voice)
	assert.Equal(t, "en-us", local.LastCall().Voice)
}

func TestNewChainRequiresProvider(t *testing.T) {
	_, err := NewChain(nil)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestAPIErrorClassification(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: 429}).IsRetryable())
	assert.True(t, (&APIError{StatusCode: 503}).IsRetryable())
	assert.False(t, (&APIError{StatusCode: 400}).IsRetryable())
	assert.True(t, (&APIError{StatusCode: 401}).IsUnauthorized())

	err := WrapError("openai", ErrEmptyText)
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Nil(t, WrapError("openai", nil))
}

func TestPCMDuration(t *testing.T) {
	assert.Equal(t, time.Second, PCMDuration(48000, 24000))
	assert.Equal(t, time.Duration(0), PCMDuration(-10, 24000))
	assert.Equal(t, time.Duration(0), PCMDuration(100, 0))
}

func TestEncoding(t *testing.T) {
	assert.True(t, EncodingPCM24.IsPCM())
	assert.False(t, EncodingWAV.IsPCM())
	assert.Equal(t, 22050, SampleRateFromEncoding(EncodingPCM22))
}
