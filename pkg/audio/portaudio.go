//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/teslashibe/go-lookout/pkg/tts"
)

// OutputSampleRate is the device rate; everything is resampled to it.
const OutputSampleRate = 24000

// framesPerBuffer is 40ms at 24kHz.
const framesPerBuffer = 960

// PortAudioPlayer writes PCM16 directly to the default output device.
type PortAudioPlayer struct {
	logger *slog.Logger

	mu sync.Mutex // one utterance at a time
}

// NewPortAudioPlayer initializes PortAudio. Call Close to terminate it.
func NewPortAudioPlayer(logger *slog.Logger) (*PortAudioPlayer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize PortAudio: %w", err)
	}
	return &PortAudioPlayer{logger: logger.With("component", "audio.portaudio")}, nil
}

// Play converts the result to mono PCM16 at OutputSampleRate and streams
// it buffer by buffer, checking ctx between buffers.
func (p *PortAudioPlayer) Play(ctx context.Context, audio *tts.AudioResult) error {
	if audio == nil || len(audio.Audio) == 0 {
		return nil
	}
	samples, err := toOutputSamples(audio)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(OutputSampleRate), framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("audio: open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("audio: start output stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(samples); off += framesPerBuffer {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(out, samples[off:])
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("audio: write: %w", err)
		}
	}
	return nil
}

// toOutputSamples decodes WAV or raw PCM into device-rate mono samples.
func toOutputSamples(audio *tts.AudioResult) ([]int16, error) {
	var (
		data     []byte
		rate     int
		channels = 1
	)
	switch {
	case audio.Format.Encoding == tts.EncodingWAV:
		w, err := ParseWAV(audio.Audio)
		if err != nil {
			return nil, err
		}
		data, rate, channels = w.Data, w.SampleRate, w.Channels
	case audio.Format.Encoding.IsPCM():
		data = audio.Audio
		rate = audio.Format.SampleRate
		if rate == 0 {
			rate = tts.SampleRateFromEncoding(audio.Format.Encoding)
		}
	default:
		return nil, fmt.Errorf("%w: %s (use the exec player for compressed audio)", ErrUnsupportedFormat, audio.Format.Encoding)
	}

	samples := BytesToSamples(data)
	if channels == 2 {
		samples = StereoToMono(samples)
	}
	return Resample(samples, rate, OutputSampleRate), nil
}

// Name returns "portaudio".
func (p *PortAudioPlayer) Name() string { return "portaudio" }

// Close terminates PortAudio.
func (p *PortAudioPlayer) Close() error {
	return portaudio.Terminate()
}

var _ Player = (*PortAudioPlayer)(nil)
