package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// BytesToSamples converts raw PCM16 little-endian bytes to int16 samples.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// Resample converts mono audio between sample rates with linear
// interpolation. Good enough for speech.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 || fromRate <= 0 || toRate <= 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	n := int(float64(len(samples)) / ratio)
	out := make([]int16, n)

	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		s1, s2 := float64(samples[idx]), float64(samples[idx+1])
		out[i] = int16(s1 + frac*(s2-s1))
	}
	return out
}

// WAV is the PCM payload of a RIFF/WAVE file.
type WAV struct {
	Data       []byte
	SampleRate int
	Channels   int
	BitDepth   int
}

// ParseWAV extracts PCM16 data from a RIFF/WAVE buffer. Streams written
// to a pipe may carry a bogus data length; the rest of the buffer is used
// in that case.
func ParseWAV(b []byte) (*WAV, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, errors.New("audio: not a WAV file")
	}

	w := &WAV{}
	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4:]))
		body := off + 8

		switch id {
		case "fmt ":
			if body+16 > len(b) {
				return nil, errors.New("audio: short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(b[body:])
			if format != 1 {
				return nil, fmt.Errorf("%w: WAV format %d", ErrUnsupportedFormat, format)
			}
			w.Channels = int(binary.LittleEndian.Uint16(b[body+2:]))
			w.SampleRate = int(binary.LittleEndian.Uint32(b[body+4:]))
			w.BitDepth = int(binary.LittleEndian.Uint16(b[body+14:]))
		case "data":
			end := body + size
			if size <= 0 || end > len(b) {
				end = len(b)
			}
			w.Data = b[body:end]
			if w.SampleRate == 0 {
				return nil, errors.New("audio: data chunk before fmt chunk")
			}
			if w.BitDepth != 16 {
				return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, w.BitDepth)
			}
			return w, nil
		}

		if size < 0 || body+size > len(b) {
			break
		}
		off = body + size + size%2
	}
	return nil, errors.New("audio: WAV has no data chunk")
}

// StereoToMono averages interleaved stereo samples.
func StereoToMono(samples []int16) []int16 {
	mono := make([]int16, len(samples)/2)
	for i := range mono {
		mono[i] = int16((int32(samples[i*2]) + int32(samples[i*2+1])) / 2)
	}
	return mono
}
