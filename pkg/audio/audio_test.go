package audio

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-lookout/pkg/tts"
)

func pcmBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

func makeWAV(rate, channels int, pcm []byte) []byte {
	b := make([]byte, 44+len(pcm))
	copy(b[0:], "RIFF")
	binary.LittleEndian.PutUint32(b[4:], uint32(36+len(pcm)))
	copy(b[8:], "WAVE")
	copy(b[12:], "fmt ")
	binary.LittleEndian.PutUint32(b[16:], 16)
	binary.LittleEndian.PutUint16(b[20:], 1)
	binary.LittleEndian.PutUint16(b[22:], uint16(channels))
	binary.LittleEndian.PutUint32(b[24:], uint32(rate))
	binary.LittleEndian.PutUint32(b[28:], uint32(rate*channels*2))
	binary.LittleEndian.PutUint16(b[32:], uint16(channels*2))
	binary.LittleEndian.PutUint16(b[34:], 16)
	copy(b[36:], "data")
	binary.LittleEndian.PutUint32(b[40:], uint32(len(pcm)))
	copy(b[44:], pcm)
	return b
}

func TestBytesToSamples(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768}
	assert.Equal(t, in, BytesToSamples(pcmBytes(in)))
}

func TestResample(t *testing.T) {
	in := make([]int16, 2400)
	assert.Len(t, Resample(in, 24000, 48000), 4800)
	assert.Len(t, Resample(in, 24000, 12000), 1200)
	assert.Equal(t, in, Resample(in, 24000, 24000))
	assert.Empty(t, Resample(nil, 16000, 24000))
}

func TestStereoToMono(t *testing.T) {
	assert.Equal(t, []int16{150, -5}, StereoToMono([]int16{100, 200, -10, 0}))
}

func TestParseWAV(t *testing.T) {
	pcm := pcmBytes([]int16{1, 2, 3, 4})
	w, err := ParseWAV(makeWAV(22050, 1, pcm))
	require.NoError(t, err)
	assert.Equal(t, 22050, w.SampleRate)
	assert.Equal(t, 1, w.Channels)
	assert.Equal(t, 16, w.BitDepth)
	assert.Equal(t, pcm, w.Data)
}

func TestParseWAVStreamedLength(t *testing.T) {
	pcm := pcmBytes([]int16{5, 6})
	b := makeWAV(16000, 1, pcm)
	binary.LittleEndian.PutUint32(b[40:], 0xFFFFFFFF)

	w, err := ParseWAV(b)
	require.NoError(t, err)
	assert.Equal(t, pcm, w.Data)
}

func TestParseWAVRejectsGarbage(t *testing.T) {
	_, err := ParseWAV([]byte("definitely not audio"))
	assert.Error(t, err)
}

func TestExecPlayerArgs(t *testing.T) {
	p := &ExecPlayer{cfg: DefaultExecConfig()}

	name, args, err := p.args(tts.AudioFormat{Encoding: tts.EncodingPCM24, SampleRate: 24000, Channels: 1})
	require.NoError(t, err)
	assert.Equal(t, "aplay", name)
	assert.Equal(t, []string{"-q", "-t", "raw", "-f", "S16_LE", "-r", "24000", "-c", "1", "-"}, args)

	name, args, err = p.args(tts.AudioFormat{Encoding: tts.EncodingWAV})
	require.NoError(t, err)
	assert.Equal(t, "aplay", name)
	assert.Equal(t, []string{"-q", "-t", "wav", "-"}, args)

	name, _, err = p.args(tts.AudioFormat{Encoding: tts.EncodingMP3})
	require.NoError(t, err)
	assert.Equal(t, "ffplay", name)

	_, _, err = p.args(tts.AudioFormat{Encoding: "flac"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	p.cfg.Device = "hw:1"
	_, args, _ = p.args(tts.AudioFormat{Encoding: tts.EncodingWAV})
	assert.Equal(t, []string{"-q", "-t", "wav", "-D", "hw:1", "-"}, args)
}

func shellPlayer(script string) *ExecPlayer {
	p := &ExecPlayer{cfg: DefaultExecConfig(), logger: discardLogger()}
	p.command = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	return p
}

func TestExecPlayerPlay(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	p := shellPlayer("cat > /dev/null")
	err := p.Play(context.Background(), &tts.AudioResult{Audio: []byte{1, 2}, Format: tts.AudioFormat{Encoding: tts.EncodingPCM24}})
	assert.NoError(t, err)
}

func TestExecPlayerCancel(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	p := shellPlayer("exec sleep 5")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Play(ctx, &tts.AudioResult{Audio: []byte{1, 2}, Format: tts.AudioFormat{Encoding: tts.EncodingWAV}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExecPlayerEmptyAudio(t *testing.T) {
	p := shellPlayer("exit 1")
	assert.NoError(t, p.Play(context.Background(), &tts.AudioResult{}))
}

func TestMockPlayer(t *testing.T) {
	m := NewMock()
	err := m.Play(context.Background(), &tts.AudioResult{Duration: time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = m.Play(ctx, &tts.AudioResult{Duration: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, m.Played(), 2)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
