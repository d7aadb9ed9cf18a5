package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-lookout/internal/log"
	"github.com/teslashibe/go-lookout/pkg/camera"
	"github.com/teslashibe/go-lookout/pkg/vision"
)

func newTestApp(t *testing.T, mutate func(*Config)) *App {
	t.Helper()
	cfg := validConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := New(cfg, log.Discard())
	require.NoError(t, err)
	return a
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(DefaultConfig(), log.Discard())
	var ce *ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestNewCameraModes(t *testing.T) {
	cfg := validConfig()
	cfg.Camera = CameraBrowser
	src, push, err := NewCamera(cfg, log.Discard())
	require.NoError(t, err)
	require.NotNil(t, push)
	assert.Equal(t, camera.Source(push), src)

	cfg.Camera = "file:testdata/scene.jpg"
	src, push, err = NewCamera(cfg, log.Discard())
	require.NoError(t, err)
	assert.Nil(t, push)
	assert.IsType(t, &camera.File{}, src)

	cfg.Camera = CameraDevice
	src, _, err = NewCamera(cfg, log.Discard())
	require.NoError(t, err)
	assert.IsType(t, &camera.Device{}, src)

	cfg.Facing = "sideways"
	_, _, err = NewCamera(cfg, log.Discard())
	assert.Error(t, err)
}

func TestInitAnalyzer(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"gemini only", nil, "gemini"},
		{"both keys chain", func(c *Config) { c.OpenAIKey = "sk" }, "gemini>openai"},
		{"order follows config", func(c *Config) {
			c.OpenAIKey = "sk"
			c.Analyzers = []string{"openai", "gemini"}
		}, "openai>gemini"},
		{"keyless local endpoint", func(c *Config) {
			c.GeminiKey = ""
			c.OpenAIBaseURL = "http://localhost:11434/v1"
		}, "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			an, err := NewAnalyzer(cfg, log.Discard())
			require.NoError(t, err)
			assert.Equal(t, tt.want, an.Name())
		})
	}
}

func TestNewAnalyzerWithoutKeys(t *testing.T) {
	cfg := DefaultConfig()
	_, err := NewAnalyzer(cfg, log.Discard())
	assert.ErrorIs(t, err, vision.ErrNoAnalyzers)
}

func TestNewVoiceUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.TTS = []string{"festival"}
	_, err := NewVoice(context.Background(), cfg, log.Discard())
	var ce *ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestRunBeforeInit(t *testing.T) {
	a := newTestApp(t, nil)
	assert.Error(t, a.Run(context.Background()))
}

func TestShutdownWithoutInit(t *testing.T) {
	a := newTestApp(t, nil)
	a.Shutdown()
}
