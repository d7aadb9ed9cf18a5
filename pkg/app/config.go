// Package app wires the camera, analyzer, speech and web surface into a
// running assistant.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/teslashibe/go-lookout/internal/config"
	"github.com/teslashibe/go-lookout/pkg/assistant"
	"github.com/teslashibe/go-lookout/pkg/camera"
	"github.com/teslashibe/go-lookout/pkg/frame"
)

// Camera modes.
const (
	CameraDevice  = "device"
	CameraBrowser = "browser"
	cameraFile    = "file:"
)

// Players.
const (
	PlayerExec      = "exec"
	PlayerPortAudio = "portaudio"
)

// Config holds all configuration for the assistant service.
// Flag parsing is done in cmd/lookout; this struct is data only.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// LogLevel is debug, info, warn or error.
	LogLevel string

	// Interval is the capture cadence.
	Interval time.Duration

	// Camera is "device", "browser" or "file:<path>".
	Camera       string
	CameraDevice string // index, device node or URL for device mode
	Facing       camera.Facing

	// Frame sampling.
	MaxDimension int
	Quality      int
	Kernel       string // nearest, approx-bilinear, bilinear or catmull-rom

	// Analyzers in fallback order: "gemini", "openai".
	Analyzers     []string
	GeminiKey     string
	GeminiModel   string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	Prompt        string

	// Speech.
	TTS          []string // "google", "openai", "espeak" in fallback order
	Voices       []string // preferred voice names
	Locale       string
	SpeakingRate float64
	VoiceRefresh time.Duration

	// Player is "exec" or "portaudio".
	Player      string
	AudioDevice string
}

// DefaultConfig returns defaults for every field.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		LogLevel:     "info",
		Interval:     assistant.DefaultInterval,
		Camera:       CameraDevice,
		CameraDevice: "0",
		Facing:       camera.FacingEnvironment,
		MaxDimension: frame.DefaultMaxDimension,
		Quality:      frame.DefaultQuality,
		Kernel:       "approx-bilinear",
		Analyzers:    []string{"gemini", "openai"},
		TTS:          []string{"google", "openai", "espeak"},
		Locale:       "en-US",
		SpeakingRate: 1.1,
		VoiceRefresh: 30 * time.Second,
		Player:       PlayerExec,
	}
}

// LoadEnvConfig applies environment overrides. cmd/lookout calls it
// before parsing flags so that flags win.
func (c *Config) LoadEnvConfig() {
	c.GeminiKey = config.String(c.GeminiKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	c.OpenAIKey = config.String(c.OpenAIKey, "OPENAI_API_KEY")
	c.OpenAIBaseURL = config.String(c.OpenAIBaseURL, "OPENAI_BASE_URL")

	if port := config.String("", "LOOKOUT_PORT", "PORT"); port != "" {
		c.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	c.Interval = config.Duration("LOOKOUT_INTERVAL", c.Interval)
	c.Camera = config.String(c.Camera, "LOOKOUT_CAMERA")
	c.CameraDevice = config.String(c.CameraDevice, "LOOKOUT_CAMERA_DEVICE")
	c.MaxDimension = config.Int("LOOKOUT_MAX_DIMENSION", c.MaxDimension)
	c.Kernel = config.String(c.Kernel, "LOOKOUT_KERNEL")
	c.Analyzers = config.List("LOOKOUT_ANALYZERS", c.Analyzers)
	c.TTS = config.List("LOOKOUT_TTS", c.TTS)
	c.Voices = config.List("LOOKOUT_VOICES", c.Voices)
	c.Locale = config.String(c.Locale, "LOOKOUT_LOCALE")
	c.Player = config.String(c.Player, "LOOKOUT_PLAYER")
	c.LogLevel = config.String(c.LogLevel, "LOG_LEVEL")
}

// Validate checks that the configuration can produce a working assistant.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return &ConfigError{Field: "Interval", Message: "interval must be positive"}
	}
	if _, err := c.cameraMode(); err != nil {
		return err
	}
	if c.Quality < 1 || c.Quality > 100 {
		return &ConfigError{Field: "Quality", Message: "JPEG quality must be between 1 and 100"}
	}
	if c.MaxDimension < 1 {
		return &ConfigError{Field: "MaxDimension", Message: "max dimension must be at least 1 pixel"}
	}
	if _, ok := frame.KernelByName(c.Kernel); !ok {
		return &ConfigError{Field: "Kernel", Message: fmt.Sprintf("unknown scaling kernel %q (want nearest, approx-bilinear, bilinear or catmull-rom)", c.Kernel)}
	}
	if c.Player != PlayerExec && c.Player != PlayerPortAudio {
		return &ConfigError{Field: "Player", Message: fmt.Sprintf("unknown player %q (want exec or portaudio)", c.Player)}
	}
	if len(c.TTS) == 0 {
		return &ConfigError{Field: "TTS", Message: "at least one TTS provider is required"}
	}

	usable := 0
	for _, name := range c.Analyzers {
		switch name {
		case "gemini":
			if c.GeminiKey != "" {
				usable++
			}
		case "openai":
			if c.OpenAIKey != "" || c.OpenAIBaseURL != "" {
				usable++
			}
		default:
			return &ConfigError{Field: "Analyzers", Message: fmt.Sprintf("unknown analyzer %q", name)}
		}
	}
	if usable == 0 {
		return &ConfigError{Field: "Analyzers", Message: "GEMINI_API_KEY or OPENAI_API_KEY environment variable is required"}
	}
	return nil
}

// cameraMode splits Camera into a mode and, for file mode, a path.
func (c *Config) cameraMode() (string, error) {
	switch {
	case c.Camera == CameraDevice, c.Camera == CameraBrowser:
		return c.Camera, nil
	case strings.HasPrefix(c.Camera, cameraFile) && len(c.Camera) > len(cameraFile):
		return cameraFile, nil
	default:
		return "", &ConfigError{Field: "Camera", Message: fmt.Sprintf("unknown camera %q (want device, browser or file:<path>)", c.Camera)}
	}
}

// CameraConfig derives the camera settings.
func (c *Config) CameraConfig() camera.Config {
	cfg := camera.DefaultConfig()
	cfg.Facing = c.Facing
	if c.CameraDevice != "" {
		cfg.Devices[c.Facing] = c.CameraDevice
	}
	return cfg
}

// FrameOptions derives the sampler settings.
func (c *Config) FrameOptions() frame.Options {
	opts := frame.DefaultOptions()
	opts.MaxDimension = c.MaxDimension
	opts.Quality = c.Quality
	if k, ok := frame.KernelByName(c.Kernel); ok {
		opts.Kernel = k
	}
	return opts
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
