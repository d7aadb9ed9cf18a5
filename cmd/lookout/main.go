// Lookout - a hands-free scene describer.
//
// Captures a frame every couple of seconds while active, asks a vision
// model to describe it and speaks the answer. Toggled from a single
// full-screen web page.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-lookout/internal/config"
	"github.com/teslashibe/go-lookout/internal/log"
	"github.com/teslashibe/go-lookout/pkg/app"
	"github.com/teslashibe/go-lookout/pkg/camera"
)

func main() {
	envErr := config.LoadDotEnv()

	cfg := parseFlags()
	log.Init(cfg.LogLevel)
	logger := log.L()
	if envErr != nil {
		log.Warn("could not load .env", "error", envErr)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Init(ctx); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	if err := a.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// parseFlags reads the environment first so that flags override it.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()
	cfg.LoadEnvConfig()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Time between captures")
	flag.StringVar(&cfg.Camera, "camera", cfg.Camera, "Camera: device, browser or file:<path>")
	flag.StringVar(&cfg.CameraDevice, "camera-device", cfg.CameraDevice, "Device index, node or stream URL")
	facing := flag.String("facing", string(cfg.Facing), "Camera facing: environment or user")
	flag.IntVar(&cfg.MaxDimension, "max-dimension", cfg.MaxDimension, "Longest edge of analyzed frames in pixels")
	flag.IntVar(&cfg.Quality, "quality", cfg.Quality, "JPEG quality of analyzed frames (1-100)")
	flag.StringVar(&cfg.Kernel, "kernel", cfg.Kernel, "Downscaling kernel: nearest, approx-bilinear, bilinear, catmull-rom")
	analyzers := flag.String("analyzers", strings.Join(cfg.Analyzers, ","), "Analyzers in fallback order: gemini, openai")
	flag.StringVar(&cfg.GeminiModel, "gemini-model", cfg.GeminiModel, "Gemini model (default gemini-2.0-flash)")
	flag.StringVar(&cfg.OpenAIModel, "openai-model", cfg.OpenAIModel, "OpenAI-compatible vision model (default gpt-4o-mini)")
	flag.StringVar(&cfg.OpenAIBaseURL, "openai-base-url", cfg.OpenAIBaseURL, "OpenAI-compatible base URL")
	flag.StringVar(&cfg.Prompt, "prompt", cfg.Prompt, "Override the description style prompt")
	ttsOrder := flag.String("tts", strings.Join(cfg.TTS, ","), "TTS providers in fallback order: google, openai, espeak")
	voices := flag.String("voices", strings.Join(cfg.Voices, ","), "Preferred voice names, comma separated")
	flag.StringVar(&cfg.Locale, "locale", cfg.Locale, "Speech locale")
	flag.Float64Var(&cfg.SpeakingRate, "rate", cfg.SpeakingRate, "Speaking rate (1.0 = normal)")
	flag.DurationVar(&cfg.VoiceRefresh, "voice-refresh", cfg.VoiceRefresh, "How often to re-read the voice list (0 disables)")
	flag.StringVar(&cfg.Player, "player", cfg.Player, "Audio output: exec or portaudio")
	flag.StringVar(&cfg.AudioDevice, "audio-device", cfg.AudioDevice, "ALSA device for the exec player")
	flag.Parse()

	cfg.Facing = camera.Facing(*facing)
	cfg.Analyzers = config.SplitList(*analyzers)
	cfg.TTS = config.SplitList(*ttsOrder)
	cfg.Voices = config.SplitList(*voices)
	return cfg
}
