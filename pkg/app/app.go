package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-lookout/internal/metrics"
	"github.com/teslashibe/go-lookout/pkg/assistant"
	"github.com/teslashibe/go-lookout/pkg/audio"
	"github.com/teslashibe/go-lookout/pkg/camera"
	"github.com/teslashibe/go-lookout/pkg/hub"
	"github.com/teslashibe/go-lookout/pkg/speech"
	"github.com/teslashibe/go-lookout/pkg/tts"
	"github.com/teslashibe/go-lookout/pkg/vision"
	"github.com/teslashibe/go-lookout/pkg/web"
)

// App owns every component and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	metrics  *metrics.Metrics
	camera   camera.Source
	push     *camera.Push
	analyzer vision.Analyzer
	voice    tts.Provider
	player   audio.Player
	speaker  *speech.Speaker
	loop     *assistant.Loop
	status   *hub.Hub
	server   *web.Server
}

// New validates cfg and returns an uninitialized App.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{config: cfg, logger: logger.With("component", "app")}, nil
}

// Init builds all components. Call it after New and before Run.
func (a *App) Init(ctx context.Context) error {
	var err error
	a.metrics = metrics.New()

	if a.camera, a.push, err = NewCamera(a.config, a.logger); err != nil {
		return fmt.Errorf("camera init: %w", err)
	}
	if a.analyzer, err = NewAnalyzer(a.config, a.logger); err != nil {
		return fmt.Errorf("analyzer init: %w", err)
	}
	if a.voice, err = NewVoice(ctx, a.config, a.logger); err != nil {
		return fmt.Errorf("tts init: %w", err)
	}
	if a.player, err = NewPlayer(a.config, a.logger); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	a.speaker = NewSpeaker(ctx, a.config, a.voice, a.player, a.logger)

	a.status = hub.New("status", a.logger)
	a.loop = assistant.New(a.camera, a.analyzer, a.speaker,
		assistant.WithInterval(a.config.Interval),
		assistant.WithFrameOptions(a.config.FrameOptions()),
		assistant.WithLogger(a.logger),
		assistant.WithMetrics(a.metrics),
		assistant.WithSink(web.NewStatusPublisher(a.status, a.logger)),
	)

	webCfg := web.DefaultConfig()
	webCfg.Addr = a.config.Addr
	webCfg.Camera = a.config.CameraConfig()
	a.server = web.New(webCfg, a.loop, a.status, web.Options{
		Push:    a.push,
		Metrics: a.metrics,
		Logger:  a.logger,
	})

	a.logger.Info("initialized",
		"camera", a.config.Camera,
		"analyzer", a.analyzer.Name(),
		"tts", a.voice.Name(),
		"player", a.player.Name(),
		"interval", a.config.Interval,
	)
	return nil
}

// NewCamera builds the configured camera source. The push source is
// returned separately, and is nil unless the browser is the camera.
func NewCamera(cfg Config, logger *slog.Logger) (camera.Source, *camera.Push, error) {
	mode, err := cfg.cameraMode()
	if err != nil {
		return nil, nil, err
	}

	camCfg := cfg.CameraConfig()
	if errs := camCfg.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("invalid camera config: %s", strings.Join(errs, "; "))
	}

	switch mode {
	case CameraDevice:
		return camera.NewDevice(camCfg, logger), nil, nil
	case CameraBrowser:
		push := camera.NewPush(camCfg, logger)
		return push, push, nil
	default:
		return camera.NewFile(strings.TrimPrefix(cfg.Camera, cameraFile)), nil, nil
	}
}

// NewAnalyzer builds the analyzers that have credentials, chained in
// configured order.
func NewAnalyzer(cfg Config, logger *slog.Logger) (vision.Analyzer, error) {
	opts := []vision.Option{vision.WithLogger(logger)}
	if cfg.Prompt != "" {
		opts = append(opts, vision.WithPrompt(cfg.Prompt))
	}

	var analyzers []vision.Analyzer
	for _, name := range cfg.Analyzers {
		var (
			an  vision.Analyzer
			err error
		)
		switch name {
		case "gemini":
			if cfg.GeminiKey == "" {
				continue
			}
			o := append(opts[:len(opts):len(opts)], vision.WithAPIKey(cfg.GeminiKey))
			if cfg.GeminiModel != "" {
				o = append(o, vision.WithModel(cfg.GeminiModel))
			}
			an, err = vision.NewGemini(o...)
		case "openai":
			if cfg.OpenAIKey == "" && cfg.OpenAIBaseURL == "" {
				continue
			}
			o := append(opts[:len(opts):len(opts)], vision.WithAPIKey(cfg.OpenAIKey))
			if cfg.OpenAIBaseURL != "" {
				o = append(o, vision.WithBaseURL(cfg.OpenAIBaseURL))
			}
			if cfg.OpenAIModel != "" {
				o = append(o, vision.WithModel(cfg.OpenAIModel))
			}
			an, err = vision.NewOpenAI(o...)
		default:
			return nil, &ConfigError{Field: "Analyzers", Message: fmt.Sprintf("unknown analyzer %q", name)}
		}
		if err != nil {
			return nil, err
		}
		analyzers = append(analyzers, an)
	}

	switch len(analyzers) {
	case 0:
		return nil, vision.ErrNoAnalyzers
	case 1:
		return analyzers[0], nil
	}
	return vision.NewChain(logger, analyzers...)
}

// NewVoice builds the TTS providers in configured order. A provider
// missing its credentials or binary is skipped with a warning.
func NewVoice(ctx context.Context, cfg Config, logger *slog.Logger) (tts.Provider, error) {
	opts := []tts.Option{
		tts.WithLocale(cfg.Locale),
		tts.WithSpeakingRate(cfg.SpeakingRate),
		tts.WithLogger(logger),
	}

	var providers []tts.Provider
	for _, name := range cfg.TTS {
		var (
			p   tts.Provider
			err error
		)
		switch name {
		case "google":
			o := opts
			if cfg.GeminiKey != "" {
				o = append(opts[:len(opts):len(opts)], tts.WithAPIKey(cfg.GeminiKey))
			}
			p, err = tts.NewGoogle(ctx, o...)
		case "openai":
			p, err = tts.NewOpenAI(append(opts[:len(opts):len(opts)], tts.WithAPIKey(cfg.OpenAIKey))...)
		case "espeak":
			p, err = tts.NewEspeak(opts...)
		default:
			return nil, &ConfigError{Field: "TTS", Message: fmt.Sprintf("unknown TTS provider %q", name)}
		}
		if err != nil {
			logger.Warn("tts provider unavailable", "provider", name, "error", err)
			continue
		}
		providers = append(providers, p)
	}

	switch len(providers) {
	case 0:
		return nil, tts.ErrProviderUnavailable
	case 1:
		return providers[0], nil
	}
	return tts.NewChain(logger, providers...)
}

// NewPlayer builds the configured audio output.
func NewPlayer(cfg Config, logger *slog.Logger) (audio.Player, error) {
	if cfg.Player == PlayerPortAudio {
		return audio.NewPortAudioPlayer(logger)
	}
	execCfg := audio.DefaultExecConfig()
	execCfg.Device = cfg.AudioDevice
	return audio.NewExecPlayer(execCfg, logger)
}

// NewSpeaker builds the speaker and loads the voice list once.
func NewSpeaker(ctx context.Context, cfg Config, voice tts.Provider, player audio.Player, logger *slog.Logger) *speech.Speaker {
	spCfg := speech.DefaultConfig()
	spCfg.Preferences = cfg.Voices
	spCfg.Locale = cfg.Locale

	sp := speech.New(voice, player, spCfg, logger)
	if err := sp.RefreshVoices(ctx); err != nil {
		logger.Warn("voice list unavailable", "error", err)
	}
	return sp
}

// Run serves until ctx ends. The loop, the status hub, the web server and
// the voice watcher run together; the first failure stops the rest.
func (a *App) Run(ctx context.Context) error {
	if a.loop == nil {
		return errors.New("app: Run called before Init")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.status.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return a.loop.Run(ctx)
	})
	g.Go(func() error {
		return a.server.Run(ctx)
	})
	g.Go(func() error {
		a.speaker.WatchVoices(ctx, a.config.VoiceRefresh)
		return nil
	})

	a.logger.Info("lookout running", "addr", a.config.Addr)
	return g.Wait()
}

// Shutdown releases everything Init created.
func (a *App) Shutdown() {
	var errs []error
	if a.camera != nil {
		errs = append(errs, a.camera.Release())
	}
	if a.speaker != nil {
		errs = append(errs, a.speaker.Close())
	}
	if a.voice != nil {
		errs = append(errs, a.voice.Close())
	}
	if a.player != nil {
		errs = append(errs, a.player.Close())
	}
	if a.analyzer != nil {
		errs = append(errs, a.analyzer.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown", "error", err)
	}
	a.logger.Info("goodbye")
}
