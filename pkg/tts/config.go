package tts

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	APIKey  string
	BaseURL string

	// Voice is the default voice when Synthesize gets none.
	Voice string
	Model string

	// Locale is used by providers that need a language code with every
	// request, and to filter voice lists.
	Locale string

	// SpeakingRate scales speech speed; 1.0 is normal.
	SpeakingRate float64

	// SampleRate is the requested output rate for PCM/WAV providers.
	SampleRate int

	// Binary is the executable used by local providers.
	Binary string

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithVoice sets the default voice.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithModel sets the model ID.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithLocale sets the language code, e.g. "en-US".
func WithLocale(locale string) Option {
	return func(c *Config) { c.Locale = locale }
}

// WithSpeakingRate sets the speed multiplier.
func WithSpeakingRate(rate float64) Option {
	return func(c *Config) { c.SpeakingRate = rate }
}

// WithSampleRate sets the requested output sample rate.
func WithSampleRate(hz int) Option {
	return func(c *Config) { c.SampleRate = hz }
}

// WithBinary sets the executable for local providers.
func WithBinary(path string) Option {
	return func(c *Config) { c.Binary = path }
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Locale:       "en-US",
		SpeakingRate: 1.1,
		SampleRate:   24000,
		Timeout:      15 * time.Second,
		MaxRetries:   1,
		RetryDelay:   200 * time.Millisecond,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
