package vision

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds analyzer settings shared by every provider.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	// Prompt is the system/style instruction; Cue is the user text sent
	// next to the image.
	Prompt string
	Cue    string

	Temperature float64
	MaxTokens   int

	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option configures an analyzer.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL sets the API base URL, e.g. "http://localhost:11434/v1".
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithPrompt replaces the style instruction.
func WithPrompt(prompt string) Option {
	return func(c *Config) { c.Prompt = prompt }
}

// WithCue replaces the user text sent with the image.
func WithCue(cue string) Option {
	return func(c *Config) { c.Cue = cue }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHTTPClient overrides the HTTP client. It takes precedence over WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns short, low-temperature settings suited to
// one-line hazard descriptions.
func DefaultConfig() *Config {
	return &Config{
		Prompt:      DefaultPrompt,
		Cue:         DefaultCue,
		Temperature: 0.2,
		MaxTokens:   60,
		Timeout:     15 * time.Second,
		Logger:      slog.Default(),
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
