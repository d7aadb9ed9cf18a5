package tts

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Chain implements Provider by trying multiple providers in order.
// The first successful provider wins; if all fail, returns a ChainError.
//
// Voice IDs are provider specific, so a voice is only passed to the
// provider that listed it. Fallbacks synthesize with their default voice.
type Chain struct {
	providers []Provider
	logger    *slog.Logger

	mu          sync.Mutex
	voiceSource string
}

// NewChain creates a provider chain that tries providers in order.
// At least one provider is required.
func NewChain(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Chain{
		providers:   providers,
		logger:      logger.With("component", "tts.chain"),
		voiceSource: providers[0].Name(),
	}, nil
}

// Synthesize tries each provider until one succeeds.
func (c *Chain) Synthesize(ctx context.Context, text, voice string) (*AudioResult, error) {
	c.mu.Lock()
	source := c.voiceSource
	c.mu.Unlock()

	var errs []error
	for i, p := range c.providers {
		v := ""
		if p.Name() == source {
			v = voice
		}

		result, err := p.Synthesize(ctx, text, v)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded",
					"provider", p.Name(),
					"chars", len(text),
				)
			}
			return result, nil
		}

		errs = append(errs, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("provider failed, trying next",
			"provider", p.Name(),
			"error", err,
		)
	}

	return nil, &ChainError{Errors: errs}
}

// Voices returns the voices of the first provider that can list them and
// remembers that provider as the owner of voice IDs.
func (c *Chain) Voices(ctx context.Context) ([]Voice, error) {
	var errs []error
	for _, p := range c.providers {
		lister, ok := p.(VoiceLister)
		if !ok {
			continue
		}
		voices, err := lister.Voices(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.mu.Lock()
		c.voiceSource = p.Name()
		c.mu.Unlock()
		return voices, nil
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return nil, &ChainError{Errors: errs}
}

// Name lists the chained providers, e.g. "google>espeak".
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, ">")
}

// Close closes all providers.
func (c *Chain) Close() error {
	var lastErr error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Providers returns the list of providers in the chain.
func (c *Chain) Providers() []Provider {
	return c.providers
}

var (
	_ Provider    = (*Chain)(nil)
	_ VoiceLister = (*Chain)(nil)
)
