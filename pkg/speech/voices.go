package speech

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/teslashibe/go-lookout/pkg/tts"
)

// SelectVoice picks a voice: the first preference that names a voice
// exactly, then the first preference contained in a voice name, then a
// voice whose locale equals locale, then one sharing its language, then
// the first voice. It returns false only for an empty list.
func SelectVoice(voices []tts.Voice, prefs []string, locale string) (tts.Voice, bool) {
	if len(voices) == 0 {
		return tts.Voice{}, false
	}

	for _, p := range prefs {
		for _, v := range voices {
			if strings.EqualFold(v.Name, p) || strings.EqualFold(v.ID, p) {
				return v, true
			}
		}
	}
	for _, p := range prefs {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		for _, v := range voices {
			if strings.Contains(strings.ToLower(v.Name), p) || strings.Contains(strings.ToLower(v.ID), p) {
				return v, true
			}
		}
	}

	want := normalizeLocale(locale)
	if want != "" {
		for _, v := range voices {
			if normalizeLocale(v.Locale) == want {
				return v, true
			}
		}
		lang := language(want)
		for _, v := range voices {
			if language(normalizeLocale(v.Locale)) == lang {
				return v, true
			}
		}
	}

	return voices[0], true
}

func normalizeLocale(l string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(l), "_", "-"))
}

func language(l string) string {
	lang, _, _ := strings.Cut(l, "-")
	return lang
}

// Voice returns the selected voice. ID is empty when the provider default
// is in use.
func (s *Speaker) Voice() tts.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// Voices returns the last loaded voice list.
func (s *Speaker) Voices() []tts.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.voices)
}

// RefreshVoices reloads the provider's voice list. When the list changed
// the voice is reselected and EventVoicesChanged is emitted. Providers
// that cannot list voices are left on their default.
func (s *Speaker) RefreshVoices(ctx context.Context) error {
	lister, ok := s.provider.(tts.VoiceLister)
	if !ok {
		return nil
	}
	voices, err := lister.Voices(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sameVoices(s.voices, voices) {
		return nil
	}
	s.voices = voices
	selected, _ := SelectVoice(voices, s.cfg.Preferences, s.cfg.Locale)
	s.voice = selected

	s.logger.Info("voices changed",
		"count", len(voices),
		"selected", selected.Name,
		"locale", selected.Locale,
	)
	s.send(Event{Kind: EventVoicesChanged, Voice: selected.Name})
	return nil
}

// WatchVoices refreshes immediately and then every interval until ctx ends.
func (s *Speaker) WatchVoices(ctx context.Context, interval time.Duration) {
	if err := s.RefreshVoices(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("voice list unavailable", "error", err)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshVoices(ctx); err != nil && ctx.Err() == nil {
				s.logger.Debug("voice refresh failed", "error", err)
			}
		}
	}
}

func sameVoices(a, b []tts.Voice) bool {
	return slices.EqualFunc(a, b, func(x, y tts.Voice) bool {
		return x.ID == y.ID && x.Name == y.Name && x.Locale == y.Locale
	})
}
