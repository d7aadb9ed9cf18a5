package speech

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-lookout/internal/log"
	"github.com/teslashibe/go-lookout/pkg/audio"
	"github.com/teslashibe/go-lookout/pkg/tts"
)

var testVoices = []tts.Voice{
	{ID: "de-DE-A", Name: "Anna", Locale: "de-DE"},
	{ID: "en-GB-B", Name: "Daniel", Locale: "en-GB"},
	{ID: "en-US-C", Name: "Samantha", Locale: "en-US"},
	{ID: "en-US-D", Name: "Google US English", Locale: "en_US"},
}

func TestSelectVoice(t *testing.T) {
	tests := []struct {
		name   string
		voices []tts.Voice
		prefs  []string
		locale string
		want   string
		ok     bool
	}{
		{"exact preference", testVoices, []string{"daniel"}, "en-US", "Daniel", true},
		{"preference order", testVoices, []string{"nobody", "Samantha", "Daniel"}, "", "Samantha", true},
		{"exact beats substring", testVoices, []string{"Google", "Anna"}, "", "Anna", true},
		{"substring preference", testVoices, []string{"google"}, "de-DE", "Google US English", true},
		{"locale exact", testVoices, nil, "en-GB", "Daniel", true},
		{"locale underscore", testVoices[3:], nil, "en-US", "Google US English", true},
		{"same language", testVoices, nil, "en-AU", "Daniel", true},
		{"first voice", testVoices, nil, "fr-FR", "Anna", true},
		{"no voices", nil, []string{"Daniel"}, "en-US", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := SelectVoice(tt.voices, tt.prefs, tt.locale)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, v.Name)
		})
	}
}

type voiceSource struct {
	mu     sync.Mutex
	voices []tts.Voice
}

func (v *voiceSource) set(voices []tts.Voice) {
	v.mu.Lock()
	v.voices = voices
	v.mu.Unlock()
}

func (v *voiceSource) get(ctx context.Context) ([]tts.Voice, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.voices, nil
}

func TestRefreshVoicesLateLoad(t *testing.T) {
	src := &voiceSource{}
	provider := tts.NewMock()
	provider.VoicesFunc = src.get

	cfg := DefaultConfig()
	cfg.Preferences = []string{"Samantha"}
	s := New(provider, audio.NewMock(), cfg, log.Discard())
	defer s.Close()

	require.NoError(t, s.RefreshVoices(context.Background()))
	assert.Equal(t, "", s.Voice().ID)
	noEvent(t, s, 10*time.Millisecond)

	src.set(testVoices)
	require.NoError(t, s.RefreshVoices(context.Background()))
	ev := nextEvent(t, s)
	assert.Equal(t, EventVoicesChanged, ev.Kind)
	assert.Equal(t, "Samantha", ev.Voice)
	assert.Equal(t, "en-US-C", s.Voice().ID)

	// Unchanged list: no event.
	require.NoError(t, s.RefreshVoices(context.Background()))
	noEvent(t, s, 10*time.Millisecond)

	// Preferred voice disappears: reselect by locale.
	src.set(testVoices[:2])
	require.NoError(t, s.RefreshVoices(context.Background()))
	ev = nextEvent(t, s)
	assert.Equal(t, "Daniel", ev.Voice)
	assert.Len(t, s.Voices(), 2)
}

func TestSpeakUsesSelectedVoice(t *testing.T) {
	provider := tts.NewMock()
	provider.VoicesFunc = func(ctx context.Context) ([]tts.Voice, error) { return testVoices, nil }

	s := New(provider, audio.NewMock(), DefaultConfig(), log.Discard())
	defer s.Close()
	require.NoError(t, s.RefreshVoices(context.Background()))
	nextEvent(t, s)

	s.Speak("hello")
	nextEvent(t, s)
	assert.Equal(t, "en-US-C", provider.LastCall().Voice)
}

func TestWatchVoices(t *testing.T) {
	src := &voiceSource{}
	provider := tts.NewMock()
	provider.VoicesFunc = src.get

	s := New(provider, audio.NewMock(), DefaultConfig(), log.Discard())
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.WatchVoices(ctx, 5*time.Millisecond)
		close(done)
	}()

	src.set(testVoices)
	ev := nextEvent(t, s)
	assert.Equal(t, EventVoicesChanged, ev.Kind)

	cancel()
	<-done
}
