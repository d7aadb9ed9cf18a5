package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	t.Setenv("LOOKOUT_A", "")
	t.Setenv("LOOKOUT_B", "  beta ")

	assert.Equal(t, "beta", String("def", "LOOKOUT_A", "LOOKOUT_B"))
	assert.Equal(t, "def", String("def", "LOOKOUT_A"))
}

func TestInt(t *testing.T) {
	t.Setenv("LOOKOUT_PORT_TEST", "9090")
	assert.Equal(t, 9090, Int("LOOKOUT_PORT_TEST", 1))

	t.Setenv("LOOKOUT_PORT_TEST", "nope")
	assert.Equal(t, 1, Int("LOOKOUT_PORT_TEST", 1))
}

func TestBool(t *testing.T) {
	t.Setenv("LOOKOUT_FLAG_TEST", "true")
	assert.True(t, Bool("LOOKOUT_FLAG_TEST", false))

	t.Setenv("LOOKOUT_FLAG_TEST", "maybe")
	assert.False(t, Bool("LOOKOUT_FLAG_TEST", false))
}

func TestDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"2500", 2500 * time.Millisecond},
		{"3s", 3 * time.Second},
		{"", time.Second},
		{"soon", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOOKOUT_INTERVAL_TEST", tt.value)
			assert.Equal(t, tt.want, Duration("LOOKOUT_INTERVAL_TEST", time.Second))
		})
	}
}

func TestList(t *testing.T) {
	t.Setenv("LOOKOUT_VOICES_TEST", " Samantha, ,Google US English ")
	assert.Equal(t, []string{"Samantha", "Google US English"}, List("LOOKOUT_VOICES_TEST", nil))

	t.Setenv("LOOKOUT_VOICES_TEST", "")
	assert.Equal(t, []string{"x"}, List("LOOKOUT_VOICES_TEST", []string{"x"}))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOOKOUT_DOTENV_TEST=from-file\n"), 0o600))

	t.Setenv("LOOKOUT_DOTENV_TEST", "")
	os.Unsetenv("LOOKOUT_DOTENV_TEST")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("LOOKOUT_DOTENV_TEST"))
}
