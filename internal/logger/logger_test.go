package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	l, err := New(DefaultConfig())
	require.NoError(t, err)
	defer l.Close()

	assert.NotNil(t, l.GetZerolog())
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "shouting", Console: true})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, "info", l.GetZerolog().GetLevel().String())
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "capgate.log")
	l, err := New(Config{Level: "debug", File: path})
	require.NoError(t, err)

	l.Info().Str("capability", "echo").Msg("invoked")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"capability":"echo"`)
	assert.Contains(t, string(data), "invoked")
}

func TestNew_FileOutputRedacted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capgate.log")
	l, err := New(Config{Level: "info", File: path, Redaction: true})
	require.NoError(t, err)

	l.Info().Msg("auth with Bearer secret.token.here")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[REDACTED]")
	assert.NotContains(t, string(data), "secret.token.here")
}

func TestNew_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capgate.log")
	l, err := New(Config{Level: "warn", File: path})
	require.NoError(t, err)

	l.Debug().Msg("hidden debug line")
	l.Warn().Msg("visible warn line")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden debug line")
	assert.Contains(t, string(data), "visible warn line")
}
