package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	t.Setenv(EnvLevel, "")
	var buf bytes.Buffer
	logger, err := New(Test, Options{Out: &buf})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("hidden")
	logger.Warn().Str("key", "a.go").Msg("stale")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "stale")
	assert.Contains(t, buf.String(), "key=a.go")

	logger, err = New(Runtime, Options{Out: &buf, Level: "DEBUG"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	_, err = New(Runtime, Options{Out: &buf, Level: "loud"})
	assert.Error(t, err)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLevel, "error")
	t.Setenv(EnvNoColor, "1")
	var buf bytes.Buffer
	logger, err := New(Runtime, Options{Out: &buf, Level: "debug", App: "goserde"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, logger.GetLevel())

	logger.Error().Msg("boom")
	assert.Contains(t, buf.String(), "app=goserde")
	assert.NotContains(t, buf.String(), "\x1b[")
}
