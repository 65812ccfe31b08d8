package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "not-a-level")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("HOYO_ENVIRONMENT", "production")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("HOYO_ENVIRONMENT", "development")
	assert.Equal(t, zerolog.DebugLevel, getLogLevel())
}

func TestScopedLoggers(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	InitWithWriter(&buf)

	ForGame("genshin").Info().Msg("fetched codes")
	ForComponent("notifier").Warn().Msg("webhook failed")
	LogError("store", errors.New("disk full"), "save %s", "genshin")

	out := buf.String()
	assert.Contains(t, out, "genshin")
	assert.Contains(t, out, "fetched codes")
	assert.Contains(t, out, "notifier")
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "save genshin")
}
