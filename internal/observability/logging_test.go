package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/config"
)

func TestLoggerConfigFollowsAppEnv(t *testing.T) {
	dev := loggerConfig(config.AppConfig{Env: "development"}, config.LoggerConfig{Level: "debug"})
	assert.True(t, dev.Development)
	assert.Equal(t, "console", dev.Encoding)
	assert.Nil(t, dev.Sampling)
	assert.Equal(t, zapcore.DebugLevel, dev.Level.Level())

	prod := loggerConfig(config.AppConfig{Env: "production"}, config.LoggerConfig{Level: "warn"})
	assert.False(t, prod.Development)
	assert.Equal(t, "json", prod.Encoding)
	require.NotNil(t, prod.Sampling)
	assert.Equal(t, zapcore.WarnLevel, prod.Level.Level())
}

func TestLoggerConfigUnknownLevelDefaultsToInfo(t *testing.T) {
	cfg := loggerConfig(config.AppConfig{Env: "staging"}, config.LoggerConfig{Level: "loud"})
	assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
}

func TestNewLoggerDPanicOnlyPanicsInDevelopment(t *testing.T) {
	dev, err := NewLogger(config.AppConfig{Name: "feathersup", Env: "development"}, config.LoggerConfig{Level: "error"})
	require.NoError(t, err)
	assert.Panics(t, func() { dev.DPanic("broken invariant") })

	prod, err := NewLogger(config.AppConfig{Name: "feathersup", Env: "production"}, config.LoggerConfig{Level: "fatal"})
	require.NoError(t, err)
	assert.NotPanics(t, func() { prod.DPanic("broken invariant") })
}
