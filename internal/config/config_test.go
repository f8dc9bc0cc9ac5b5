package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("POSTGRES_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Queue.RebuildFromAssignments)
	assert.Equal(t, "@every 1m", cfg.Queue.PendingSweepSchedule)
	assert.Equal(t, 50, cfg.Queue.PendingSweepBatch)
	assert.Equal(t, 8, cfg.Queue.BalancerConcurrency)
	assert.Equal(t, "ticket-queue.events", cfg.Events.RedisChannel)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadEmptyScheduleDisablesSweeper(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("QUEUE_PENDING_SWEEP_SCHEDULE", "")
	t.Setenv("EVENTS_REDIS_CHANNEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Queue.PendingSweepSchedule)
	assert.Empty(t, cfg.Events.RedisChannel)
}

func TestLoadRejectsBadSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "often")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		App:       AppConfig{Env: "production"},
		Postgres:  PostgresConfig{DSN: "postgres://localhost/app"},
		Auth:      AuthConfig{JWTSecret: "s"},
		Queue:     QueueConfig{PendingSweepBatch: 10, BalancerConcurrency: 4},
		Telemetry: TelemetryConfig{Exporter: "none"},
	}
	require.NoError(t, valid.Validate())

	noDSN := valid
	noDSN.Postgres.DSN = ""
	assert.ErrorContains(t, noDSN.Validate(), "POSTGRES_DSN")

	noDSN.App.Env = "development"
	assert.NoError(t, noDSN.Validate())

	badBatch := valid
	badBatch.Queue.PendingSweepBatch = 0
	assert.ErrorContains(t, badBatch.Validate(), "QUEUE_PENDING_SWEEP_BATCH")

	badExporter := valid
	badExporter.Telemetry.Exporter = "zipkin"
	assert.ErrorContains(t, badExporter.Validate(), "OTEL_EXPORTER")
}
