package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Queue     QueueConfig
	Events    EventsConfig
	Telemetry TelemetryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token verification parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// QueueConfig tunes the assignment engine and its background sweeper.
type QueueConfig struct {
	RebuildFromAssignments bool
	PendingSweepSchedule   string
	PendingSweepBatch      int
	BalancerConcurrency    int
}

// EventsConfig controls where domain events are relayed.
type EventsConfig struct {
	RedisChannel string
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled    bool
	Exporter   string
	Endpoint   string
	SampleRate float64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	sampleRate, err := strconv.ParseFloat(getEnv("OTEL_SAMPLE_RATE", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "feathersup-queue"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Queue: QueueConfig{
			RebuildFromAssignments: getEnvAsBool("QUEUE_REBUILD_FROM_ASSIGNMENTS", true),
			PendingSweepSchedule:   lookupEnv("QUEUE_PENDING_SWEEP_SCHEDULE", "@every 1m"),
			PendingSweepBatch:      getEnvAsInt("QUEUE_PENDING_SWEEP_BATCH", 50),
			BalancerConcurrency:    getEnvAsInt("QUEUE_BALANCER_CONCURRENCY", 8),
		},
		Events: EventsConfig{
			RedisChannel: lookupEnv("EVENTS_REDIS_CHANNEL", "ticket-queue.events"),
		},
		Telemetry: TelemetryConfig{
			Enabled:    getEnvAsBool("OTEL_ENABLED", false),
			Exporter:   getEnv("OTEL_EXPORTER", "otlp-http"),
			Endpoint:   os.Getenv("OTEL_ENDPOINT"),
			SampleRate: sampleRate,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" && !c.App.IsDevelopment() {
		errs = append(errs, errors.New("POSTGRES_DSN is required outside development"))
	}
	if c.Queue.PendingSweepBatch <= 0 {
		errs = append(errs, fmt.Errorf("QUEUE_PENDING_SWEEP_BATCH must be positive, got %d", c.Queue.PendingSweepBatch))
	}
	if c.Queue.BalancerConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("QUEUE_BALANCER_CONCURRENCY must be positive, got %d", c.Queue.BalancerConcurrency))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must not be empty"))
	}
	switch c.Telemetry.Exporter {
	case "otlp-http", "stdout", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown OTEL_EXPORTER %q", c.Telemetry.Exporter))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsDevelopment reports whether the service runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return strings.EqualFold(a.Env, "development")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// lookupEnv is getEnv except that an explicitly empty variable is kept, so it can switch a feature off.
func lookupEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
