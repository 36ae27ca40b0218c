package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"taskapi/internal/db"
	"taskapi/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	Version string
	GinMode string

	Database db.Config

	// Requests served concurrently; the rest wait for a slot.
	MaxInFlight int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	APIRateLimit  int
	APIRateWindow time.Duration

	// Empty disables POST /shutdown.
	ShutdownSecret  string
	ShutdownTimeout time.Duration

	LogLevel string
	LogJSON  bool
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := fromEnv(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

func fromEnv(getenv func(string) string) (*Config, error) {
	env := envReader{getenv: getenv}

	cfg := &Config{
		AppPort: env.str("APP_PORT", "8080"),
		Version: env.str("APP_VERSION", "dev"),
		GinMode: env.str("GIN_MODE", "release"),
		Database: db.Config{
			URL: env.str("DATABASE_URL", "sqlite://taskapi.db"),
			Pool: db.PoolConfig{
				MaxConns:        int32(env.positive("DB_MAX_CONNS", 10)),
				MinConns:        int32(env.positive("DB_MIN_CONNS", 1)),
				MaxConnIdleTime: env.duration("DB_MAX_CONN_IDLE", 120*time.Second),
				MaxConnLifetime: env.duration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			},
		},
		MaxInFlight:     int64(env.positive("MAX_IN_FLIGHT", 100)),
		RedisAddr:       env.str("REDIS_ADDR", ""),
		RedisPassword:   env.str("REDIS_PASSWORD", ""),
		RedisDB:         env.nonNegative("REDIS_DB", 0),
		APIRateLimit:    env.positive("API_RATE_LIMIT", 100),
		APIRateWindow:   time.Duration(env.positive("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		ShutdownSecret:  env.str("SHUTDOWN_SECRET", ""),
		ShutdownTimeout: env.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        strings.ToLower(env.str("LOG_LEVEL", "info")),
	}

	switch format := strings.ToLower(env.str("LOG_FORMAT", "text")); format {
	case "json":
		cfg.LogJSON = true
	case "text":
	default:
		env.fail("LOG_FORMAT", format, "must be json or text")
	}

	if cfg.Database.Pool.MinConns > cfg.Database.Pool.MaxConns {
		env.fail("DB_MIN_CONNS", getenv("DB_MIN_CONNS"), "must not exceed DB_MAX_CONNS")
	}

	if env.err != nil {
		return nil, env.err
	}
	return cfg, nil
}

// envReader keeps the first bad variable it meets.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) fail(key, value, reason string) {
	if e.err == nil {
		e.err = fmt.Errorf("%s=%q: %s", key, value, reason)
	}
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) positive(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		e.fail(key, v, "must be a positive integer")
		return def
	}
	return n
}

func (e *envReader) nonNegative(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		e.fail(key, v, "must be a non-negative integer")
		return def
	}
	return n
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.fail(key, v, "must be a positive duration such as 30s")
		return def
	}
	return d
}
