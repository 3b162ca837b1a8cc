// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidWorkerCount is returned when WORKER_COUNT is not positive.
	ErrInvalidWorkerCount = errors.New("config: WORKER_COUNT must be positive")
	// ErrInvalidJobTTL is returned when JOB_TTL is not positive.
	ErrInvalidJobTTL = errors.New("config: JOB_TTL must be positive")
	// ErrInvalidTimeouts is returned when the soft timeout is not below the hard timeout.
	ErrInvalidTimeouts = errors.New("config: SOFT_TIMEOUT must be below HARD_TIMEOUT")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Redis settings
	RedisHost     string `env:"REDIS_HOST, default=localhost" json:"redis_host"`
	RedisPort     int    `env:"REDIS_PORT, default=6379" json:"redis_port"`
	RedisPassword string `env:"REDIS_PASSWORD" json:"-"` // Masked in JSON
	RedisDB       int    `env:"REDIS_DB, default=0" json:"redis_db"`

	// Worker settings
	WorkerCount   int           `env:"WORKER_COUNT, default=3" json:"worker_count"`
	JobTTL        time.Duration `env:"JOB_TTL, default=24h" json:"job_ttl"`
	RetryCooldown time.Duration `env:"RETRY_COOLDOWN, default=60s" json:"retry_cooldown"`
	SoftTimeout   time.Duration `env:"SOFT_TIMEOUT, default=25m" json:"soft_timeout"`
	HardTimeout   time.Duration `env:"HARD_TIMEOUT, default=30m" json:"hard_timeout"`

	// Submission settings
	RateLimitPerHour int `env:"RATE_LIMIT_PER_HOUR, default=10" json:"rate_limit_per_hour"`

	// Storage settings
	OutputDir string `env:"OUTPUT_DIR, default=/tmp/videoforge/videos" json:"output_dir"`
	WorkDir   string `env:"WORK_DIR, default=/tmp/videoforge/work" json:"work_dir"`

	// Pipeline settings
	WordsPerSecond float64 `env:"WORDS_PER_SECOND, default=2.5" json:"words_per_second"`
	FFmpegPath     string  `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath    string  `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Collaborator credentials (opaque to the core)
	AzureSpeechKey    string `env:"AZURE_SPEECH_KEY" json:"-"` // Masked in JSON
	AzureSpeechRegion string `env:"AZURE_SPEECH_REGION, default=eastus" json:"azure_speech_region"`
	PexelsAPIKey      string `env:"PEXELS_API_KEY" json:"-"`  // Masked in JSON
	PixabayAPIKey     string `env:"PIXABAY_API_KEY" json:"-"` // Masked in JSON
	StockProvider     string `env:"STOCK_PROVIDER, default=pexels" json:"stock_provider"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// RedisAddr returns the Redis endpoint as "host:port".
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the loaded configuration is coherent.
func (c *Config) Validate() error {
	if c.WorkerCount <= 0 {
		return ErrInvalidWorkerCount
	}
	if c.JobTTL <= 0 {
		return ErrInvalidJobTTL
	}
	if c.SoftTimeout >= c.HardTimeout {
		return ErrInvalidTimeouts
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, RedisAddr: %s, RedisDB: %d, WorkerCount: %d, JobTTL: %s, RetryCooldown: %s, SoftTimeout: %s, HardTimeout: %s, RateLimitPerHour: %d, OutputDir: %s, WorkDir: %s, StockProvider: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.RedisAddr(),
		c.RedisDB,
		c.WorkerCount,
		c.JobTTL,
		c.RetryCooldown,
		c.SoftTimeout,
		c.HardTimeout,
		c.RateLimitPerHour,
		c.OutputDir,
		c.WorkDir,
		c.StockProvider,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
