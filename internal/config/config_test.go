package config

import (
	"bytes"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the config reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
		"WORKER_COUNT", "JOB_TTL", "RETRY_COOLDOWN", "SOFT_TIMEOUT", "HARD_TIMEOUT",
		"RATE_LIMIT_PER_HOUR",
		"OUTPUT_DIR", "WORK_DIR",
		"WORDS_PER_SECOND", "FFMPEG_PATH", "FFPROBE_PATH",
		"AZURE_SPEECH_KEY", "AZURE_SPEECH_REGION",
		"PEXELS_API_KEY", "PIXABAY_API_KEY", "STOCK_PROVIDER",
		"LOG_FORMAT", "LOG_LEVEL",
	} {
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 3, cfg.WorkerCount)
	assert.Equal(t, 24*time.Hour, cfg.JobTTL)
	assert.Equal(t, 60*time.Second, cfg.RetryCooldown)
	assert.Equal(t, 25*time.Minute, cfg.SoftTimeout)
	assert.Equal(t, 30*time.Minute, cfg.HardTimeout)
	assert.Equal(t, 10, cfg.RateLimitPerHour)
	assert.Equal(t, "/tmp/videoforge/videos", cfg.OutputDir)
	assert.Equal(t, "/tmp/videoforge/work", cfg.WorkDir)
	assert.InDelta(t, 2.5, cfg.WordsPerSecond, 0.001)
	assert.Equal(t, "pexels", cfg.StockProvider)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("WORKER_COUNT", "5")
	t.Setenv("JOB_TTL", "1h")
	t.Setenv("RETRY_COOLDOWN", "5s")
	t.Setenv("STOCK_PROVIDER", "pixabay")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr())
	assert.Equal(t, 5, cfg.WorkerCount)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	assert.Equal(t, 5*time.Second, cfg.RetryCooldown)
	assert.Equal(t, "pixabay", cfg.StockProvider)
}

func TestValidate(t *testing.T) {
	t.Run("zero workers rejected", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("WORKER_COUNT", "0")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidWorkerCount)
	})

	t.Run("non-positive TTL rejected", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JOB_TTL", "0s")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidJobTTL)
	})

	t.Run("soft timeout must be below hard", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SOFT_TIMEOUT", "30m")
		t.Setenv("HARD_TIMEOUT", "30m")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTimeouts)
	})
}

func TestString_MasksSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_PASSWORD", "super-secret")
	t.Setenv("AZURE_SPEECH_KEY", "azure-secret")
	t.Setenv("PEXELS_API_KEY", "pexels-secret")

	cfg, err := Load()
	require.NoError(t, err)

	s := cfg.String()
	assert.NotContains(t, s, "super-secret")
	assert.NotContains(t, s, "azure-secret")
	assert.NotContains(t, s, "pexels-secret")
	assert.Contains(t, s, "localhost:6379")
}

func TestNewLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		cfg := &Config{LogFormat: "json", LogLevel: "debug"}
		logger := cfg.NewLogger()
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
	})

	t.Run("text format default level", func(t *testing.T) {
		cfg := &Config{LogFormat: "text", LogLevel: "bogus"}
		logger := cfg.NewLogger()
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(t.Context(), slog.LevelInfo))
		assert.False(t, logger.Enabled(t.Context(), slog.LevelDebug))
	})
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLogLevel(in), "level %q", in)
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(handler)

	logger.Info("test message", slog.String("job_id", "vid_abc123def456"))

	out := buf.String()
	assert.Contains(t, out, "test message")
	assert.Contains(t, out, "vid_abc123def456")
}
