// Package bootstrap provides dependency initialization for the video
// generation service.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/scriptsensei/videoforge/internal/catalog"
	"github.com/scriptsensei/videoforge/internal/config"
	"github.com/scriptsensei/videoforge/internal/job"
	"github.com/scriptsensei/videoforge/internal/media"
	"github.com/scriptsensei/videoforge/internal/metrics"
	"github.com/scriptsensei/videoforge/internal/pipeline"
	"github.com/scriptsensei/videoforge/internal/push"
	"github.com/scriptsensei/videoforge/internal/queue"
	"github.com/scriptsensei/videoforge/internal/ratelimit"
	"github.com/scriptsensei/videoforge/internal/script"
	"github.com/scriptsensei/videoforge/internal/server"
	"github.com/scriptsensei/videoforge/internal/stock"
	"github.com/scriptsensei/videoforge/internal/storage"
	"github.com/scriptsensei/videoforge/internal/subtitle"
	"github.com/scriptsensei/videoforge/internal/tts"
	"github.com/scriptsensei/videoforge/internal/video"
	"github.com/scriptsensei/videoforge/internal/worker"
)

// Dependencies holds every initialized component. The caller owns the
// lifecycle: start the hub, scheduler, pool and janitor, and stop them in
// reverse order on shutdown.
type Dependencies struct {
	Redis     *redis.Client
	Store     *job.RedisStore
	Queue     *queue.Queue
	Scheduler *queue.RetryScheduler
	Hub       *push.Hub
	Pool      *worker.Pool
	Janitor   *worker.Janitor
	Videos    *video.Service
	Handlers  *server.Handlers
	Registry  *prometheus.Registry
}

// NewDependencies creates and wires all components of the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr(), err)
	}

	store := job.NewRedisStore(client, cfg.JobTTL)
	q := queue.New()
	scheduler := queue.NewRetryScheduler(q, logger)
	hub := push.NewHub(logger)

	layout, err := storage.NewLocal(cfg.OutputDir, cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	synth, err := tts.NewAzureClient(cfg.AzureSpeechKey, cfg.AzureSpeechRegion)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}

	stockLibrary, err := initStock(cfg, logger)
	if err != nil {
		return nil, err
	}

	ffmpeg := media.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath)

	driver := pipeline.NewDriver(pipeline.Deps{
		Store:       store,
		Layout:      layout,
		Segmenter:   script.NewSentenceSegmenter(script.WithWordsPerSecond(cfg.WordsPerSecond)),
		Synthesizer: synth,
		Stock:       stockLibrary,
		Compositor:  ffmpeg,
		Prober:      ffmpeg,
		Subtitles:   subtitle.NewTimer(),
		Emitter:     hub,
		Logger:      logger,
	}, pipeline.WithSoftTimeout(cfg.SoftTimeout))

	pool := worker.NewPool(worker.Deps{
		Store:     store,
		Queue:     q,
		Scheduler: scheduler,
		Runner:    driver,
		Emitter:   hub,
		Logger:    logger,
	},
		worker.WithWorkers(cfg.WorkerCount),
		worker.WithHardTimeout(cfg.HardTimeout),
		worker.WithRetryCooldown(cfg.RetryCooldown),
		worker.WithStopGrace(cfg.SoftTimeout),
	)

	janitor := worker.NewJanitor(store, cfg.JobTTL, logger)

	cat := catalog.New()
	videos := video.NewService(video.Deps{
		Store:     store,
		Queue:     q,
		Limiter:   ratelimit.New(cfg.RateLimitPerHour, time.Hour),
		Catalog:   cat,
		Layout:    layout,
		Canceller: pool,
		Logger:    logger,
	})

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	return &Dependencies{
		Redis:     client,
		Store:     store,
		Queue:     q,
		Scheduler: scheduler,
		Hub:       hub,
		Pool:      pool,
		Janitor:   janitor,
		Videos:    videos,
		Handlers:  server.NewHandlers(videos, cat, store, hub, logger),
		Registry:  registry,
	}, nil
}

// initStock builds the stock footage chain from the configured providers.
// Missing API keys degrade to placeholder visuals instead of failing startup.
func initStock(cfg *config.Config, logger *slog.Logger) (*stock.Library, error) {
	var pexels *stock.PexelsClient
	if cfg.PexelsAPIKey != "" {
		c, err := stock.NewPexelsClient(cfg.PexelsAPIKey)
		if err != nil {
			return nil, fmt.Errorf("create pexels client: %w", err)
		}
		pexels = c
	}

	var pixabay *stock.PixabayClient
	if cfg.PixabayAPIKey != "" {
		c, err := stock.NewPixabayClient(cfg.PixabayAPIKey)
		if err != nil {
			return nil, fmt.Errorf("create pixabay client: %w", err)
		}
		pixabay = c
	}

	if pexels == nil && pixabay == nil {
		logger.Warn("no stock provider configured, scenes will use placeholder visuals")
	}
	return stock.NewLibrary(pexels, pixabay, cfg.StockProvider, logger), nil
}
