package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, registry *prometheus.Registry, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /api/v1/videos/generate", h.GenerateVideo)
	mux.HandleFunc("GET /api/v1/videos/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/v1/videos/jobs/{id}", h.GetJob)
	mux.HandleFunc("DELETE /api/v1/videos/jobs/{id}", h.CancelJob)
	mux.HandleFunc("POST /api/v1/videos/jobs/{id}/retry", h.RetryJob)
	mux.HandleFunc("GET /api/v1/videos/jobs/{id}/download", h.DownloadVideo)
	mux.HandleFunc("GET /api/v1/videos/jobs/{id}/thumbnail", h.Thumbnail)
	mux.HandleFunc("GET /api/v1/videos/stats", h.Stats)

	mux.HandleFunc("GET /api/v1/catalog/voices", h.ListVoices)
	mux.HandleFunc("GET /api/v1/catalog/voices/{id}", h.GetVoice)
	mux.HandleFunc("GET /api/v1/catalog/avatars", h.ListAvatars)
	mux.HandleFunc("GET /api/v1/catalog/audio", h.ListAudio)
	mux.HandleFunc("GET /api/v1/catalog/media", h.ListMedia)
	mux.HandleFunc("GET /api/v1/catalog/platforms", h.ListPlatforms)
	mux.HandleFunc("GET /api/v1/catalog/platforms/{id}", h.GetPlatform)
	mux.HandleFunc("GET /api/v1/catalog/styles", h.ListVisualStyles)

	mux.HandleFunc("GET /api/v1/ws", h.Watch)

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		MetricsMiddleware(),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
