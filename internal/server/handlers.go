package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/scriptsensei/videoforge/internal/catalog"
	"github.com/scriptsensei/videoforge/internal/job"
	"github.com/scriptsensei/videoforge/internal/push"
	"github.com/scriptsensei/videoforge/internal/video"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *video.Service
	catalog   *catalog.Catalog
	store     job.Store
	hub       *push.Hub
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *video.Service, cat *catalog.Catalog, store job.Store, hub *push.Hub, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		catalog:   cat,
		store:     store,
		hub:       hub,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	healthy := h.store.Healthy(r.Context())
	resp := HealthResponse{Status: "ok", Redis: healthy}
	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GenerateVideo handles POST /api/v1/videos/generate requests.
func (h *Handlers) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req GenerateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	sub := video.Submission{
		UserID:          req.UserID,
		ScriptID:        req.ScriptID,
		ScriptText:      req.ScriptText,
		Locale:          req.Locale,
		Platform:        req.Platform,
		AspectRatio:     job.AspectRatio(req.AspectRatio),
		VoiceID:         req.VoiceID,
		SourceType:      job.SourceType(req.SourceType),
		PriorityLevel:   req.Priority,
		MaxRetries:      req.MaxRetries,
		DurationSeconds: req.DurationSeconds,
	}
	if req.Subtitles != nil {
		sub.Subtitles = job.SubtitlePolicy{
			Enabled:      req.Subtitles.Enabled,
			Style:        job.SubtitleStyle(req.Subtitles.Style),
			WordsPerLine: req.Subtitles.WordsPerLine,
		}
	}

	created, err := h.service.Submit(r.Context(), sub)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, GenerateVideoResponse{
		JobID:            created.ID,
		Status:           string(created.Status),
		Message:          "Video generation queued",
		EstimatedSeconds: estimateProcessing(req.DurationSeconds),
	})
}

// estimateProcessing is the rough wall-clock estimate surfaced to clients:
// twice the requested video length, with a floor for unspecified durations.
func estimateProcessing(durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 60
	}
	return 2 * durationSeconds
}

func (h *Handlers) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, video.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, video.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later", "RATE_LIMITED")
	case errors.Is(err, video.ErrShuttingDown):
		writeError(w, http.StatusServiceUnavailable, "service is shutting down", "SHUTTING_DOWN")
	default:
		h.logger.Error("failed to submit job", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to submit job", "SUBMIT_FAILED")
	}
}

// GetJob handles GET /api/v1/videos/jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	found, err := h.service.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(found))
}

// ListJobs handles GET /api/v1/videos/jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", "MISSING_USER_ID")
		return
	}
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", video.DefaultPageSize)

	jobs, err := h.service.ListByUser(r.Context(), userID, page, pageSize)
	if err != nil {
		if errors.Is(err, video.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}
		h.logger.Error("failed to list jobs",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_LIST_FAILED")
		return
	}

	resp := ListJobsResponse{Jobs: make([]JobResponse, 0, len(jobs)), Page: page, PageSize: pageSize}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CancelJob handles DELETE /api/v1/videos/jobs/{id} requests.
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	cancelled, err := h.service.Cancel(r.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
		case errors.Is(err, video.ErrInvalidState):
			writeError(w, http.StatusBadRequest, err.Error(), "ALREADY_TERMINAL")
		default:
			h.logger.Error("failed to cancel job",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to cancel job", "JOB_CANCEL_FAILED")
		}
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(cancelled))
}

// RetryJob handles POST /api/v1/videos/jobs/{id}/retry requests.
func (h *Handlers) RetryJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	retried, err := h.service.Retry(r.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
		case errors.Is(err, video.ErrInvalidState):
			writeError(w, http.StatusBadRequest, err.Error(), "NOT_RETRYABLE")
		case errors.Is(err, video.ErrShuttingDown):
			writeError(w, http.StatusServiceUnavailable, "service is shutting down", "SHUTTING_DOWN")
		default:
			h.logger.Error("failed to retry job",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to retry job", "JOB_RETRY_FAILED")
		}
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(retried))
}

// Stats handles GET /api/v1/videos/stats requests.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to collect stats", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to collect stats", "STATS_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

// DownloadVideo handles GET /api/v1/videos/jobs/{id}/download requests.
func (h *Handlers) DownloadVideo(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	path, err := h.service.VideoPath(r.Context(), jobID)
	if err != nil {
		h.writeArtifactError(w, jobID, err)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="`+jobID+`.mp4"`)
	http.ServeFile(w, r, path)
}

// Thumbnail handles GET /api/v1/videos/jobs/{id}/thumbnail requests.
func (h *Handlers) Thumbnail(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	path, err := h.service.ThumbnailPath(r.Context(), jobID)
	if err != nil {
		h.writeArtifactError(w, jobID, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

func (h *Handlers) writeArtifactError(w http.ResponseWriter, jobID string, err error) {
	switch {
	case errors.Is(err, job.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
	case errors.Is(err, video.ErrNotReady):
		writeError(w, http.StatusConflict, "video is not ready yet", "NOT_READY")
	case errors.Is(err, video.ErrGone):
		writeError(w, http.StatusGone, "artifact no longer available", "ARTIFACT_GONE")
	default:
		h.logger.Error("failed to resolve artifact",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to resolve artifact", "ARTIFACT_FAILED")
	}
}

// ListVoices handles GET /api/v1/catalog/voices requests.
func (h *Handlers) ListVoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	voices := h.catalog.ListVoices(catalog.VoiceFilter{
		Locale: q.Get("locale"),
		Gender: q.Get("gender"),
		Style:  q.Get("style"),
		Name:   q.Get("name"),
	}, queryInt(r, "limit", 0))
	writeJSON(w, http.StatusOK, map[string]any{"voices": voices})
}

// GetVoice handles GET /api/v1/catalog/voices/{id} requests.
func (h *Handlers) GetVoice(w http.ResponseWriter, r *http.Request) {
	v, err := h.catalog.VoiceByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "voice not found", "VOICE_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ListAvatars handles GET /api/v1/catalog/avatars requests.
func (h *Handlers) ListAvatars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	avatars := h.catalog.ListAvatars(catalog.AvatarFilter{
		Gender: q.Get("gender"),
		Search: q.Get("search"),
	}, queryInt(r, "limit", 0))
	writeJSON(w, http.StatusOK, map[string]any{"avatars": avatars})
}

// ListAudio handles GET /api/v1/catalog/audio requests.
func (h *Handlers) ListAudio(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tracks := h.catalog.ListAudio(catalog.AudioFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}, queryInt(r, "limit", 0))
	writeJSON(w, http.StatusOK, map[string]any{"audio": tracks})
}

// ListMedia handles GET /api/v1/catalog/media requests.
func (h *Handlers) ListMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	assets := h.catalog.ListMedia(catalog.MediaFilter{
		Type:   q.Get("type"),
		Source: q.Get("source"),
		Search: q.Get("search"),
	}, queryInt(r, "limit", 0))
	writeJSON(w, http.StatusOK, map[string]any{"media": assets})
}

// ListPlatforms handles GET /api/v1/catalog/platforms requests.
func (h *Handlers) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"platforms": h.catalog.ListPlatforms()})
}

// GetPlatform handles GET /api/v1/catalog/platforms/{id} requests.
func (h *Handlers) GetPlatform(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.PlatformByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "platform not found", "PLATFORM_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListVisualStyles handles GET /api/v1/catalog/styles requests.
func (h *Handlers) ListVisualStyles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"styles": h.catalog.ListVisualStyles()})
}

// queryInt reads an integer query parameter, falling back on absence or junk.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
