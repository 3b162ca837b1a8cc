// Package metrics defines the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videoforge",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "videoforge",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	JobsSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videoforge",
		Name:      "jobs_submitted_total",
		Help:      "Total jobs accepted for processing, by priority class.",
	}, []string{"priority"})

	JobsFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videoforge",
		Name:      "jobs_finished_total",
		Help:      "Total attempts that reached a terminal state, by outcome.",
	}, []string{"outcome"})

	JobRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "videoforge",
		Name:      "job_retries_total",
		Help:      "Total automatic retries scheduled after failed attempts.",
	})

	RateLimitRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "videoforge",
		Name:      "rate_limit_rejections_total",
		Help:      "Total submissions rejected by the per-user rate limit.",
	})

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "videoforge",
		Name:      "queue_depth",
		Help:      "Number of jobs currently waiting in the priority queue.",
	})

	ActiveWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "videoforge",
		Name:      "active_workers",
		Help:      "Number of workers currently running a pipeline attempt.",
	})

	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "videoforge",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 180, 600},
	}, []string{"stage"})

	AttemptDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "videoforge",
		Name:      "attempt_duration_seconds",
		Help:      "End-to-end duration of pipeline attempts in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 180, 600, 1500},
	})

	WSClientsConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "videoforge",
		Name:      "ws_clients_connected",
		Help:      "Number of currently connected websocket clients.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		JobsSubmittedTotal,
		JobsFinishedTotal,
		JobRetriesTotal,
		RateLimitRejectionsTotal,
		QueueDepth,
		ActiveWorkers,
		StageDuration,
		AttemptDuration,
		WSClientsConnected,
	)
}
