// Package metrics exposes Prometheus collectors for the media pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_pipeline_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// External process metrics
var (
	ProcessRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_process_runs_total",
			Help: "Total number of external tool invocations by outcome",
		},
		[]string{"tool", "outcome"},
	)

	ProcessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_pipeline_process_duration_seconds",
			Help:    "External tool run time in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"tool"},
	)

	ProcessWorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_process_workers_busy",
			Help: "Number of worker slots currently running an external tool",
		},
	)
)

// Pipeline metrics
var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_operations_total",
			Help: "Total number of pipeline operations by strategy and outcome",
		},
		[]string{"operation", "strategy", "outcome"},
	)

	StrategyFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_strategy_fallbacks_total",
			Help: "Direct-path failures that switched to download-first, by error kind",
		},
		[]string{"kind"},
	)

	RetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_pipeline_retries_total",
			Help: "Total number of backoff retries",
		},
	)

	TrackedDomains = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_pipeline_tracked_domains",
			Help: "Number of domains with recorded strategy statistics",
		},
	)
)

// Download metrics
var (
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_downloads_total",
			Help: "Total number of download-first fetches by outcome",
		},
		[]string{"outcome"},
	)

	DownloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_pipeline_download_bytes_total",
			Help: "Total bytes written by download-first fetches",
		},
	)
)

// Resolver metrics
var ResolverOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "media_pipeline_resolver_outcomes_total",
		Help: "URL resolutions by resolver and outcome",
	},
	[]string{"resolver", "outcome"},
)

// Job queue metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_pipeline_jobs_total",
			Help: "Total number of finished jobs by kind and status",
		},
		[]string{"kind", "status"},
	)

	TempFilesCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_pipeline_temp_files_cleaned_total",
			Help: "Total number of stale temp files removed",
		},
	)
)

// Outcome label values
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTimeout  = "timeout"
	OutcomeFallback = "fallback"
)
