package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the sync service

var (
	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_api_calls_total",
			Help: "Total number of API-Football calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goal_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_api_retries_total",
			Help: "Total number of API call retries",
		},
		[]string{"endpoint", "reason"},
	)

	RateLimitWaitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goal_rate_limit_waits_total",
			Help: "Total number of provider 429 waits",
		},
	)

	// Quota gate metrics
	QuotaMinuteTokens = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "goal_quota_minute_tokens",
			Help: "Tokens currently available in the minute bucket",
		},
	)

	QuotaDayTokens = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "goal_quota_day_tokens",
			Help: "Tokens currently available in the day bucket",
		},
	)

	// Batch orchestration metrics
	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_batch_items_total",
			Help: "Total number of batch items by outcome",
		},
		[]string{"outcome"},
	)

	BatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goal_batches_total",
			Help: "Total number of batches dispatched",
		},
	)

	// Job metrics
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_job_runs_total",
			Help: "Total number of job executions",
		},
		[]string{"job", "status"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goal_job_duration_seconds",
			Help:    "Duration of job executions in seconds",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600, 10800},
		},
		[]string{"job"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "goal_system_uptime_seconds",
			Help: "Service uptime in seconds",
		},
	)
)
