package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	// OutcomeSkipped is used when a resume file yields no text.
	OutcomeSkipped = "skipped"
	// OutcomeDegraded is used when a model call failed and a default was stored.
	OutcomeDegraded = "degraded"
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
)

var (
	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobpilot_ai_requests_total",
			Help: "Total number of language model requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobpilot_ai_request_duration_seconds",
			Help:    "Duration of language model requests in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"operation"},
	)

	ResumesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobpilot_resumes_processed_total",
			Help: "Total number of resume processing runs by outcome",
		},
		[]string{"outcome"},
	)

	MatchesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobpilot_matches_scored_total",
			Help: "Total number of job/resume matches persisted by outcome",
		},
		[]string{"outcome"},
	)

	JobsSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobpilot_jobs_synced_total",
			Help: "Total number of external jobs processed by the sync by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobpilot_http_requests_total",
			Help: "Total number of HTTP API requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)
)
