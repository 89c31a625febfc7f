package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcurator_jobs_enqueued_total",
			Help: "Total number of jobs enqueued",
		},
		[]string{"type"},
	)

	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcurator_jobs_completed_total",
			Help: "Total number of jobs finished by the worker",
		},
		[]string{"type", "outcome"}, // completed, retried, dead_letter
	)

	JobsReclaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedcurator_jobs_reclaimed_total",
			Help: "Total number of stale processing jobs returned to pending",
		},
	)

	RunningJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedcurator_running_jobs",
			Help: "Current number of in-flight job handlers",
		},
	)

	ProviderFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcurator_provider_failures_total",
			Help: "External provider calls that degraded to missing signal",
		},
		[]string{"provider"},
	)

	JobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcurator_job_duration_seconds",
			Help:    "Job handler execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		},
		[]string{"type"},
	)
)
