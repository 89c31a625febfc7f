package domain

import (
	"strings"
	"time"
)

// JobStatus represents the lifecycle of a queued unit of work.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobDeadLetter JobStatus = "dead_letter"
)

// Job type tags dispatched by the worker's handler registry.
const (
	JobTypeIngestFeed   = "ingest_feed"
	JobTypeValidateFeed = "validate_feed"
	JobTypeDiscoverFeed = "discover_feed"
)

// Job is a durable unit of deferred work claimed by the polling worker.
type Job struct {
	ID          string     `db:"id"`
	Type        string     `db:"type"`
	Payload     string     `db:"payload"` // JSON string
	Status      JobStatus  `db:"status"`
	Priority    int        `db:"priority"` // lower value = more urgent
	RetryCount  int        `db:"retry_count"`
	MaxRetries  int        `db:"max_retries"`
	NextRunAt   time.Time  `db:"next_run_at"`
	LastError   string     `db:"last_error"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// IsTerminal reports whether a job can no longer change state on its own.
func (j Job) IsTerminal() bool {
	return j.Status == JobCompleted || j.Status == JobDeadLetter
}

// ParseJobStatus converts a string into a known JobStatus.
func ParseJobStatus(value string) (JobStatus, bool) {
	normalized := JobStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case JobPending, JobProcessing, JobCompleted, JobDeadLetter:
		return normalized, true
	}
	return "", false
}
