package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/metrics"
	"FeedCurator/internal/ports"
)

// ErrNotFound is returned when a job identifier is unknown.
var ErrNotFound = errors.New("job not found")

// Store manages durable job persistence backed by SQLite.
type Store struct {
	db             *sqlx.DB
	defaultRetries int
}

var _ ports.JobQueue = (*Store)(nil)

// NewStore wires a store over an opened database handle.
func NewStore(db *sqlx.DB, defaultRetries int) *Store {
	if defaultRetries <= 0 {
		defaultRetries = 3
	}
	return &Store{db: db, defaultRetries: defaultRetries}
}

// Enqueue inserts a pending job and returns its identifier immediately.
func (s *Store) Enqueue(ctx context.Context, jobType string, payload []byte, opts ports.EnqueueOptions) (string, error) {
	if jobType == "" {
		return "", errors.New("job type is empty")
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = s.defaultRetries
	}
	priority := opts.Priority
	if priority == 0 {
		priority = 100
	}

	now := time.Now().UTC()
	runAt := opts.RunAt
	if runAt.IsZero() {
		runAt = now
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, type, payload, status, priority, retry_count, max_retries,
            next_run_at, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		id,
		jobType,
		string(payload),
		domain.JobPending,
		priority,
		maxRetries,
		formatTime(runAt),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}

	metrics.JobsEnqueuedTotal.WithLabelValues(jobType).Inc()
	return id, nil
}

// GetStatus fetches the current job record.
func (s *Store) GetStatus(ctx context.Context, id string) (*domain.Job, error) {
	var row jobRow
	err := s.db.GetContext(ctx, &row, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return row.toDomain(), nil
}

// ClaimNext atomically claims the single highest-priority, earliest-eligible
// pending job. It returns nil when no job is eligible. The claim itself is a
// conditional update; zero rows affected means another claimer won the race
// and the caller should simply poll again.
func (s *Store) ClaimNext(ctx context.Context, now time.Time) (*domain.Job, error) {
	var row jobRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+jobColumns+` FROM jobs
         WHERE status = ? AND next_run_at <= ?
         ORDER BY priority ASC, next_run_at ASC
         LIMIT 1`,
		domain.JobPending,
		formatTime(now.UTC()),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select claimable job: %w", err)
	}

	started := formatTime(now.UTC())
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		domain.JobProcessing,
		started,
		started,
		row.ID,
		domain.JobPending,
	)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	job := row.toDomain()
	job.Status = domain.JobProcessing
	startedAt := now.UTC()
	job.StartedAt = &startedAt
	return job, nil
}

// Complete marks a processing job as completed.
func (s *Store) Complete(ctx context.Context, id string) error {
	now := formatTime(time.Now().UTC())
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, completed_at = ?, updated_at = ?, last_error = NULL
         WHERE id = ? AND status = ?`,
		domain.JobCompleted,
		now,
		now,
		id,
		domain.JobProcessing,
	)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// Fail records a handler failure: the job either returns to pending with a
// backed-off next_run_at or, once its retry budget is spent, dead-letters.
// It reports the resulting status.
func (s *Store) Fail(ctx context.Context, job *domain.Job, reason string, backoff Backoff) (domain.JobStatus, error) {
	retries := job.RetryCount + 1
	now := time.Now().UTC()

	if retries >= job.MaxRetries {
		_, err := s.db.ExecContext(ctx,
			`UPDATE jobs SET status = ?, retry_count = ?, last_error = ?, updated_at = ? WHERE id = ?`,
			domain.JobDeadLetter,
			retries,
			reason,
			formatTime(now),
			job.ID,
		)
		if err != nil {
			return "", fmt.Errorf("dead-letter job: %w", err)
		}
		return domain.JobDeadLetter, nil
	}

	delay := backoff.Delay(retries)
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, retry_count = ?, last_error = ?, next_run_at = ?, updated_at = ?
         WHERE id = ?`,
		domain.JobPending,
		retries,
		reason,
		formatTime(now.Add(delay)),
		formatTime(now),
		job.ID,
	)
	if err != nil {
		return "", fmt.Errorf("requeue job: %w", err)
	}
	return domain.JobPending, nil
}

// ReclaimStale returns processing jobs whose claim is older than the cutoff
// back to pending. The reclaim counts as a retry so a crash-looping handler
// still exhausts its budget instead of cycling forever.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	now := formatTime(time.Now().UTC())
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs
         SET status = ?, retry_count = retry_count + 1, started_at = NULL,
             last_error = 'reclaimed from stale processing', next_run_at = ?, updated_at = ?
         WHERE status = ? AND started_at IS NOT NULL AND started_at < ?`,
		domain.JobPending,
		now,
		now,
		domain.JobProcessing,
		formatTime(cutoff.UTC()),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	reclaimed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if reclaimed > 0 {
		metrics.JobsReclaimedTotal.Add(float64(reclaimed))
	}
	return reclaimed, nil
}

// ListByStatus returns jobs in a given status, newest first, for operator
// inspection of the dead-letter set.
func (s *Store) ListByStatus(ctx context.Context, status domain.JobStatus, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []jobRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY updated_at DESC LIMIT ?`,
		status, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	result := make([]*domain.Job, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toDomain())
	}
	return result, nil
}

// RetryDeadLetter moves a dead-lettered job back to pending with a fresh
// retry budget. Manual intervention only.
func (s *Store) RetryDeadLetter(ctx context.Context, id string) error {
	now := formatTime(time.Now().UTC())
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, retry_count = 0, last_error = NULL, next_run_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		domain.JobPending,
		now,
		now,
		id,
		domain.JobDeadLetter,
	)
	if err != nil {
		return fmt.Errorf("retry dead-letter job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[domain.JobStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[domain.JobStatus]int)
	for rows.Next() {
		var status domain.JobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const jobColumns = "id, type, payload, status, priority, retry_count, max_retries, next_run_at, last_error, started_at, completed_at, created_at, updated_at"

type jobRow struct {
	ID          string         `db:"id"`
	Type        string         `db:"type"`
	Payload     string         `db:"payload"`
	Status      string         `db:"status"`
	Priority    int            `db:"priority"`
	RetryCount  int            `db:"retry_count"`
	MaxRetries  int            `db:"max_retries"`
	NextRunAt   string         `db:"next_run_at"`
	LastError   sql.NullString `db:"last_error"`
	StartedAt   sql.NullString `db:"started_at"`
	CompletedAt sql.NullString `db:"completed_at"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
}

func (r *jobRow) toDomain() *domain.Job {
	job := &domain.Job{
		ID:         r.ID,
		Type:       r.Type,
		Payload:    r.Payload,
		Status:     domain.JobStatus(r.Status),
		Priority:   r.Priority,
		RetryCount: r.RetryCount,
		MaxRetries: r.MaxRetries,
		LastError:  r.LastError.String,
	}
	if t, err := parseTime(r.NextRunAt); err == nil {
		job.NextRunAt = t
	}
	if t, err := parseTime(r.CreatedAt); err == nil {
		job.CreatedAt = t
	}
	if t, err := parseTime(r.UpdatedAt); err == nil {
		job.UpdatedAt = t
	}
	if r.StartedAt.Valid {
		if t, err := parseTime(r.StartedAt.String); err == nil {
			job.StartedAt = &t
		}
	}
	if r.CompletedAt.Valid {
		if t, err := parseTime(r.CompletedAt.String); err == nil {
			job.CompletedAt = &t
		}
	}
	return job
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
