package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/metrics"
)

// Handler executes one job. Handlers must be idempotent: a crash between
// handler completion and the status update means the job runs again.
type Handler func(ctx context.Context, job *domain.Job) error

// WorkerConfig tunes the poll loop.
type WorkerConfig struct {
	Concurrency   int
	PollInterval  time.Duration
	Backoff       Backoff
	StaleGrace    time.Duration
	SweepInterval time.Duration
}

// Worker polls the job store and dispatches claimed jobs to registered
// handlers. All lifecycle state lives on the struct; Start and Stop bound it.
type Worker struct {
	store    *Store
	logger   *slog.Logger
	cfg      WorkerConfig
	handlers map[string]Handler

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
	slots   chan struct{}
}

// NewWorker builds a stopped worker.
func NewWorker(store *Store, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.StaleGrace <= 0 {
		cfg.StaleGrace = 15 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Worker{
		store:    store,
		logger:   logger,
		cfg:      cfg,
		handlers: map[string]Handler{},
	}
}

// Register adds or replaces the handler for a job type. Must be called before
// Start.
func (w *Worker) Register(jobType string, handler Handler) {
	w.handlers[jobType] = handler
}

// Start launches the poll loop and the stale-job sweep.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stop = make(chan struct{})
	w.slots = make(chan struct{}, w.cfg.Concurrency)
	w.mu.Unlock()

	w.logger.Info("worker started",
		"concurrency", w.cfg.Concurrency,
		"poll_interval", w.cfg.PollInterval,
	)

	w.wg.Add(2)
	go w.pollLoop(ctx)
	go w.sweepLoop(ctx)
	return nil
}

// Stop halts polling and waits for in-flight handlers to finish. There is no
// cancellation of a running handler; it runs to completion.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stop)
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("worker stopped")
}

func (w *Worker) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				// A store-level error pauses the loop for one tick
				// instead of killing the worker.
				w.logger.Error("poll loop error", "error", err)
			}
		}
	}
}

// drain claims jobs while free handler slots remain.
func (w *Worker) drain(ctx context.Context) error {
	for {
		select {
		case w.slots <- struct{}{}:
		case <-w.stop:
			return nil
		case <-ctx.Done():
			return nil
		default:
			return nil
		}

		job, err := w.store.ClaimNext(ctx, time.Now())
		if err != nil {
			<-w.slots
			return err
		}
		if job == nil {
			<-w.slots
			return nil
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-w.slots }()
			w.run(ctx, job)
		}()
	}
}

// run dispatches one claimed job; handler failures never propagate.
func (w *Worker) run(ctx context.Context, job *domain.Job) {
	logger := w.logger.With("job_id", job.ID, "job_type", job.Type)

	metrics.RunningJobs.Inc()
	defer metrics.RunningJobs.Dec()
	start := time.Now()
	defer func() {
		metrics.JobDurationSeconds.WithLabelValues(job.Type).Observe(time.Since(start).Seconds())
	}()

	handler, ok := w.handlers[job.Type]
	if !ok {
		w.fail(ctx, job, fmt.Sprintf("no handler registered for type %q", job.Type), logger)
		return
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panicked: %v", r)
			}
		}()
		return handler(ctx, job)
	}()

	if err != nil {
		w.fail(ctx, job, err.Error(), logger)
		return
	}

	if err := w.store.Complete(ctx, job.ID); err != nil {
		logger.Error("mark completed", "error", err)
		return
	}
	metrics.JobsCompletedTotal.WithLabelValues(job.Type, "completed").Inc()
	logger.Debug("job completed", "duration", time.Since(start))
}

func (w *Worker) fail(ctx context.Context, job *domain.Job, reason string, logger *slog.Logger) {
	status, err := w.store.Fail(ctx, job, reason, w.cfg.Backoff)
	if err != nil {
		logger.Error("record job failure", "error", err)
		return
	}

	switch status {
	case domain.JobDeadLetter:
		metrics.JobsCompletedTotal.WithLabelValues(job.Type, "dead_letter").Inc()
		logger.Warn("job dead-lettered", "retries", job.RetryCount+1, "reason", reason)
	default:
		metrics.JobsCompletedTotal.WithLabelValues(job.Type, "retried").Inc()
		logger.Info("job requeued", "retries", job.RetryCount+1, "reason", reason)
	}
}

func (w *Worker) sweepLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-w.cfg.StaleGrace)
			reclaimed, err := w.store.ReclaimStale(ctx, cutoff)
			if err != nil {
				w.logger.Error("stale sweep failed", "error", err)
				continue
			}
			if reclaimed > 0 {
				w.logger.Warn("reclaimed stale jobs", "count", reclaimed)
			}
		}
	}
}
