package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"FeedCurator/internal/catalog"
	"FeedCurator/internal/domain"
	"FeedCurator/internal/ports"
)

// Scheduler enqueues recurring work: ingestion jobs for active entries and
// discovery jobs for entries whose failure counter crossed the threshold.
type Scheduler struct {
	catalog *catalog.Store
	queue   ports.JobQueue
	logger  *slog.Logger

	ingestInterval    time.Duration
	recoverInterval   time.Duration
	discoverThreshold int

	stop chan struct{}
}

// NewScheduler wires the maintenance cadences.
func NewScheduler(store *catalog.Store, queue ports.JobQueue, ingestInterval, recoverInterval time.Duration, discoverThreshold int, logger *slog.Logger) *Scheduler {
	if ingestInterval <= 0 {
		ingestInterval = time.Hour
	}
	if recoverInterval <= 0 {
		recoverInterval = 6 * time.Hour
	}
	if discoverThreshold <= 0 {
		discoverThreshold = 3
	}
	return &Scheduler{
		catalog:           store,
		queue:             queue,
		logger:            logger,
		ingestInterval:    ingestInterval,
		recoverInterval:   recoverInterval,
		discoverThreshold: discoverThreshold,
	}
}

// Start launches both cadence loops; both fire once immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})

	go s.loop(ctx, s.ingestInterval, s.enqueueIngestions)
	go s.loop(ctx, s.recoverInterval, s.enqueueDiscoveries)
}

// Stop halts the cadence loops.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tick(ctx)
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) enqueueIngestions(ctx context.Context) {
	entries, err := s.catalog.ListActive(ctx)
	if err != nil {
		s.logger.Error("list active entries", "error", err)
		return
	}

	for _, entry := range entries {
		payload, _ := json.Marshal(IngestPayload{EntryID: entry.ID})
		if _, err := s.queue.Enqueue(ctx, domain.JobTypeIngestFeed, payload, ports.EnqueueOptions{}); err != nil {
			s.logger.Error("enqueue ingest", "entry", entry.ID, "error", err)
		}
	}
	s.logger.Debug("ingestion sweep enqueued", "entries", len(entries))
}

func (s *Scheduler) enqueueDiscoveries(ctx context.Context) {
	entries, err := s.catalog.ListDegraded(ctx, s.discoverThreshold)
	if err != nil {
		s.logger.Error("list degraded entries", "error", err)
		return
	}

	for _, entry := range entries {
		payload, _ := json.Marshal(DiscoverPayload{EntryID: entry.ID})
		if _, err := s.queue.Enqueue(ctx, domain.JobTypeDiscoverFeed, payload, ports.EnqueueOptions{Priority: 50}); err != nil {
			s.logger.Error("enqueue discovery", "entry", entry.ID, "error", err)
		}
	}
	if len(entries) > 0 {
		s.logger.Info("discovery sweep enqueued", "entries", len(entries))
	}
}
