package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"FeedCurator/internal/catalog"
	"FeedCurator/internal/discovery"
	"FeedCurator/internal/domain"
	"FeedCurator/internal/enrich"
	"FeedCurator/internal/feed"
	"FeedCurator/internal/ports"
	"FeedCurator/internal/scoring"
)

// IngestPayload identifies the catalog entry an ingestion job works on.
type IngestPayload struct {
	EntryID string `json:"entryId"`
}

// ValidatePayload carries a candidate feed submission.
type ValidatePayload struct {
	URL    string   `json:"url"`
	Name   string   `json:"name,omitempty"`
	Topics []string `json:"topics,omitempty"`
}

// DiscoverPayload identifies the degraded entry a discovery job recovers.
type DiscoverPayload struct {
	EntryID string `json:"entryId"`
}

// PipelineDeps wires all collaborators into the orchestration pipeline.
type PipelineDeps struct {
	Catalog   *catalog.Store
	Items     ports.ItemRepository
	Validator *feed.Validator
	Prober    *feed.Prober
	Enricher  *enrich.Enricher
	Discovery *discovery.Engine
	Logger    *slog.Logger

	DeactivateAfter int
}

// Pipeline implements the ingestion-enrichment-scoring workflow as job
// handlers dispatched by the worker.
type Pipeline struct {
	catalog   *catalog.Store
	items     ports.ItemRepository
	validator *feed.Validator
	prober    *feed.Prober
	enricher  *enrich.Enricher
	discovery *discovery.Engine
	logger    *slog.Logger

	deactivateAfter int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	deactivateAfter := deps.DeactivateAfter
	if deactivateAfter <= 0 {
		deactivateAfter = 5
	}
	return &Pipeline{
		catalog:         deps.Catalog,
		items:           deps.Items,
		validator:       deps.Validator,
		prober:          deps.Prober,
		enricher:        deps.Enricher,
		discovery:       deps.Discovery,
		logger:          deps.Logger,
		deactivateAfter: deactivateAfter,
	}
}

// HandleIngest fetches a catalog entry's feed, enriches each parsed item, and
// persists the scored results. A fetch failure bumps the entry's failure
// counter and surfaces as a job failure so the worker's retry machinery runs.
// Scoring is pure and persistence upserts, so re-running after a crash is safe.
func (p *Pipeline) HandleIngest(ctx context.Context, job *domain.Job) error {
	var payload IngestPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return fmt.Errorf("decode ingest payload: %w", err)
	}

	entry, err := p.catalog.GetByID(ctx, payload.EntryID)
	if err != nil {
		return fmt.Errorf("load entry %s: %w", payload.EntryID, err)
	}

	result := p.validator.Validate(ctx, entry.URL)
	if !result.Valid {
		if recErr := p.catalog.RecordFailure(ctx, entry.ID, p.deactivateAfter); recErr != nil {
			p.logger.Error("record fetch failure", "entry", entry.ID, "error", recErr)
		}
		return fmt.Errorf("fetch feed %s: %s", entry.URL, result.Error)
	}

	if err := p.catalog.RecordSuccess(ctx, entry.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("record fetch success: %w", err)
	}

	items := result.Items
	for i := range items {
		items[i].EntryID = entry.ID
	}

	enriched := p.enricher.EnrichBatch(ctx, items)
	now := time.Now().UTC()
	for _, e := range enriched {
		breakdown := scoring.Score(e.Item, e.Metrics, now)
		scored := &domain.ScoredItem{
			Item:     e.Item,
			Metrics:  e.Metrics,
			Score:    breakdown,
			ScoredAt: now,
		}
		if err := p.items.SaveScored(ctx, scored); err != nil {
			return fmt.Errorf("persist item %s: %w", e.Item.URL, err)
		}
	}

	p.logger.Info("entry ingested", "entry", entry.Name, "items", len(items))
	return nil
}

// HandleValidate validates a submitted feed URL and registers it as a catalog
// entry with probed capability flags. Permanent validation failures complete
// the job (the structured result is the answer; retrying cannot help).
func (p *Pipeline) HandleValidate(ctx context.Context, job *domain.Job) error {
	var payload ValidatePayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return fmt.Errorf("decode validate payload: %w", err)
	}

	result := p.validator.Validate(ctx, payload.URL)
	if !result.Valid {
		p.logger.Info("submitted feed rejected", "url", payload.URL, "reason", result.Error)
		return nil
	}

	name := payload.Name
	if name == "" {
		name = result.Title
	}

	entry := &domain.CatalogEntry{
		Name:       name,
		URL:        feed.NormalizeURL(payload.URL),
		SourceType: result.FeedType,
		Topics:     payload.Topics,
		Active:     true,
	}
	if result.Metadata != nil {
		entry.Metadata = *result.Metadata
	}
	entry.Capabilities = p.prober.Probe(ctx, result)

	if err := p.catalog.Save(ctx, entry); err != nil {
		return fmt.Errorf("save entry: %w", err)
	}

	p.logger.Info("feed registered", "name", entry.Name, "type", entry.SourceType)
	return nil
}

// HandleDiscover attempts to recover a degraded entry by probing ranked
// replacement candidates. No validated candidate is a normal outcome, not a
// job failure.
func (p *Pipeline) HandleDiscover(ctx context.Context, job *domain.Job) error {
	var payload DiscoverPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return fmt.Errorf("decode discover payload: %w", err)
	}

	entry, err := p.catalog.GetByID(ctx, payload.EntryID)
	if err != nil {
		return fmt.Errorf("load entry %s: %w", payload.EntryID, err)
	}

	candidate, err := p.discovery.Discover(ctx, entry)
	if err != nil {
		return fmt.Errorf("discover for %s: %w", entry.Name, err)
	}
	if candidate == nil {
		p.logger.Info("no replacement found", "entry", entry.Name)
		return nil
	}

	if err := p.catalog.ReplaceURL(ctx, entry.ID, candidate.URL); err != nil {
		return fmt.Errorf("replace url: %w", err)
	}

	p.logger.Info("entry recovered",
		"entry", entry.Name,
		"url", candidate.URL,
		"method", candidate.Method,
		"confidence", candidate.Confidence,
	)
	return nil
}
