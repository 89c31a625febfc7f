// Package enrich augments ingested items with full content and a quality
// metrics bundle. Every provider call is individually fault-tolerant: a
// failure narrows the bundle instead of aborting the item.
package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/metrics"
	"FeedCurator/internal/ports"
)

// Enriched is the best-effort result for one item.
type Enriched struct {
	Item    domain.Item
	Metrics domain.QualityMetrics
}

// Deps wires all driven adapters into the orchestrator. Any of them may be
// nil; missing adapters simply produce missing signal.
type Deps struct {
	PDFs        ports.ContentFetcher
	Transcripts ports.ContentFetcher
	Biblio      ports.BibliographicProvider
	Scholarly   ports.ScholarlyGraphProvider
	Assessor    ports.QualityAssessor
	Flagger     ports.FunderFlagger
	Logger      *slog.Logger

	BatchSize  int
	BatchPause time.Duration
}

// Enricher orchestrates per-item content acquisition and metric collection.
type Enricher struct {
	deps Deps
}

// New constructs the orchestrator.
func New(deps Deps) *Enricher {
	if deps.BatchSize <= 0 {
		deps.BatchSize = 3
	}
	if deps.Flagger == nil {
		deps.Flagger = NewKeywordFlagger(nil)
	}
	return &Enricher{deps: deps}
}

// Enrich returns the item augmented with full text (when obtainable) and a
// populated metrics bundle. It never fails: a malformed item yields a
// well-formed, if minimal, bundle.
func (e *Enricher) Enrich(ctx context.Context, item domain.Item) *Enriched {
	enriched := &Enriched{Item: item}

	e.acquireContent(ctx, enriched)

	if item.SourceType == domain.SourceAcademicJournal {
		e.collectScholarlyMetrics(ctx, enriched)
	} else {
		enriched.Metrics.Bias = detectBias(e.deps.Flagger, nil, false)
	}

	e.assessContent(ctx, enriched)
	enriched.Metrics.SourceTier = sourceTier(item.SourceType)
	return enriched
}

// acquireContent fetches the full text per source type; on failure the
// excerpt stands in.
func (e *Enricher) acquireContent(ctx context.Context, enriched *Enriched) {
	item := &enriched.Item

	var fetcher ports.ContentFetcher
	var provider string
	switch item.SourceType {
	case domain.SourceAcademicJournal:
		fetcher, provider = e.deps.PDFs, "pdf"
	case domain.SourceVideoChannel, domain.SourcePodcast:
		fetcher, provider = e.deps.Transcripts, "transcript"
	default:
		// Forum and newsletter excerpts already are the full content.
		item.FullContent = item.Excerpt
		return
	}

	if fetcher == nil {
		item.FullContent = item.Excerpt
		return
	}

	text, err := fetcher.FullContent(ctx, *item)
	if err != nil || text == "" {
		e.degrade(provider, item.URL, err)
		item.FullContent = item.Excerpt
		return
	}
	item.FullContent = text
}

// collectScholarlyMetrics queries both metric providers; each call is wrapped
// so one failing provider does not block the other.
func (e *Enricher) collectScholarlyMetrics(ctx context.Context, enriched *Enriched) {
	item := enriched.Item
	bundle := &enriched.Metrics

	var funders []string
	var preprint bool

	if e.deps.Biblio != nil {
		record, err := e.deps.Biblio.Lookup(ctx, item.DOI)
		if err != nil {
			e.degrade("bibliographic", item.DOI, err)
		} else if record != nil {
			bundle.Citations.Count = record.CitationCount
			funders = record.FundingSources
			preprint = record.Preprint
		}
	}

	var authorID string
	if e.deps.Scholarly != nil {
		paper, err := e.deps.Scholarly.Paper(ctx, item.DOI)
		if err != nil {
			e.degrade("scholarly-graph", item.DOI, err)
		} else if paper != nil {
			bundle.Citations.InfluentialCount = paper.InfluentialCitations
			bundle.Citations.Velocity = paper.CitationVelocity
			authorID = paper.AuthorID
		}
	}

	if authorID != "" {
		author, err := e.deps.Scholarly.Author(ctx, authorID)
		if err != nil {
			e.degrade("scholarly-author", authorID, err)
		} else if author != nil {
			bundle.Author.HIndex = author.HIndex
			bundle.Author.CitationCount = author.CitationCount
		}
	}

	bundle.Bias = detectBias(e.deps.Flagger, funders, preprint)
}

// assessContent asks the text-generation assessor for the content-quality
// sub-scores and falls back to the deterministic baseline on any failure,
// guaranteeing a usable score even when the external API is degraded.
func (e *Enricher) assessContent(ctx context.Context, enriched *Enriched) {
	content := enriched.Item.FullContent
	if content == "" {
		content = enriched.Item.Excerpt
	}

	if e.deps.Assessor != nil {
		quality, err := e.deps.Assessor.Assess(ctx, enriched.Item.SourceType, content)
		if err == nil {
			enriched.Metrics.Content = quality
			return
		}
		e.degrade("assessor", enriched.Item.URL, err)
	}

	enriched.Metrics.Content = fallbackQuality(enriched.Item.SourceType, content)
}

// EnrichBatch processes items in fixed-size concurrent batches with a
// mandatory pause between batches, respecting the strictest provider's rate
// limit. Failures are isolated per item by construction: Enrich cannot fail.
func (e *Enricher) EnrichBatch(ctx context.Context, items []domain.Item) []*Enriched {
	results := make([]*Enriched, len(items))

	for start := 0; start < len(items); start += e.deps.BatchSize {
		end := start + e.deps.BatchSize
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = e.Enrich(ctx, items[idx])
			}(i)
		}
		wg.Wait()

		if end < len(items) && e.deps.BatchPause > 0 {
			select {
			case <-time.After(e.deps.BatchPause):
			case <-ctx.Done():
				// Remaining items still get minimal bundles so callers
				// never see holes.
				for i := end; i < len(items); i++ {
					results[i] = &Enriched{Item: items[i]}
				}
				return results
			}
		}
	}
	return results
}

func (e *Enricher) degrade(provider, subject string, err error) {
	metrics.ProviderFailuresTotal.WithLabelValues(provider).Inc()
	if e.deps.Logger != nil {
		e.deps.Logger.Debug("provider degraded to missing signal",
			"provider", provider, "subject", subject, "error", err)
	}
}

func sourceTier(sourceType domain.SourceType) int {
	switch sourceType {
	case domain.SourceAcademicJournal:
		return 1
	case domain.SourceVideoChannel, domain.SourcePodcast, domain.SourceNewsletter:
		return 2
	case domain.SourceGenericBlog:
		return 3
	default:
		return 4
	}
}
