package ports

import (
	"context"
	"time"

	"FeedCurator/internal/domain"
)

// EnqueueOptions tune how a job is scheduled.
type EnqueueOptions struct {
	Priority   int
	MaxRetries int
	RunAt      time.Time
}

// JobQueue is the enqueue surface exposed to schedulers and admin tooling.
// No direct dequeue API exists; the worker poll loop is the only consumer.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType string, payload []byte, opts EnqueueOptions) (string, error)
	GetStatus(ctx context.Context, id string) (*domain.Job, error)
}

// CatalogRepository persists feed catalog entries and their failure counters.
type CatalogRepository interface {
	Save(ctx context.Context, entry *domain.CatalogEntry) error
	GetByID(ctx context.Context, id string) (*domain.CatalogEntry, error)
	ListActive(ctx context.Context) ([]*domain.CatalogEntry, error)
	ListDegraded(ctx context.Context, minFailures int) ([]*domain.CatalogEntry, error)
	RecordSuccess(ctx context.Context, id string, fetchedAt time.Time) error
	RecordFailure(ctx context.Context, id string, deactivateAfter int) error
}

// ItemRepository persists scored items for the presentation layer.
type ItemRepository interface {
	SaveScored(ctx context.Context, scored *domain.ScoredItem) error
	GetByURL(ctx context.Context, entryID, url string) (*domain.ScoredItem, error)
}

// BibliographicRecord is the return-or-null result of a bibliographic lookup.
type BibliographicRecord struct {
	CitationCount  int
	FundingSources []string
	Preprint       bool
}

// BibliographicProvider resolves citation counts and funding sources by a
// persistent document identifier. Absence of data is not an error.
type BibliographicProvider interface {
	Lookup(ctx context.Context, doi string) (*BibliographicRecord, error)
}

// ScholarlyPaper is the scholarly-graph view of one document.
type ScholarlyPaper struct {
	InfluentialCitations int
	CitationVelocity     float64
	AuthorID             string
}

// ScholarlyAuthor carries lifetime credibility stats.
type ScholarlyAuthor struct {
	HIndex        int
	CitationCount int
}

// ScholarlyGraphProvider supplies influential-citation signals and an author
// handle for credibility lookups.
type ScholarlyGraphProvider interface {
	Paper(ctx context.Context, doi string) (*ScholarlyPaper, error)
	Author(ctx context.Context, authorID string) (*ScholarlyAuthor, error)
}

// ContentFetcher obtains full text for an item (PDF text, transcript, post body).
type ContentFetcher interface {
	FullContent(ctx context.Context, item domain.Item) (string, error)
	Available(ctx context.Context, item domain.Item) bool
}

// QualityAssessor turns item content into the four content-quality sub-scores.
type QualityAssessor interface {
	Assess(ctx context.Context, sourceType domain.SourceType, content string) (domain.ContentQuality, error)
}

// FunderFlagger decides whether a funding-source string signals a conflict of
// interest. Kept as a predicate so the lexical heuristic can be swapped for a
// smarter classifier without touching enrichment or scoring.
type FunderFlagger interface {
	Flag(funder string) bool
}
