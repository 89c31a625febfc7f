package feed

import (
	"context"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/ports"
)

// Prober opportunistically checks one representative item of a freshly
// validated feed for transcript and PDF availability. The resulting flags are
// recorded on the catalog entry so later enrichment runs skip these probes.
type Prober struct {
	transcripts ports.ContentFetcher
	pdfs        ports.ContentFetcher
}

// NewProber wires the enrichment fetchers used for availability checks.
func NewProber(transcripts, pdfs ports.ContentFetcher) *Prober {
	return &Prober{transcripts: transcripts, pdfs: pdfs}
}

// Probe inspects the first parsed item and returns capability flags.
func (p *Prober) Probe(ctx context.Context, result *ValidationResult) domain.Capabilities {
	caps := domain.Capabilities{}
	if result == nil || !result.Valid || len(result.Items) == 0 {
		return caps
	}
	sample := result.Items[0]

	switch result.FeedType {
	case domain.SourceVideoChannel, domain.SourcePodcast:
		if p.transcripts != nil {
			caps.Transcript = p.transcripts.Available(ctx, sample)
		}
	case domain.SourceAcademicJournal:
		if p.pdfs != nil && sample.DOI != "" {
			caps.PDF = p.pdfs.Available(ctx, sample)
		}
	case domain.SourceForumCommunity, domain.SourceNewsletter:
		// Excerpts already carry the full post body for these platforms.
		caps.FullContent = true
	default:
		caps.FullContent = len(sample.Excerpt) >= richBodyThreshold
	}
	return caps
}
