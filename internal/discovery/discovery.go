// Package discovery generates and ranks candidate replacement URLs for
// degraded catalog entries, validating only the most promising few.
package discovery

import (
	"context"

	"FeedCurator/internal/domain"
)

// Candidate is a proposed replacement feed URL with the strategy's trust in it.
type Candidate struct {
	URL        string
	Name       string
	Confidence float64 // 0..1
	Method     string
}

// Strategy proposes candidates for one degraded entry. Strategies are ranked
// purely by the confidence they attach; the table of strategies can grow or
// be reweighted without touching the engine.
type Strategy interface {
	Name() string
	Propose(ctx context.Context, entry *domain.CatalogEntry) []Candidate
}
