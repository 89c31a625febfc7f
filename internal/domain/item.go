package domain

import "time"

// Item is a single ingested content unit belonging to a catalog entry.
type Item struct {
	ID          string
	EntryID     string
	Title       string
	URL         string
	Excerpt     string
	FullContent string
	DOI         string
	Author      string
	SourceType  SourceType
	PublishedAt time.Time
	CreatedAt   time.Time
}

// ScoredItem pairs an item with the evidence bundle and the breakdown computed
// from it; the bundle is persisted alongside the score for auditability.
type ScoredItem struct {
	Item     Item
	Metrics  QualityMetrics
	Score    ScoreBreakdown
	ScoredAt time.Time
}
