package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/storage"
)

func newTestItemStore(t *testing.T) *ItemStore {
	t.Helper()
	db, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Items reference a catalog entry; seed the parent row.
	entry := sampleEntry("Item Parent", "https://example.org/parent.xml")
	entry.ID = "entry-1"
	require.NoError(t, NewStore(db).Save(context.Background(), entry))

	return NewItemStore(db)
}

func sampleScored() *domain.ScoredItem {
	return &domain.ScoredItem{
		Item: domain.Item{
			EntryID:     "entry-1",
			Title:       "Statin outcomes at ten years",
			URL:         "https://example.org/articles/statins",
			Excerpt:     "Long-term follow-up of...",
			DOI:         "10.1000/example.1",
			Author:      "J. Doe",
			SourceType:  domain.SourceAcademicJournal,
			PublishedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		},
		Metrics: domain.QualityMetrics{
			Citations: domain.CitationMetrics{Count: 12, InfluentialCount: 3},
			Author:    domain.AuthorMetrics{HIndex: 18},
		},
		Score: domain.ScoreBreakdown{
			Citation: 14.2,
			Author:   9.0,
			Total:    58.2,
		},
		ScoredAt: time.Now().UTC(),
	}
}

func TestSaveScoredRoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestItemStore(t)
	ctx := context.Background()

	scored := sampleScored()
	require.NoError(t, store.SaveScored(ctx, scored))
	require.NotEmpty(t, scored.Item.ID)

	got, err := store.GetByURL(ctx, "entry-1", "https://example.org/articles/statins")
	require.NoError(t, err)
	require.Equal(t, scored.Item.Title, got.Item.Title)
	require.Equal(t, scored.Item.DOI, got.Item.DOI)
	require.Equal(t, 12, got.Metrics.Citations.Count)
	require.Equal(t, 18, got.Metrics.Author.HIndex)
	require.InDelta(t, 58.2, got.Score.Total, 0.001)
	require.Equal(t, scored.Item.PublishedAt, got.Item.PublishedAt)
}

func TestSaveScoredUpsertsOnEntryAndURL(t *testing.T) {
	t.Parallel()
	store := newTestItemStore(t)
	ctx := context.Background()

	first := sampleScored()
	require.NoError(t, store.SaveScored(ctx, first))

	second := sampleScored()
	second.Score.Total = 72.4
	second.Metrics.Citations.Count = 30
	require.NoError(t, store.SaveScored(ctx, second))

	got, err := store.GetByURL(ctx, "entry-1", "https://example.org/articles/statins")
	require.NoError(t, err)
	require.Equal(t, first.Item.ID, got.Item.ID, "the original row survives a rescore")
	require.InDelta(t, 72.4, got.Score.Total, 0.001)
	require.Equal(t, 30, got.Metrics.Citations.Count)
}

func TestGetByURLNotFound(t *testing.T) {
	t.Parallel()
	store := newTestItemStore(t)

	_, err := store.GetByURL(context.Background(), "entry-1", "https://example.org/none")
	require.ErrorIs(t, err, ErrNotFound)
}
