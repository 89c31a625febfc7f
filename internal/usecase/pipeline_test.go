package usecase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"FeedCurator/internal/catalog"
	"FeedCurator/internal/discovery"
	"FeedCurator/internal/domain"
	"FeedCurator/internal/enrich"
	"FeedCurator/internal/feed"
	"FeedCurator/internal/ports"
	"FeedCurator/internal/storage"
)

const blogRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Example Blog</title>
<item>
  <title>First Post</title>
  <link>https://example.org/posts/1</link>
  <description>A substantial write-up.</description>
  <pubDate>Mon, 05 Jan 2026 10:00:00 GMT</pubDate>
</item>
</channel></rss>`

type fixture struct {
	db       *sqlx.DB
	catalog  *catalog.Store
	items    *catalog.ItemStore
	pipeline *Pipeline
}

func newFixture(t *testing.T, feedClient *http.Client, strategies []discovery.Strategy) *fixture {
	t.Helper()
	db, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalogStore := catalog.NewStore(db)
	itemStore := catalog.NewItemStore(db)
	validator := feed.NewValidator(feedClient, logger)
	engine := discovery.NewEngine(strategies, validator, 3, logger)

	pipeline := NewPipeline(PipelineDeps{
		Catalog:         catalogStore,
		Items:           itemStore,
		Validator:       validator,
		Prober:          feed.NewProber(nil, nil),
		Enricher:        enrich.New(enrich.Deps{Logger: logger}),
		Discovery:       engine,
		Logger:          logger,
		DeactivateAfter: 5,
	})

	return &fixture{db: db, catalog: catalogStore, items: itemStore, pipeline: pipeline}
}

func serveRSS(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func jobWithPayload(t *testing.T, payload any) *domain.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &domain.Job{ID: "j1", Payload: string(raw)}
}

func TestHandleValidateRegistersEntry(t *testing.T) {
	t.Parallel()

	server := serveRSS(t, blogRSS)
	f := newFixture(t, server.Client(), nil)
	ctx := context.Background()

	job := jobWithPayload(t, ValidatePayload{URL: server.URL, Topics: []string{"tech"}})
	require.NoError(t, f.pipeline.HandleValidate(ctx, job))

	var ids []string
	require.NoError(t, f.db.Select(&ids, `SELECT id FROM catalog_entries`))
	require.Len(t, ids, 1)

	entry, err := f.catalog.GetByID(ctx, ids[0])
	require.NoError(t, err)
	require.Equal(t, "Example Blog", entry.Name, "feed title is the default name")
	require.True(t, entry.Active)
	require.False(t, entry.Approved, "new submissions await approval")
	require.Equal(t, []string{"tech"}, entry.Topics)
	require.Equal(t, 1, entry.Metadata.ItemCount)
}

func TestHandleValidateInvalidFeedCompletes(t *testing.T) {
	t.Parallel()

	server := serveRSS(t, "<html>nope</html>")
	f := newFixture(t, server.Client(), nil)
	ctx := context.Background()

	job := jobWithPayload(t, ValidatePayload{URL: server.URL})
	require.NoError(t, f.pipeline.HandleValidate(ctx, job), "a rejected feed is a completed job, not a retryable failure")

	var count int
	require.NoError(t, f.db.Get(&count, `SELECT COUNT(1) FROM catalog_entries`))
	require.Zero(t, count)
}

func TestHandleValidateBadPayload(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	err := f.pipeline.HandleValidate(context.Background(), &domain.Job{ID: "j1", Payload: "not json"})
	require.Error(t, err)
}

func TestHandleIngestScoresItems(t *testing.T) {
	t.Parallel()

	server := serveRSS(t, blogRSS)
	f := newFixture(t, server.Client(), nil)
	ctx := context.Background()

	entry := &domain.CatalogEntry{
		Name:       "Example Blog",
		URL:        server.URL,
		SourceType: domain.SourceGenericBlog,
		Approved:   true,
		Active:     true,
	}
	require.NoError(t, f.catalog.Save(ctx, entry))

	job := jobWithPayload(t, IngestPayload{EntryID: entry.ID})
	require.NoError(t, f.pipeline.HandleIngest(ctx, job))

	scored, err := f.items.GetByURL(ctx, entry.ID, "https://example.org/posts/1")
	require.NoError(t, err)
	require.Equal(t, "First Post", scored.Item.Title)
	require.Greater(t, scored.Score.Total, 0.0)
	require.NotEmpty(t, scored.Score.Explanation)
	require.NotEmpty(t, scored.Metrics.Content.Reasoning, "fallback assessment must explain itself")

	got, err := f.catalog.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastFetchedAt)
	require.Zero(t, got.ConsecutiveFailures)
}

func TestHandleIngestFailureBumpsCounter(t *testing.T) {
	t.Parallel()

	server := serveRSS(t, blogRSS)
	client := server.Client()
	server.Close()

	f := newFixture(t, client, nil)
	ctx := context.Background()

	entry := &domain.CatalogEntry{
		Name:     "Dead Blog",
		URL:      server.URL,
		Approved: true,
		Active:   true,
	}
	require.NoError(t, f.catalog.Save(ctx, entry))

	job := jobWithPayload(t, IngestPayload{EntryID: entry.ID})
	require.Error(t, f.pipeline.HandleIngest(ctx, job), "a fetch failure must surface for the retry machinery")

	got, err := f.catalog.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.ConsecutiveFailures)
}

func TestHandleIngestUnknownEntry(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	job := jobWithPayload(t, IngestPayload{EntryID: "ghost"})
	require.Error(t, f.pipeline.HandleIngest(context.Background(), job))
}

type fixedStrategy struct {
	url string
}

func (s fixedStrategy) Name() string { return "fixed" }

func (s fixedStrategy) Propose(context.Context, *domain.CatalogEntry) []discovery.Candidate {
	return []discovery.Candidate{{URL: s.url, Confidence: 0.9, Method: "fixed"}}
}

func TestHandleDiscoverReplacesURL(t *testing.T) {
	t.Parallel()

	server := serveRSS(t, blogRSS)
	f := newFixture(t, server.Client(), []discovery.Strategy{fixedStrategy{url: server.URL}})
	ctx := context.Background()

	entry := &domain.CatalogEntry{
		Name:                "Moved Blog",
		URL:                 "https://old.example.org/feed.xml",
		Approved:            true,
		Active:              false,
		ConsecutiveFailures: 6,
	}
	require.NoError(t, f.catalog.Save(ctx, entry))

	job := jobWithPayload(t, DiscoverPayload{EntryID: entry.ID})
	require.NoError(t, f.pipeline.HandleDiscover(ctx, job))

	got, err := f.catalog.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, server.URL, got.URL)
	require.True(t, got.Active, "a recovered entry reactivates")
	require.Zero(t, got.ConsecutiveFailures)
}

func TestHandleDiscoverNoCandidateIsNormal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	ctx := context.Background()

	entry := &domain.CatalogEntry{
		Name: "Unrecoverable",
		URL:  "https://gone.example.org/feed.xml",
	}
	require.NoError(t, f.catalog.Save(ctx, entry))

	job := jobWithPayload(t, DiscoverPayload{EntryID: entry.ID})
	require.NoError(t, f.pipeline.HandleDiscover(ctx, job), "no replacement is a normal outcome")

	got, err := f.catalog.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, entry.URL, got.URL)
}

type captureQueue struct {
	types []string
}

func (q *captureQueue) Enqueue(_ context.Context, jobType string, _ []byte, _ ports.EnqueueOptions) (string, error) {
	q.types = append(q.types, jobType)
	return "job-id", nil
}

func (q *captureQueue) GetStatus(context.Context, string) (*domain.Job, error) {
	return nil, nil
}

func (q *captureQueue) count(jobType string) int {
	n := 0
	for _, t := range q.types {
		if t == jobType {
			n++
		}
	}
	return n
}

func TestSchedulerEnqueuesForActiveEntries(t *testing.T) {
	t.Parallel()

	db, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalogStore := catalog.NewStore(db)
	ctx := context.Background()

	active := &domain.CatalogEntry{Name: "Active", URL: "https://a.example.org/feed", Approved: true, Active: true}
	idle := &domain.CatalogEntry{Name: "Idle", URL: "https://b.example.org/feed", Approved: false, Active: true}
	degraded := &domain.CatalogEntry{Name: "Degraded", URL: "https://c.example.org/feed", Approved: true, Active: true, ConsecutiveFailures: 4}
	for _, e := range []*domain.CatalogEntry{active, idle, degraded} {
		require.NoError(t, catalogStore.Save(ctx, e))
	}

	queue := &captureQueue{}
	s := NewScheduler(catalogStore, queue, time.Hour, time.Hour, 3, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.enqueueIngestions(ctx)
	require.Equal(t, 2, queue.count(domain.JobTypeIngestFeed), "approved active entries get ingestion jobs")

	s.enqueueDiscoveries(ctx)
	require.Equal(t, 1, queue.count(domain.JobTypeDiscoverFeed), "only entries past the failure threshold get discovery jobs")
}
