package feed

import (
	"context"
	"strings"
	"testing"

	"FeedCurator/internal/domain"
)

type staticFetcher struct {
	available bool
}

func (s staticFetcher) FullContent(context.Context, domain.Item) (string, error) { return "", nil }

func (s staticFetcher) Available(context.Context, domain.Item) bool { return s.available }

func TestProbePodcastTranscript(t *testing.T) {
	t.Parallel()

	p := NewProber(staticFetcher{available: true}, nil)
	result := &ValidationResult{
		Valid:    true,
		FeedType: domain.SourcePodcast,
		Items:    []domain.Item{{URL: "https://example.org/ep1"}},
	}
	caps := p.Probe(context.Background(), result)
	if !caps.Transcript {
		t.Fatal("expected transcript capability")
	}
	if caps.PDF || caps.FullContent {
		t.Fatalf("unexpected extra capabilities: %+v", caps)
	}
}

func TestProbeJournalNeedsDOI(t *testing.T) {
	t.Parallel()

	p := NewProber(nil, staticFetcher{available: true})
	withDOI := &ValidationResult{
		Valid:    true,
		FeedType: domain.SourceAcademicJournal,
		Items:    []domain.Item{{DOI: "10.1000/x.1"}},
	}
	if caps := p.Probe(context.Background(), withDOI); !caps.PDF {
		t.Fatal("expected PDF capability for a DOI-bearing item")
	}

	withoutDOI := &ValidationResult{
		Valid:    true,
		FeedType: domain.SourceAcademicJournal,
		Items:    []domain.Item{{}},
	}
	if caps := p.Probe(context.Background(), withoutDOI); caps.PDF {
		t.Fatal("no DOI means no PDF probe")
	}
}

func TestProbeForumAlwaysFullContent(t *testing.T) {
	t.Parallel()

	p := NewProber(nil, nil)
	result := &ValidationResult{
		Valid:    true,
		FeedType: domain.SourceForumCommunity,
		Items:    []domain.Item{{Excerpt: "short"}},
	}
	if caps := p.Probe(context.Background(), result); !caps.FullContent {
		t.Fatal("forum excerpts count as full content")
	}
}

func TestProbeBlogByExcerptLength(t *testing.T) {
	t.Parallel()

	p := NewProber(nil, nil)
	rich := &ValidationResult{
		Valid:    true,
		FeedType: domain.SourceGenericBlog,
		Items:    []domain.Item{{Excerpt: strings.Repeat("body ", 200)}},
	}
	if caps := p.Probe(context.Background(), rich); !caps.FullContent {
		t.Fatal("long excerpts count as full content")
	}

	teaser := &ValidationResult{
		Valid:    true,
		FeedType: domain.SourceGenericBlog,
		Items:    []domain.Item{{Excerpt: "teaser"}},
	}
	if caps := p.Probe(context.Background(), teaser); caps.FullContent {
		t.Fatal("teasers are not full content")
	}
}

func TestProbeInvalidResult(t *testing.T) {
	t.Parallel()

	p := NewProber(staticFetcher{available: true}, staticFetcher{available: true})
	if caps := p.Probe(context.Background(), &ValidationResult{Valid: false}); caps != (domain.Capabilities{}) {
		t.Fatalf("invalid results probe nothing, got %+v", caps)
	}
}
