package scholar

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCrossrefLookup(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/works/") {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "mailto:ops@example.org") {
			t.Errorf("polite-pool mailto missing from User-Agent: %q", ua)
		}
		fmt.Fprint(w, `{"message":{
			"is-referenced-by-count": 120,
			"subtype": "preprint",
			"funder": [{"name": "Acme Pharma"}, {"name": "  "}, {"name": "State Fund"}]
		}}`)
	}))
	t.Cleanup(server.Close)

	c := NewCrossrefClient(server.URL, "ops@example.org")
	record, err := c.Lookup(context.Background(), "10.1000/x.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}
	if record.CitationCount != 120 {
		t.Fatalf("expected 120 citations, got %d", record.CitationCount)
	}
	if !record.Preprint {
		t.Fatal("preprint subtype should set the flag")
	}
	if len(record.FundingSources) != 2 {
		t.Fatalf("blank funder names must be dropped, got %v", record.FundingSources)
	}
}

func TestCrossrefUnknownDOIIsNil(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	c := NewCrossrefClient(server.URL, "")
	record, err := c.Lookup(context.Background(), "10.1000/none")
	if err != nil {
		t.Fatalf("a 404 is missing signal, not an error: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record, got %+v", record)
	}
}

func TestCrossrefEmptyDOIShortCircuits(t *testing.T) {
	t.Parallel()

	c := NewCrossrefClient("http://127.0.0.1:1", "")
	record, err := c.Lookup(context.Background(), "")
	if err != nil || record != nil {
		t.Fatalf("empty DOI must not hit the network, got %+v, %v", record, err)
	}
}

func TestSemanticScholarPaper(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/paper/DOI:") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("missing api key header, got %q", got)
		}
		fmt.Fprint(w, `{
			"citationCount": 120,
			"influentialCitationCount": 40,
			"year": 2021,
			"authors": [{"authorId": "a1"}, {"authorId": "a2"}]
		}`)
	}))
	t.Cleanup(server.Close)

	c := NewSemanticScholarClient(server.URL, "secret")
	c.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	paper, err := c.Paper(context.Background(), "10.1000/x.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paper == nil {
		t.Fatal("expected a paper")
	}
	if paper.InfluentialCitations != 40 {
		t.Fatalf("expected 40 influential citations, got %d", paper.InfluentialCitations)
	}
	if paper.AuthorID != "a1" {
		t.Fatalf("expected the first author handle, got %q", paper.AuthorID)
	}
	// 120 citations over five years since 2021.
	if math.Abs(paper.CitationVelocity-24) > 0.001 {
		t.Fatalf("expected velocity 24, got %.3f", paper.CitationVelocity)
	}
}

func TestSemanticScholarVelocityFloorsAtOneYear(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"citationCount": 9, "influentialCitationCount": 1, "year": 2026, "authors": []}`)
	}))
	t.Cleanup(server.Close)

	c := NewSemanticScholarClient(server.URL, "")
	c.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	paper, err := c.Paper(context.Background(), "10.1000/fresh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(paper.CitationVelocity-9) > 0.001 {
		t.Fatalf("same-year papers divide by one year, got %.3f", paper.CitationVelocity)
	}
}

func TestSemanticScholarAuthor(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/author/") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"hIndex": 35, "citationCount": 20000}`)
	}))
	t.Cleanup(server.Close)

	c := NewSemanticScholarClient(server.URL, "")
	author, err := c.Author(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if author.HIndex != 35 || author.CitationCount != 20000 {
		t.Fatalf("unexpected author %+v", author)
	}
}

func TestSemanticScholarUnknownIsNil(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	c := NewSemanticScholarClient(server.URL, "")
	paper, err := c.Paper(context.Background(), "10.1000/none")
	if err != nil || paper != nil {
		t.Fatalf("404 should be nil, nil; got %+v, %v", paper, err)
	}
	author, err := c.Author(context.Background(), "nobody")
	if err != nil || author != nil {
		t.Fatalf("404 should be nil, nil; got %+v, %v", author, err)
	}
}
