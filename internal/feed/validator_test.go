package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"FeedCurator/internal/domain"
)

const journalRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
  <title>Example Journal</title>
  <description>Weekly research digest</description>
  <language>en</language>
  <item>
    <title>Ten-year statin outcomes</title>
    <link>https://doi.org/10.1000/jj.2026.1</link>
    <description>Long-term follow-up of a randomized cohort.</description>
    <dc:creator>Jane Doe</dc:creator>
    <pubDate>Mon, 05 Jan 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Editorial: screening guidelines</title>
    <link>https://doi.org/10.1000/jj.2026.2</link>
    <description>Commentary on the updated recommendations.</description>
    <dc:creator>Jane Doe</dc:creator>
    <pubDate>Mon, 12 Jan 2026 10:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestValidateJournalFeed(t *testing.T) {
	t.Parallel()

	server := serveFeed(t, journalRSS)
	v := NewValidator(server.Client(), nil)

	result := v.Validate(context.Background(), server.URL)
	if !result.Valid {
		t.Fatalf("expected valid feed, got error %q", result.Error)
	}
	if result.FeedType != domain.SourceAcademicJournal {
		t.Fatalf("expected academic-journal, got %s", result.FeedType)
	}
	if result.Title != "Example Journal" {
		t.Fatalf("unexpected title %q", result.Title)
	}
	if result.ItemCount != 2 {
		t.Fatalf("expected 2 items, got %d", result.ItemCount)
	}
	if result.LastPublished == nil {
		t.Fatal("expected lastPublished to be set")
	}
	if result.Metadata == nil || result.Metadata.Author != "Jane Doe" {
		t.Fatalf("expected metadata author Jane Doe, got %+v", result.Metadata)
	}

	if len(result.Items) != 2 {
		t.Fatalf("expected 2 parsed items, got %d", len(result.Items))
	}
	first := result.Items[0]
	if first.DOI != "10.1000/jj.2026.1" {
		t.Fatalf("unexpected DOI %q", first.DOI)
	}
	if first.Author != "Jane Doe" {
		t.Fatalf("unexpected author %q", first.Author)
	}
	if first.PublishedAt.IsZero() {
		t.Fatal("expected publishedAt to be parsed")
	}
	if first.SourceType != domain.SourceAcademicJournal {
		t.Fatalf("items should inherit the feed's source type, got %s", first.SourceType)
	}
}

func TestValidateUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	client := server.Client()
	server.Close()

	v := NewValidator(client, nil)
	result := v.Validate(context.Background(), server.URL)
	if result.Valid {
		t.Fatal("expected invalid result for unreachable feed")
	}
	if result.Error != ReasonUnreachable {
		t.Fatalf("expected %q, got %q", ReasonUnreachable, result.Error)
	}
}

func TestValidateMalformed(t *testing.T) {
	t.Parallel()

	server := serveFeed(t, "<html><body>definitely not a feed</body></html>")
	v := NewValidator(server.Client(), nil)

	result := v.Validate(context.Background(), server.URL)
	if result.Valid {
		t.Fatal("expected invalid result for malformed feed")
	}
	if result.Error != ReasonMalformed {
		t.Fatalf("expected %q, got %q", ReasonMalformed, result.Error)
	}
}

func TestValidateEmptyFeed(t *testing.T) {
	t.Parallel()

	empty := `<?xml version="1.0"?><rss version="2.0"><channel><title>Hollow</title></channel></rss>`
	server := serveFeed(t, empty)
	v := NewValidator(server.Client(), nil)

	result := v.Validate(context.Background(), server.URL)
	if result.Valid {
		t.Fatal("expected invalid result for empty feed")
	}
	if result.Error != ReasonEmpty {
		t.Fatalf("expected %q, got %q", ReasonEmpty, result.Error)
	}
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"example.org/feed.xml":         "https://example.org/feed.xml",
		"http://example.org/feed.xml":  "http://example.org/feed.xml",
		"https://example.org/feed.xml": "https://example.org/feed.xml",
		"  example.org/rss  ":          "https://example.org/rss",
		"":                             "",
	}
	for input, want := range cases {
		if got := NormalizeURL(input); got != want {
			t.Fatalf("NormalizeURL(%q) = %q, want %q", input, got, want)
		}
	}
}
