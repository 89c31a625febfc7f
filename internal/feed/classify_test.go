package feed

import (
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"

	"FeedCurator/internal/domain"
)

func TestClassifyByURL(t *testing.T) {
	t.Parallel()

	empty := &gofeed.Feed{}
	cases := map[string]domain.SourceType{
		"https://www.youtube.com/feeds/videos.xml?channel_id=UC123": domain.SourceVideoChannel,
		"https://vimeo.com/channels/staff/videos/rss":               domain.SourceVideoChannel,
		"https://www.reddit.com/r/medicine/.rss":                    domain.SourceForumCommunity,
		"https://forum.example.org/latest.rss":                      domain.SourceForumCommunity,
		"https://writer.substack.com/feed":                          domain.SourceNewsletter,
		"https://blog.ghost.io/rss/":                                domain.SourceNewsletter,
		"https://www.thelancet.com/rssfeed/lancet_current.xml":      domain.SourceAcademicJournal,
		"https://arxiv.org/rss/cs.AI":                               domain.SourceAcademicJournal,
	}
	for url, want := range cases {
		if got := Classify(url, empty); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", url, got, want)
		}
	}
}

func TestClassifyPodcastByEnclosure(t *testing.T) {
	t.Parallel()

	parsed := &gofeed.Feed{
		Items: []*gofeed.Item{{
			Title: "Episode 12",
			Enclosures: []*gofeed.Enclosure{
				{URL: "https://cdn.example.org/ep12.mp3", Type: "audio/mpeg"},
			},
		}},
	}
	if got := Classify("https://example.org/feed.xml", parsed); got != domain.SourcePodcast {
		t.Fatalf("expected podcast, got %s", got)
	}
}

func TestClassifyAcademicByDOI(t *testing.T) {
	t.Parallel()

	parsed := &gofeed.Feed{
		Items: []*gofeed.Item{{
			Title: "Trial results",
			Link:  "https://doi.org/10.1056/NEJMoa2026",
		}},
	}
	if got := Classify("https://example.org/feed.xml", parsed); got != domain.SourceAcademicJournal {
		t.Fatalf("expected academic-journal, got %s", got)
	}
}

func TestClassifyBlogByRichContent(t *testing.T) {
	t.Parallel()

	parsed := &gofeed.Feed{
		Items: []*gofeed.Item{{
			Title:   "Long-form post",
			Content: strings.Repeat("substantive analysis ", 40),
		}},
	}
	if got := Classify("https://example.org/feed.xml", parsed); got != domain.SourceGenericBlog {
		t.Fatalf("expected generic-blog, got %s", got)
	}
}

func TestClassifyPodcastWinsOverRichContent(t *testing.T) {
	t.Parallel()

	parsed := &gofeed.Feed{
		Items: []*gofeed.Item{{
			Title:   "Show notes",
			Content: strings.Repeat("transcript text ", 60),
			Enclosures: []*gofeed.Enclosure{
				{URL: "https://cdn.example.org/show.mp3", Type: "audio/mpeg"},
			},
		}},
	}
	if got := Classify("https://example.org/feed.xml", parsed); got != domain.SourcePodcast {
		t.Fatalf("audio enclosure should win over body length, got %s", got)
	}
}

func TestClassifyUnknown(t *testing.T) {
	t.Parallel()

	parsed := &gofeed.Feed{
		Items: []*gofeed.Item{{Title: "Teaser", Description: "short blurb"}},
	}
	if got := Classify("https://example.org/feed.xml", parsed); got != domain.SourceUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
}

func TestExtractDOI(t *testing.T) {
	t.Parallel()

	cases := []struct {
		item *gofeed.Item
		want string
	}{
		{&gofeed.Item{Link: "https://doi.org/10.1000/abc.123"}, "10.1000/abc.123"},
		{&gofeed.Item{GUID: "10.1234/xyz.789"}, "10.1234/xyz.789"},
		{&gofeed.Item{Link: "https://example.org/post"}, ""},
	}
	for _, tc := range cases {
		if got := extractDOI(tc.item); got != tc.want {
			t.Fatalf("extractDOI(%+v) = %q, want %q", tc.item, got, tc.want)
		}
	}
}
