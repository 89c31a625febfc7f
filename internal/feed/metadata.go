package feed

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"FeedCurator/internal/domain"
)

// categorySampleSize bounds how many entries contribute category tags.
const categorySampleSize = 10

// authorSampleSize bounds the majority vote over per-entry authors.
const authorSampleSize = 10

// ExtractMetadata pulls author, categories, language and image data from a
// parsed feed, preferring feed-level fields over entry-level ones.
func ExtractMetadata(parsed *gofeed.Feed) domain.EntryMetadata {
	meta := domain.EntryMetadata{
		Author:     feedAuthor(parsed),
		Categories: mergeCategories(parsed),
		Language:   strings.TrimSpace(parsed.Language),
		ItemCount:  len(parsed.Items),
	}

	if parsed.Image != nil {
		meta.ImageURL = strings.TrimSpace(parsed.Image.URL)
	}

	if last := lastPublished(parsed); !last.IsZero() {
		utc := last.UTC()
		meta.LastPublished = &utc
	}
	return meta
}

// feedAuthor prefers the feed-level author and falls back to a majority vote
// across the most recent entries' authors, ties broken by first-seen order.
func feedAuthor(parsed *gofeed.Feed) string {
	if parsed.Author != nil {
		if name := strings.TrimSpace(parsed.Author.Name); name != "" {
			return name
		}
	}
	for _, a := range parsed.Authors {
		if a != nil {
			if name := strings.TrimSpace(a.Name); name != "" {
				return name
			}
		}
	}

	counts := map[string]int{}
	var order []string
	for i, item := range parsed.Items {
		if i >= authorSampleSize || item == nil {
			break
		}
		name := entryAuthor(item)
		if name == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	best := ""
	bestCount := 0
	for _, name := range order {
		if counts[name] > bestCount {
			best = name
			bestCount = counts[name]
		}
	}
	return best
}

func entryAuthor(item *gofeed.Item) string {
	if item.Author != nil {
		if name := strings.TrimSpace(item.Author.Name); name != "" {
			return name
		}
	}
	for _, a := range item.Authors {
		if a != nil {
			if name := strings.TrimSpace(a.Name); name != "" {
				return name
			}
		}
	}
	return ""
}

// mergeCategories unions feed-level tags with a bounded sample of entry-level
// tags, deduplicated case-insensitively in first-seen order.
func mergeCategories(parsed *gofeed.Feed) []string {
	seen := map[string]struct{}{}
	var merged []string

	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		merged = append(merged, tag)
	}

	for _, tag := range parsed.Categories {
		add(tag)
	}
	for i, item := range parsed.Items {
		if i >= categorySampleSize || item == nil {
			break
		}
		for _, tag := range item.Categories {
			add(tag)
		}
	}
	return merged
}

func lastPublished(parsed *gofeed.Feed) time.Time {
	var last time.Time
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		ts := item.PublishedParsed
		if ts == nil {
			ts = item.UpdatedParsed
		}
		if ts != nil && ts.After(last) {
			last = *ts
		}
	}
	return last
}
