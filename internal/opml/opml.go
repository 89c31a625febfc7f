// Package opml imports subscription lists by scanning outline attributes and
// enqueueing one validation attempt per extracted URL.
package opml

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/ports"
	"FeedCurator/internal/usecase"
)

// Outline is a single OPML outline node; nesting is arbitrary.
type Outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr"`
	XMLURL   string    `xml:"xmlUrl,attr"`
	Outlines []Outline `xml:"outline"`
}

type document struct {
	Body struct {
		Outlines []Outline `xml:"outline"`
	} `xml:"body"`
}

// Entry is one importable subscription extracted from the document.
type Entry struct {
	Name string
	URL  string
}

// Parse extracts every outline with an xmlUrl attribute, depth-first.
func Parse(raw []byte) ([]Entry, error) {
	var doc document
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse opml: %w", err)
	}

	var entries []Entry
	var walk func(outlines []Outline)
	walk = func(outlines []Outline) {
		for _, o := range outlines {
			if u := strings.TrimSpace(o.XMLURL); u != "" {
				name := strings.TrimSpace(o.Title)
				if name == "" {
					name = strings.TrimSpace(o.Text)
				}
				entries = append(entries, Entry{Name: name, URL: u})
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)
	return entries, nil
}

// Importer enqueues validation jobs for imported subscriptions in capped
// batches with an inter-batch delay.
type Importer struct {
	queue      ports.JobQueue
	batchSize  int
	batchDelay time.Duration
}

// NewImporter builds an importer; a zero batchSize defaults to 10.
func NewImporter(queue ports.JobQueue, batchSize int, batchDelay time.Duration) *Importer {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Importer{queue: queue, batchSize: batchSize, batchDelay: batchDelay}
}

// Import parses the raw document and enqueues one validation job per entry.
// It returns the number of jobs enqueued.
func (i *Importer) Import(ctx context.Context, raw []byte) (int, error) {
	entries, err := Parse(raw)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for idx, entry := range entries {
		if idx > 0 && idx%i.batchSize == 0 && i.batchDelay > 0 {
			select {
			case <-time.After(i.batchDelay):
			case <-ctx.Done():
				return enqueued, ctx.Err()
			}
		}

		payload, err := json.Marshal(usecase.ValidatePayload{URL: entry.URL, Name: entry.Name})
		if err != nil {
			return enqueued, fmt.Errorf("marshal payload: %w", err)
		}
		if _, err := i.queue.Enqueue(ctx, domain.JobTypeValidateFeed, payload, ports.EnqueueOptions{}); err != nil {
			return enqueued, fmt.Errorf("enqueue validation for %s: %w", entry.URL, err)
		}
		enqueued++
	}
	return enqueued, nil
}
