package domain

import "time"

// Capabilities records which enrichment probes succeeded for an entry,
// so later runs skip expensive checks.
type Capabilities struct {
	Transcript  bool `json:"transcript"`
	PDF         bool `json:"pdf"`
	FullContent bool `json:"fullContent"`
}

// EntryMetadata is free-form descriptive state captured during validation.
type EntryMetadata struct {
	Author        string     `json:"author,omitempty"`
	Categories    []string   `json:"categories,omitempty"`
	Language      string     `json:"language,omitempty"`
	ImageURL      string     `json:"imageUrl,omitempty"`
	ItemCount     int        `json:"itemCount,omitempty"`
	LastPublished *time.Time `json:"lastPublished,omitempty"`
}

// CatalogEntry is a subscribable content source tracked for recurring ingestion.
type CatalogEntry struct {
	ID                  string
	Name                string
	URL                 string
	SourceType          SourceType
	Topics              []string
	Approved            bool
	Active              bool
	ConsecutiveFailures int
	LastFetchedAt       *time.Time
	Capabilities        Capabilities
	Metadata            EntryMetadata
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Degraded reports whether the entry has accumulated fetch failures and is a
// candidate for feed discovery.
func (e CatalogEntry) Degraded() bool {
	return e.ConsecutiveFailures > 0
}
