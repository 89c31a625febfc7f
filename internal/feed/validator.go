package feed

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"FeedCurator/internal/domain"
)

// ValidationResult is reported synchronously to callers: a failed validation
// is a structured reason, never an error escaping to the caller.
type ValidationResult struct {
	Valid         bool                  `json:"valid"`
	FeedType      domain.SourceType     `json:"feedType,omitempty"`
	Title         string                `json:"title,omitempty"`
	Description   string                `json:"description,omitempty"`
	ItemCount     int                   `json:"itemCount,omitempty"`
	LastPublished *time.Time            `json:"lastPublished,omitempty"`
	Metadata      *domain.EntryMetadata `json:"metadata,omitempty"`
	Error         string                `json:"error,omitempty"`

	// Items carries the parsed entries for downstream ingestion; it is not
	// part of the serialized result shape.
	Items []domain.Item `json:"-"`
}

// Validation failure reasons.
const (
	ReasonUnreachable = "feed unreachable"
	ReasonMalformed   = "feed malformed"
	ReasonEmpty       = "feed has no entries"
)

// Validator fetches candidate feed URLs and parses them as syndication feeds.
type Validator struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

// NewValidator wires an HTTP client; a nil client gets a sane default timeout.
func NewValidator(client *http.Client, logger *slog.Logger) *Validator {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "FeedCurator/1.0"
	return &Validator{parser: parser, logger: logger}
}

// Validate normalizes the URL, fetches and parses the feed, classifies its
// source type, and extracts metadata. Failures are carried in the result.
func (v *Validator) Validate(ctx context.Context, rawURL string) *ValidationResult {
	feedURL := NormalizeURL(rawURL)

	parsed, err := v.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		reason := ReasonUnreachable
		if strings.Contains(err.Error(), "Failed to detect feed type") {
			reason = ReasonMalformed
		}
		v.debug("validation failed", "url", feedURL, "reason", reason, "error", err)
		return &ValidationResult{Valid: false, Error: reason}
	}

	if len(parsed.Items) == 0 {
		return &ValidationResult{Valid: false, Error: ReasonEmpty}
	}

	sourceType := Classify(feedURL, parsed)
	meta := ExtractMetadata(parsed)

	result := &ValidationResult{
		Valid:       true,
		FeedType:    sourceType,
		Title:       strings.TrimSpace(parsed.Title),
		Description: strings.TrimSpace(parsed.Description),
		ItemCount:   len(parsed.Items),
		Metadata:    &meta,
		Items:       toDomainItems(parsed, sourceType),
	}
	result.LastPublished = meta.LastPublished

	v.debug("validated feed", "url", feedURL, "type", sourceType, "items", result.ItemCount)
	return result
}

// NormalizeURL defaults the scheme to https when none is given.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if !strings.Contains(trimmed, "://") {
		return "https://" + trimmed
	}
	return trimmed
}

func toDomainItems(parsed *gofeed.Feed, sourceType domain.SourceType) []domain.Item {
	items := make([]domain.Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}

		item := domain.Item{
			Title:      strings.TrimSpace(entry.Title),
			URL:        strings.TrimSpace(entry.Link),
			SourceType: sourceType,
			DOI:        extractDOI(entry),
		}

		item.Excerpt = strings.TrimSpace(entry.Content)
		if item.Excerpt == "" {
			item.Excerpt = strings.TrimSpace(entry.Description)
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = entry.UpdatedParsed.UTC()
		}
		item.Author = entryAuthor(entry)

		items = append(items, item)
	}
	return items
}

func (v *Validator) debug(msg string, args ...any) {
	if v.logger != nil {
		v.logger.Debug(msg, args...)
	}
}
