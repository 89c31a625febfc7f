package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/ports"
)

// ItemStore persists scored items, upserting on (entry_id, url) so repeated
// enrichment runs stay idempotent.
type ItemStore struct {
	db *sqlx.DB
}

var _ ports.ItemRepository = (*ItemStore)(nil)

// NewItemStore wires an item store over an opened database handle.
func NewItemStore(db *sqlx.DB) *ItemStore {
	return &ItemStore{db: db}
}

// SaveScored upserts the item together with its metrics bundle and breakdown.
func (s *ItemStore) SaveScored(ctx context.Context, scored *domain.ScoredItem) error {
	if scored == nil {
		return errors.New("scored item is nil")
	}

	item := &scored.Item
	if item.ID == "" {
		item.ID = uuid.NewString()
		item.CreatedAt = time.Now().UTC()
	}

	metricsJSON, err := json.Marshal(scored.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	scoreJSON, err := json.Marshal(scored.Score)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (id, entry_id, title, url, excerpt, full_content, doi, author,
            source_type, published_at, metrics, score, scored_at, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (entry_id, url) DO UPDATE SET
            title = excluded.title,
            excerpt = excluded.excerpt,
            full_content = excluded.full_content,
            doi = excluded.doi,
            author = excluded.author,
            metrics = excluded.metrics,
            score = excluded.score,
            scored_at = excluded.scored_at`,
		item.ID,
		item.EntryID,
		item.Title,
		item.URL,
		item.Excerpt,
		item.FullContent,
		item.DOI,
		item.Author,
		item.SourceType,
		nullableTimeValue(item.PublishedAt),
		string(metricsJSON),
		string(scoreJSON),
		formatTime(scored.ScoredAt),
		formatTime(item.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// GetByURL fetches a scored item by its owning entry and URL.
func (s *ItemStore) GetByURL(ctx context.Context, entryID, url string) (*domain.ScoredItem, error) {
	var row itemRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+itemColumns+` FROM items WHERE entry_id = ? AND url = ?`, entryID, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return row.toDomain()
}

const itemColumns = "id, entry_id, title, url, excerpt, full_content, doi, author, source_type, published_at, metrics, score, scored_at, created_at"

type itemRow struct {
	ID          string         `db:"id"`
	EntryID     string         `db:"entry_id"`
	Title       string         `db:"title"`
	URL         string         `db:"url"`
	Excerpt     string         `db:"excerpt"`
	FullContent string         `db:"full_content"`
	DOI         string         `db:"doi"`
	Author      string         `db:"author"`
	SourceType  string         `db:"source_type"`
	PublishedAt sql.NullString `db:"published_at"`
	Metrics     string         `db:"metrics"`
	Score       string         `db:"score"`
	ScoredAt    sql.NullString `db:"scored_at"`
	CreatedAt   string         `db:"created_at"`
}

func (r *itemRow) toDomain() (*domain.ScoredItem, error) {
	scored := &domain.ScoredItem{
		Item: domain.Item{
			ID:          r.ID,
			EntryID:     r.EntryID,
			Title:       r.Title,
			URL:         r.URL,
			Excerpt:     r.Excerpt,
			FullContent: r.FullContent,
			DOI:         r.DOI,
			Author:      r.Author,
			SourceType:  domain.SourceType(r.SourceType),
		},
	}

	if r.Metrics != "" {
		if err := json.Unmarshal([]byte(r.Metrics), &scored.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	if r.Score != "" {
		if err := json.Unmarshal([]byte(r.Score), &scored.Score); err != nil {
			return nil, fmt.Errorf("unmarshal score: %w", err)
		}
	}

	if r.PublishedAt.Valid {
		if t, err := parseTime(r.PublishedAt.String); err == nil {
			scored.Item.PublishedAt = t
		}
	}
	if r.ScoredAt.Valid {
		if t, err := parseTime(r.ScoredAt.String); err == nil {
			scored.ScoredAt = t
		}
	}
	if t, err := parseTime(r.CreatedAt); err == nil {
		scored.Item.CreatedAt = t
	}
	return scored, nil
}

func nullableTimeValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}
