package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/ports"
)

// ErrNotFound is returned when a catalog entry does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// Store persists feed catalog entries.
type Store struct {
	db *sqlx.DB
}

var _ ports.CatalogRepository = (*Store)(nil)

// NewStore wires a store over an opened database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Save inserts a new entry or updates an existing one, keyed by id. A zero id
// is assigned on insert.
func (s *Store) Save(ctx context.Context, entry *domain.CatalogEntry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}

	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	topics, err := json.Marshal(entry.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	capabilities, err := json.Marshal(entry.Capabilities)
	if err != nil {
		return fmt.Errorf("marshal capabilities: %w", err)
	}
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO catalog_entries (id, name, url, source_type, topics, approved, active,
            consecutive_failures, last_fetched_at, capabilities, metadata, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            url = excluded.url,
            source_type = excluded.source_type,
            topics = excluded.topics,
            approved = excluded.approved,
            active = excluded.active,
            capabilities = excluded.capabilities,
            metadata = excluded.metadata,
            updated_at = excluded.updated_at`,
		entry.ID,
		entry.Name,
		entry.URL,
		entry.SourceType,
		string(topics),
		boolToInt(entry.Approved),
		boolToInt(entry.Active),
		entry.ConsecutiveFailures,
		nullableTime(entry.LastFetchedAt),
		string(capabilities),
		string(metadata),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// GetByID fetches a catalog entry by identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	var row entryRow
	err := s.db.GetContext(ctx, &row, `SELECT `+entryColumns+` FROM catalog_entries WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return row.toDomain()
}

// ListActive returns approved, active entries ordered by name.
func (s *Store) ListActive(ctx context.Context) ([]*domain.CatalogEntry, error) {
	return s.list(ctx, sq.Eq{"active": 1, "approved": 1})
}

// ListDegraded returns active entries whose consecutive-failure counter has
// reached the given threshold; these are the discovery candidates.
func (s *Store) ListDegraded(ctx context.Context, minFailures int) ([]*domain.CatalogEntry, error) {
	return s.list(ctx, sq.And{
		sq.Eq{"active": 1},
		sq.GtOrEq{"consecutive_failures": minFailures},
	})
}

func (s *Store) list(ctx context.Context, pred any) ([]*domain.CatalogEntry, error) {
	query, args, err := sq.Select(entryColumns).
		From("catalog_entries").
		Where(pred).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	entries := make([]*domain.CatalogEntry, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RecordSuccess resets the failure counter and stamps the fetch time.
func (s *Store) RecordSuccess(ctx context.Context, id string, fetchedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE catalog_entries
         SET consecutive_failures = 0, last_fetched_at = ?, updated_at = ?
         WHERE id = ?`,
		formatTime(fetchedAt),
		formatTime(time.Now().UTC()),
		id,
	)
	if err != nil {
		return fmt.Errorf("record success: %w", err)
	}
	return nil
}

// RecordFailure increments the failure counter and deactivates (never deletes)
// the entry once the counter exceeds the threshold, preserving history for
// discovery and recovery.
func (s *Store) RecordFailure(ctx context.Context, id string, deactivateAfter int) error {
	now := formatTime(time.Now().UTC())
	_, err := s.db.ExecContext(ctx,
		`UPDATE catalog_entries
         SET consecutive_failures = consecutive_failures + 1,
             active = CASE WHEN consecutive_failures + 1 > ? THEN 0 ELSE active END,
             updated_at = ?
         WHERE id = ?`,
		deactivateAfter,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// ReplaceURL points a degraded entry at a recovered feed URL and reactivates it.
func (s *Store) ReplaceURL(ctx context.Context, id, url string) error {
	now := formatTime(time.Now().UTC())
	_, err := s.db.ExecContext(ctx,
		`UPDATE catalog_entries
         SET url = ?, active = 1, consecutive_failures = 0, updated_at = ?
         WHERE id = ?`,
		url,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("replace url: %w", err)
	}
	return nil
}

const entryColumns = "id, name, url, source_type, topics, approved, active, consecutive_failures, last_fetched_at, capabilities, metadata, created_at, updated_at"

type entryRow struct {
	ID                  string         `db:"id"`
	Name                string         `db:"name"`
	URL                 string         `db:"url"`
	SourceType          string         `db:"source_type"`
	Topics              string         `db:"topics"`
	Approved            int            `db:"approved"`
	Active              int            `db:"active"`
	ConsecutiveFailures int            `db:"consecutive_failures"`
	LastFetchedAt       sql.NullString `db:"last_fetched_at"`
	Capabilities        string         `db:"capabilities"`
	Metadata            string         `db:"metadata"`
	CreatedAt           string         `db:"created_at"`
	UpdatedAt           string         `db:"updated_at"`
}

func (r *entryRow) toDomain() (*domain.CatalogEntry, error) {
	entry := &domain.CatalogEntry{
		ID:                  r.ID,
		Name:                r.Name,
		URL:                 r.URL,
		SourceType:          domain.SourceType(r.SourceType),
		Approved:            r.Approved != 0,
		Active:              r.Active != 0,
		ConsecutiveFailures: r.ConsecutiveFailures,
	}

	if r.Topics != "" {
		if err := json.Unmarshal([]byte(r.Topics), &entry.Topics); err != nil {
			return nil, fmt.Errorf("unmarshal topics: %w", err)
		}
	}
	if r.Capabilities != "" {
		if err := json.Unmarshal([]byte(r.Capabilities), &entry.Capabilities); err != nil {
			return nil, fmt.Errorf("unmarshal capabilities: %w", err)
		}
	}
	if r.Metadata != "" {
		if err := json.Unmarshal([]byte(r.Metadata), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	if t, err := parseTime(r.CreatedAt); err == nil {
		entry.CreatedAt = t
	}
	if t, err := parseTime(r.UpdatedAt); err == nil {
		entry.UpdatedAt = t
	}
	if r.LastFetchedAt.Valid {
		if t, err := parseTime(r.LastFetchedAt.String); err == nil {
			entry.LastFetchedAt = &t
		}
	}
	return entry, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
