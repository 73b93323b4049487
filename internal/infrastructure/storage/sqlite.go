package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"MonkHerald/internal/ports"
)

const sentSchema = `
CREATE TABLE IF NOT EXISTS sent_articles (
	link TEXT PRIMARY KEY,
	sent_at TEXT NOT NULL
);`

// SentStore records delivered article URLs in SQLite. It survives restarts
// and is the pipeline's sole source of truth for deduplication.
type SentStore struct {
	db *sql.DB
}

var _ ports.SentRegistry = (*SentStore)(nil)

// OpenSentStore opens (creating if needed) the dedup database at path.
func OpenSentStore(path string) (*SentStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open dedup store: %w", err)
	}

	if _, err := db.Exec(sentSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init dedup schema: %w", err)
	}

	return &SentStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SentStore) Close() error {
	return s.db.Close()
}

// HasBeenSent reports whether the URL was ever delivered. Pure lookup.
func (s *SentStore) HasBeenSent(ctx context.Context, url string) (bool, error) {
	query, args, err := sq.Select("1").
		From("sent_articles").
		Where(sq.Eq{"link": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build lookup: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", url, err)
	}

	return true, nil
}

// MarkSent records a delivery. Inserting an already-recorded URL is a
// no-op and leaves the original timestamp untouched.
func (s *SentStore) MarkSent(ctx context.Context, url string, at time.Time) error {
	query, args, err := sq.Insert("sent_articles").
		Columns("link", "sent_at").
		Values(url, at.UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT(link) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark sent %s: %w", url, err)
	}

	return nil
}
