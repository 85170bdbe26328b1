// Package archive persists crawled items to a local sqlite database.
// Re-crawling the same collection upserts on the external ID, so an
// archived collection can be refreshed without duplicates.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"truthkit/pkg/paginator"
)

// Record is an archived item row.
type Record struct {
	ID         int64     `db:"id"`
	Collection string    `db:"collection"`
	ExternalID string    `db:"external_id"`
	CreatedAt  time.Time `db:"created_at"`
	Payload    string    `db:"payload"`
	ArchivedAt time.Time `db:"archived_at"`
}

// ListOpts controls record listing.
type ListOpts struct {
	Collection string
	Since      time.Time
	Limit      int
}

// Store wraps the sqlite database.
type Store struct {
	db *sqlx.DB
}

// Open opens (and migrates) the archive database at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY on concurrent upserts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveItems upserts crawled items into the named collection. The payload is
// the item's JSON encoding.
func SaveItems[T paginator.Item](ctx context.Context, s *Store, collection string, items []T) error {
	const q = `
INSERT INTO items (collection, external_id, created_at, payload, archived_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(collection, external_id) DO UPDATE SET
    payload = excluded.payload,
    archived_at = excluded.archived_at`

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode item %s: %w", item.ItemID(), err)
		}
		if _, err := tx.ExecContext(ctx, q, collection, item.ItemID(), item.ItemCreatedAt(), string(payload), now); err != nil {
			return fmt.Errorf("upsert item %s: %w", item.ItemID(), err)
		}
	}

	return tx.Commit()
}

// List returns archived records, newest first.
func (s *Store) List(ctx context.Context, opts ListOpts) ([]Record, error) {
	q := `SELECT id, collection, external_id, created_at, payload, archived_at FROM items WHERE 1=1`
	var args []interface{}

	if opts.Collection != "" {
		q += ` AND collection = ?`
		args = append(args, opts.Collection)
	}
	if !opts.Since.IsZero() {
		q += ` AND created_at >= ?`
		args = append(args, opts.Since)
	}
	q += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	var records []Record
	if err := s.db.SelectContext(ctx, &records, q, args...); err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	return records, nil
}

// Count returns the number of archived items in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM items WHERE collection = ?`, collection); err != nil {
		return 0, fmt.Errorf("count archive: %w", err)
	}
	return n, nil
}
