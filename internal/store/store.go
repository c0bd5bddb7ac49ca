// Package store persists and serves the canonical star schema. The on-disk
// layout is one directory per table with one zstd parquet file per feed:
//
//	<root>/dim_stops/<feed_id>.parquet
//	<root>/fact_stop_events/<feed_id>.parquet
//	...
//
// The query side opens an in-memory DuckDB and exposes each table as a view
// over the partition glob, so partitions written by different ingestion runs
// are unioned by column name.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// Store is a read-only handle over one dataset directory. It is safe to
// share across concurrent queries; nothing in the query path writes.
type Store struct {
	db   *sql.DB
	root string
}

// Open builds a Store over the dataset directory. Tables with no partitions
// yet are presented as empty tables with the contract schema, so a fresh
// deployment queries cleanly instead of erroring.
func Open(root string) (*Store, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	for _, def := range tableDefs {
		pattern := filepath.Join(root, def.name, "*.parquet")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("scan %s partitions: %w", def.name, err)
		}
		if len(matches) == 0 {
			if _, err := db.Exec(def.ddl); err != nil {
				db.Close()
				return nil, fmt.Errorf("create empty %s: %w", def.name, err)
			}
			continue
		}
		q := fmt.Sprintf(
			"CREATE VIEW %s AS SELECT * FROM read_parquet('%s', union_by_name=true)",
			def.name, sqlPath(pattern),
		)
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("create %s view: %w", def.name, err)
		}
	}
	return &Store{db: db, root: root}, nil
}

// DB exposes the underlying handle for the query engine.
func (s *Store) DB() *sql.DB { return s.db }

// Root returns the dataset directory this store reads.
func (s *Store) Root() string { return s.root }

// Feeds returns the distinct feed identifiers present in the dataset.
func (s *Store) Feeds(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT feed_id FROM dim_stops ORDER BY feed_id")
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer rows.Close()
	var feeds []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		feeds = append(feeds, id)
	}
	return feeds, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
