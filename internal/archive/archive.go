// Package archive persists extracted articles and search run history
// in a local SQLite database.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the archive database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens the database at path, creating the file and parent
// directory as needed, and brings the schema up to date.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Stats summarizes the archive contents.
type Stats struct {
	TotalArticles    int
	DistinctSources  int
	DistinctKeywords int
	TotalRuns        int
}

// GetStats collects archive-wide counters.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM articles", &stats.TotalArticles},
		{"SELECT COUNT(DISTINCT source) FROM articles", &stats.DistinctSources},
		{"SELECT COUNT(DISTINCT search_keyword) FROM articles", &stats.DistinctKeywords},
		{"SELECT COUNT(*) FROM runs", &stats.TotalRuns},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("collecting stats: %w", err)
		}
	}
	return stats, nil
}
