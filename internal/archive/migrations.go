package archive

import "database/sql"

var migrations = []Migration{
	{
		Version:     1,
		Description: "articles and runs tables",
		Up: func(tx *sql.Tx) error {
			stmts := []string{
				`CREATE TABLE IF NOT EXISTS articles (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					source TEXT NOT NULL,
					url TEXT NOT NULL,
					title TEXT NOT NULL,
					authors TEXT NOT NULL DEFAULT '[]',
					publish_date TEXT,
					body_text TEXT NOT NULL,
					summary_text TEXT NOT NULL DEFAULT '',
					keywords TEXT NOT NULL DEFAULT '[]',
					top_image_url TEXT NOT NULL DEFAULT '',
					search_keyword TEXT NOT NULL,
					feed_title TEXT NOT NULL DEFAULT '',
					feed_published_raw TEXT NOT NULL DEFAULT '',
					scraped_at TEXT NOT NULL,
					first_seen_at TEXT NOT NULL DEFAULT (datetime('now')),
					UNIQUE(source, url)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_articles_search_keyword
					ON articles(search_keyword)`,
				`CREATE INDEX IF NOT EXISTS idx_articles_scraped_at
					ON articles(scraped_at)`,
				`CREATE TABLE IF NOT EXISTS runs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					keyword TEXT NOT NULL,
					started_at TEXT NOT NULL,
					finished_at TEXT NOT NULL,
					record_count INTEGER NOT NULL,
					new_count INTEGER NOT NULL,
					source_failures TEXT NOT NULL DEFAULT '{}',
					extraction_failures TEXT NOT NULL DEFAULT '[]'
				)`,
				`CREATE INDEX IF NOT EXISTS idx_runs_started_at
					ON runs(started_at)`,
			}
			for _, stmt := range stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
}
