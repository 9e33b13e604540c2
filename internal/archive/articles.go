package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"newshound/internal/extract"
)

// ArchivedArticle is a stored article row.
type ArchivedArticle struct {
	ID            int64
	Source        string
	URL           string
	Title         string
	Authors       []string
	PublishDate   *time.Time
	BodyText      string
	SummaryText   string
	Keywords      []string
	TopImageURL   string
	SearchKeyword string
	ScrapedAt     time.Time
	FirstSeenAt   time.Time
}

// SaveArticle stores one extracted article and returns its row id.
// Re-scraping a URL already archived for the same source reports id 0
// so callers can count genuinely new rows.
func (db *DB) SaveArticle(a *extract.Article) (int64, error) {
	var publishDate any
	if a.PublishDate != nil {
		publishDate = a.PublishDate.UTC().Format(time.RFC3339)
	}

	res, err := db.conn.Exec(`
		INSERT INTO articles (
			source, url, title, authors, publish_date, body_text,
			summary_text, keywords, top_image_url, search_keyword,
			feed_title, feed_published_raw, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SourceName, a.URL, a.Title, jsonList(a.Authors), publishDate,
		a.BodyText, a.SummaryText, jsonList(a.Keywords), a.TopImageURL,
		a.SearchKeyword, a.FeedTitle, a.FeedPublishedRaw,
		a.ScrapedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		// Article already archived for this source, which is fine.
		return 0, nil //nolint: nilerr
	}
	return res.LastInsertId()
}

// RecentArticles returns the most recently scraped rows, newest first.
func (db *DB) RecentArticles(limit int) ([]ArchivedArticle, error) {
	rows, err := db.conn.Query(`
		SELECT id, source, url, title, authors, publish_date, body_text,
			summary_text, keywords, top_image_url, search_keyword,
			scraped_at, first_seen_at
		FROM articles
		ORDER BY scraped_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []ArchivedArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// ArticlesByKeyword returns archived rows for one search keyword,
// newest first.
func (db *DB) ArticlesByKeyword(keyword string, limit int) ([]ArchivedArticle, error) {
	rows, err := db.conn.Query(`
		SELECT id, source, url, title, authors, publish_date, body_text,
			summary_text, keywords, top_image_url, search_keyword,
			scraped_at, first_seen_at
		FROM articles
		WHERE search_keyword = ?
		ORDER BY scraped_at DESC, id DESC
		LIMIT ?`, keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []ArchivedArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func scanArticle(rows *sql.Rows) (ArchivedArticle, error) {
	var (
		a           ArchivedArticle
		authors     string
		keywords    string
		publishDate sql.NullString
		scrapedAt   string
		firstSeenAt string
	)
	err := rows.Scan(
		&a.ID, &a.Source, &a.URL, &a.Title, &authors, &publishDate,
		&a.BodyText, &a.SummaryText, &keywords, &a.TopImageURL,
		&a.SearchKeyword, &scrapedAt, &firstSeenAt,
	)
	if err != nil {
		return a, fmt.Errorf("scanning article: %w", err)
	}

	if err := json.Unmarshal([]byte(authors), &a.Authors); err != nil {
		return a, fmt.Errorf("decoding authors: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &a.Keywords); err != nil {
		return a, fmt.Errorf("decoding keywords: %w", err)
	}
	if publishDate.Valid {
		if when, err := time.Parse(time.RFC3339, publishDate.String); err == nil {
			a.PublishDate = &when
		}
	}
	a.ScrapedAt, _ = time.Parse(time.RFC3339, scrapedAt)
	a.FirstSeenAt, _ = time.Parse(time.DateTime, firstSeenAt)
	return a, nil
}

// jsonList encodes a string slice, mapping nil to an empty JSON array.
func jsonList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}
