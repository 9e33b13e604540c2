// Package ingest coordinates feed fetching, keyword matching and
// article extraction across many news sources, bounding concurrency at
// both the source and the article level.
package ingest

import (
	"context"
	"time"

	"newshound/internal/extract"
	"newshound/internal/feed"
)

// ExtractionFailure records one article that could not be extracted.
type ExtractionFailure struct {
	URL    string `json:"url"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// SourceResult is the outcome of searching a single source. Err is set
// only when the source as a whole produced nothing usable; a source
// that contributed records never carries an error.
type SourceResult struct {
	Source   string
	Records  []extract.Article
	Failures []ExtractionFailure
	Err      error
}

// RunResult aggregates a full search across all configured sources.
// Records keep source configuration order, and entry order within each
// source. A run interrupted by cancellation still yields a RunResult
// with everything gathered so far.
type RunResult struct {
	Keyword            string
	Records            []extract.Article
	SourceFailures     map[string]string
	ExtractionFailures []ExtractionFailure
	StartedAt          time.Time
	FinishedAt         time.Time
}

// Fetcher retrieves the entries of one feed.
type Fetcher interface {
	Fetch(ctx context.Context, label, feedURL string) ([]feed.Entry, error)
}

// Extractor turns an article URL into a full Article.
type Extractor interface {
	Extract(ctx context.Context, pageURL, feedPublishedRaw string) (*extract.Article, error)
}
