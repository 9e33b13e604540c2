package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

// ErrFeedUnavailable marks a feed that could not be downloaded or parsed.
var ErrFeedUnavailable = errors.New("feed unavailable")

// Entry is one syndicated item as it appeared in a feed. Missing fields
// stay empty strings; an entry without a link never leaves the fetcher.
type Entry struct {
	Title        string
	Summary      string // plain text, markup stripped
	Link         string
	PublishedRaw string // verbatim published string from the feed, may be empty
	FeedLabel    string
}

// Fetcher downloads and parses RSS/Atom feeds.
type Fetcher struct {
	parser  *gofeed.Parser
	retries int
}

// NewFetcher creates a Fetcher using the given HTTP client. retries is
// the number of extra attempts after a transient failure.
func NewFetcher(client *http.Client, userAgent string, retries int) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = client
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &Fetcher{parser: parser, retries: retries}
}

// Fetch downloads one feed and returns its entries in document order.
// Failures wrap ErrFeedUnavailable unless the context was cancelled, in
// which case the context error is returned as-is.
func (f *Fetcher) Fetch(ctx context.Context, label, feedURL string) ([]Entry, error) {
	parsed, err := f.parseWithRetry(ctx, feedURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrFeedUnavailable, feedURL, err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}
		entries = append(entries, Entry{
			Title:        strings.TrimSpace(item.Title),
			Summary:      FlattenHTML(itemSummary(item)),
			Link:         strings.TrimSpace(item.Link),
			PublishedRaw: item.Published,
			FeedLabel:    label,
		})
	}

	log.WithFields(log.Fields{
		"feed":    label,
		"url":     feedURL,
		"entries": len(entries),
	}).Debug("feed parsed")

	return entries, nil
}

func (f *Fetcher) parseWithRetry(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	var parsed *gofeed.Feed
	operation := func() error {
		var err error
		parsed, err = f.parser.ParseURLWithContext(feedURL, ctx)
		if err == nil {
			return nil
		}
		if retryableFeedErr(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.retries)), ctx))
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// retryableFeedErr reports whether a fetch error is worth retrying.
// Transport errors and 5xx responses can be transient; client errors
// and malformed documents will not improve.
func retryableFeedErr(err error) bool {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func itemSummary(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

// FlattenHTML reduces an HTML fragment to its visible text with
// whitespace normalized. Feed summaries routinely embed markup, which
// would otherwise leak into keyword matching.
func FlattenHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
