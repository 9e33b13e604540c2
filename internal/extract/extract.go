package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/cenkalti/backoff/v4"
	readability "github.com/go-shiori/go-readability"
	log "github.com/sirupsen/logrus"
)

// Article is a fully extracted news article with its feed provenance.
// Immutable once returned from Extract; the caller owns it.
type Article struct {
	URL              string     `json:"url"`
	Title            string     `json:"title"`
	Authors          []string   `json:"authors"`
	PublishDate      *time.Time `json:"publish_date"`
	BodyText         string     `json:"body_text"`
	SummaryText      string     `json:"summary_text"`
	Keywords         []string   `json:"keywords"`
	TopImageURL      string     `json:"top_image_url,omitempty"`
	SourceName       string     `json:"source_name"`
	SearchKeyword    string     `json:"search_keyword"`
	FeedTitle        string     `json:"feed_title"`
	FeedPublishedRaw string     `json:"feed_published_raw"`
	ScrapedAt        time.Time  `json:"scraped_at"`
}

// Options configure an Extractor.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	Retries       int
	FetchTopImage bool
	MinBodyChars  int
	// Substitutions override the default cleanup rules when non-nil.
	Substitutions []Substitution
}

// Extractor turns article URLs into Articles: HTTP download, readable
// content extraction, text cleanup, summary and keyword derivation.
// Safe for concurrent use; the HTTP client and its connection pool are
// shared across all calls.
type Extractor struct {
	client *http.Client
	opts   Options
}

// New creates an Extractor. Zero-value options get working defaults.
func New(opts Options) *Extractor {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MinBodyChars == 0 {
		opts.MinBodyChars = 200
	}
	if opts.Substitutions == nil {
		opts.Substitutions = DefaultSubstitutions()
	}
	return &Extractor{
		opts: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Extract downloads and extracts one article. feedPublishedRaw is the
// entry's verbatim published string, kept for provenance and used as a
// date fallback when the page itself carries none. Every error wraps
// one of the stage sentinels except context cancellation, which is
// returned as-is.
func (e *Extractor) Extract(ctx context.Context, pageURL, feedPublishedRaw string) (*Article, error) {
	body, err := e.download(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	parsedURL, _ := url.Parse(pageURL)
	page, err := readability.FromReader(strings.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	title := strings.TrimSpace(page.Title)

	// Best effort: thin bodies simply leave these empty.
	keywords := Keywords(page.TextContent, maxKeywords)
	summary := Summarize(title, page.TextContent, summarySentences)

	// Cleanup runs after derivation and before the length gate, and the
	// gate judges the cleaned text.
	text := CleanText(page.TextContent, e.opts.Substitutions)
	summary = CleanText(summary, e.opts.Substitutions)
	if length := utf8.RuneCountInString(text); length < e.opts.MinBodyChars {
		return nil, fmt.Errorf("%w: %d chars", ErrContentTooShort, length)
	}

	article := &Article{
		URL:              pageURL,
		Title:            title,
		Authors:          splitAuthors(page.Byline),
		PublishDate:      publishDate(page.PublishedTime, feedPublishedRaw),
		BodyText:         text,
		SummaryText:      summary,
		Keywords:         keywords,
		FeedPublishedRaw: feedPublishedRaw,
		ScrapedAt:        time.Now().UTC(),
	}

	if e.opts.FetchTopImage {
		article.TopImageURL = topImage(page.Image, body)
	}

	log.WithFields(log.Fields{
		"url":   pageURL,
		"chars": utf8.RuneCountInString(text),
	}).Debug("article extracted")

	return article, nil
}

// download fetches the page body, retrying transient failures with
// exponential backoff. Cancellation of ctx surfaces as the bare context
// error, never as ErrDownloadFailed.
func (e *Extractor) download(ctx context.Context, pageURL string) (string, error) {
	var body string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", e.opts.UserAgent)

		resp, err := e.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			statusErr := fmt.Errorf("status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = string(raw)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.opts.Retries)), ctx)); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return body, nil
}

func publishDate(pageTime *time.Time, feedRaw string) *time.Time {
	if pageTime != nil {
		return pageTime
	}
	if strings.TrimSpace(feedRaw) == "" {
		return nil
	}
	when, err := dateparse.ParseAny(feedRaw)
	if err != nil {
		return nil
	}
	return &when
}

// splitAuthors breaks a byline into individual names.
func splitAuthors(byline string) []string {
	byline = strings.TrimSpace(byline)
	if byline == "" {
		return nil
	}
	if len(byline) > 3 && strings.EqualFold(byline[:3], "by ") {
		byline = byline[3:]
	}

	normalized := strings.NewReplacer(" and ", ",", " & ", ",", ";", ",").Replace(byline)
	var authors []string
	for _, part := range strings.Split(normalized, ",") {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// topImage prefers the extractor's metadata image, falling back to
// social-preview meta tags in the raw page.
func topImage(metaImage, html string) string {
	if metaImage != "" {
		return metaImage
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}
