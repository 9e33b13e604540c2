package ingest

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"newshound/internal/config"
	"newshound/internal/extract"
	"newshound/internal/feed"
)

// gauge tracks peak concurrency across goroutines.
type gauge struct {
	mu     sync.Mutex
	active int
	peak   int
}

func (g *gauge) enter() {
	g.mu.Lock()
	g.active++
	if g.active > g.peak {
		g.peak = g.active
	}
	g.mu.Unlock()
}

func (g *gauge) exit() {
	g.mu.Lock()
	g.active--
	g.mu.Unlock()
}

func (g *gauge) max() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

type fakeFetcher struct {
	mu    sync.Mutex
	feeds map[string][]feed.Entry
	errs  map[string]error
	panic map[string]bool
	delay time.Duration
	calls []string
	gauge gauge
}

func (f *fakeFetcher) Fetch(ctx context.Context, label, feedURL string) ([]feed.Entry, error) {
	f.gauge.enter()
	defer f.gauge.exit()

	f.mu.Lock()
	f.calls = append(f.calls, feedURL)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.panic[feedURL] {
		panic("fetcher exploded on " + feedURL)
	}
	if err, ok := f.errs[feedURL]; ok {
		return nil, err
	}
	return f.feeds[feedURL], nil
}

func (f *fakeFetcher) fetched(feedURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.calls {
		if u == feedURL {
			return true
		}
	}
	return false
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeExtractor struct {
	mu     sync.Mutex
	fail   map[string]error
	panic  map[string]bool
	delay  map[string]time.Duration
	jitter time.Duration
	calls  []string
}

func (f *fakeExtractor) Extract(ctx context.Context, pageURL, feedPublishedRaw string) (*extract.Article, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageURL)
	f.mu.Unlock()

	d := f.delay[pageURL]
	if f.jitter > 0 {
		d += time.Duration(rand.Int63n(int64(f.jitter)))
	}
	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.panic[pageURL] {
		panic("extractor exploded on " + pageURL)
	}
	if err, ok := f.fail[pageURL]; ok {
		return nil, err
	}
	return &extract.Article{
		URL:              pageURL,
		Title:            "Extracted " + pageURL,
		BodyText:         "body of " + pageURL,
		FeedPublishedRaw: feedPublishedRaw,
	}, nil
}

func (f *fakeExtractor) extractCount(pageURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.calls {
		if u == pageURL {
			n++
		}
	}
	return n
}

func stormEntry(link string) feed.Entry {
	return feed.Entry{
		Title:        "Storm update " + link,
		Summary:      "Coverage of the approaching storm.",
		Link:         link,
		PublishedRaw: "Mon, 02 Jan 2006 15:04:05 MST",
		FeedLabel:    "rss",
	}
}

func stormEntries(links ...string) []feed.Entry {
	entries := make([]feed.Entry, len(links))
	for i, link := range links {
		entries[i] = stormEntry(link)
	}
	return entries
}

func oneFeedSource(name, feedURL string) config.Source {
	return config.Source{Name: name, Feeds: []config.Feed{{Label: "rss", URL: feedURL}}}
}
