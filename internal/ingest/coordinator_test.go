package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"newshound/internal/config"
	"newshound/internal/feed"
)

func threeSources() []config.Source {
	return []config.Source{
		oneFeedSource("Alpha", "https://a.example/feed"),
		oneFeedSource("Beta", "https://b.example/feed"),
		oneFeedSource("Gamma", "https://c.example/feed"),
	}
}

func TestRunMergesInConfiguredOrder(t *testing.T) {
	fetcher := &fakeFetcher{feeds: map[string][]feed.Entry{
		"https://a.example/feed": stormEntries("https://a.example/1", "https://a.example/2"),
		"https://b.example/feed": stormEntries("https://b.example/1"),
		"https://c.example/feed": stormEntries("https://c.example/1"),
	}}
	// Alpha is the slowest source; its records must still come first.
	extractor := &fakeExtractor{delay: map[string]time.Duration{
		"https://a.example/1": 60 * time.Millisecond,
		"https://a.example/2": 60 * time.Millisecond,
	}}

	coord := NewCoordinator(fetcher, extractor, Options{SourceWorkers: 3})
	result, err := coord.Run(context.Background(), threeSources(), "  storm  ")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Keyword != "storm" {
		t.Errorf("Keyword = %q, want trimmed %q", result.Keyword, "storm")
	}
	want := []string{
		"https://a.example/1", "https://a.example/2",
		"https://b.example/1",
		"https://c.example/1",
	}
	if len(result.Records) != len(want) {
		t.Fatalf("got %d records, want %d", len(result.Records), len(want))
	}
	for i, rec := range result.Records {
		if rec.URL != want[i] {
			t.Errorf("records[%d] = %q, want %q", i, rec.URL, want[i])
		}
	}
	if len(result.SourceFailures) != 0 {
		t.Errorf("unexpected source failures: %v", result.SourceFailures)
	}
	if result.FinishedAt.Before(result.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}
}

func TestRunIsolatesFailedSource(t *testing.T) {
	fetcher := &fakeFetcher{
		feeds: map[string][]feed.Entry{
			"https://a.example/feed": stormEntries("https://a.example/1"),
			"https://c.example/feed": stormEntries("https://c.example/1"),
		},
		errs: map[string]error{
			"https://b.example/feed": feed.ErrFeedUnavailable,
		},
	}

	coord := NewCoordinator(fetcher, &fakeExtractor{}, Options{})
	result, err := coord.Run(context.Background(), threeSources(), "storm")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(result.Records))
	}
	if len(result.SourceFailures) != 1 {
		t.Fatalf("SourceFailures = %v, want exactly Beta", result.SourceFailures)
	}
	reason, ok := result.SourceFailures["Beta"]
	if !ok {
		t.Fatalf("SourceFailures = %v, missing Beta", result.SourceFailures)
	}
	if !strings.Contains(reason, "all feeds failed") {
		t.Errorf("reason = %q", reason)
	}
}

func TestRunValidatesBeforeNetwork(t *testing.T) {
	tests := []struct {
		name    string
		sources []config.Source
		keyword string
	}{
		{"empty keyword", threeSources(), "   "},
		{"no sources", nil, "storm"},
		{"unnamed source", []config.Source{oneFeedSource("", "https://a.example/feed")}, "storm"},
		{"no feeds", []config.Source{{Name: "Alpha"}}, "storm"},
		{"feed without URL", []config.Source{{Name: "Alpha", Feeds: []config.Feed{{Label: "rss"}}}}, "storm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			coord := NewCoordinator(fetcher, &fakeExtractor{}, Options{})

			result, err := coord.Run(context.Background(), tt.sources, tt.keyword)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if result != nil {
				t.Errorf("result = %+v, want nil", result)
			}
			if n := fetcher.callCount(); n != 0 {
				t.Errorf("network touched %d times during validation", n)
			}
		})
	}
}

func TestRunCancellationKeepsPartialResult(t *testing.T) {
	fetcher := &fakeFetcher{feeds: map[string][]feed.Entry{
		"https://a.example/feed": stormEntries("https://a.example/1"),
		"https://b.example/feed": stormEntries("https://b.example/1"),
		"https://c.example/feed": stormEntries("https://c.example/1"),
	}}
	extractor := &fakeExtractor{delay: map[string]time.Duration{
		"https://b.example/1": 5 * time.Second,
		"https://c.example/1": 5 * time.Second,
	}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	coord := NewCoordinator(fetcher, extractor, Options{SourceWorkers: 3})
	result, err := coord.Run(ctx, threeSources(), "storm")
	if err != nil {
		t.Fatalf("cancelled run must return the partial result, got error %v", err)
	}

	if len(result.Records) != 1 || result.Records[0].URL != "https://a.example/1" {
		t.Errorf("records = %v, want only the fast source", result.Records)
	}
	if len(result.SourceFailures) != 0 {
		t.Errorf("cancellation recorded as source failure: %v", result.SourceFailures)
	}
}

func TestRunRecoversPanickingSource(t *testing.T) {
	fetcher := &fakeFetcher{
		feeds: map[string][]feed.Entry{
			"https://a.example/feed": stormEntries("https://a.example/1"),
			"https://c.example/feed": stormEntries("https://c.example/1"),
		},
		panic: map[string]bool{"https://b.example/feed": true},
	}

	coord := NewCoordinator(fetcher, &fakeExtractor{}, Options{})
	result, err := coord.Run(context.Background(), threeSources(), "storm")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2 from the healthy sources", len(result.Records))
	}
	reason, ok := result.SourceFailures["Beta"]
	if !ok {
		t.Fatalf("SourceFailures = %v, missing Beta", result.SourceFailures)
	}
	if !strings.Contains(reason, "panic") {
		t.Errorf("reason = %q", reason)
	}
}

func TestRunBoundsSourceConcurrency(t *testing.T) {
	sources := []config.Source{
		oneFeedSource("S1", "https://s1.example/feed"),
		oneFeedSource("S2", "https://s2.example/feed"),
		oneFeedSource("S3", "https://s3.example/feed"),
		oneFeedSource("S4", "https://s4.example/feed"),
		oneFeedSource("S5", "https://s5.example/feed"),
		oneFeedSource("S6", "https://s6.example/feed"),
	}
	fetcher := &fakeFetcher{delay: 30 * time.Millisecond}

	coord := NewCoordinator(fetcher, &fakeExtractor{}, Options{SourceWorkers: 2})
	if _, err := coord.Run(context.Background(), sources, "storm"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if peak := fetcher.gauge.max(); peak > 2 {
		t.Errorf("source concurrency peaked at %d, limit 2", peak)
	}
	if n := fetcher.callCount(); n != len(sources) {
		t.Errorf("fetched %d feeds, want %d", n, len(sources))
	}
}
