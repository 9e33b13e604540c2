package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"newshound/internal/config"
	"newshound/internal/extract"
	"newshound/internal/feed"
)

// Orchestrator searches a single source: it walks the source's feeds in
// configured order, matches entries against the keyword, and extracts
// matched articles with a bounded worker pool until the per-source cap
// is reached.
type Orchestrator struct {
	fetcher      Fetcher
	extractor    Extractor
	keyword      string
	maxPerSource int
	workers      int
}

func NewOrchestrator(fetcher Fetcher, extractor Extractor, keyword string, maxPerSource, workers int) *Orchestrator {
	if maxPerSource <= 0 {
		maxPerSource = 5
	}
	if workers <= 0 {
		workers = 6
	}
	return &Orchestrator{
		fetcher:      fetcher,
		extractor:    extractor,
		keyword:      keyword,
		maxPerSource: maxPerSource,
		workers:      workers,
	}
}

// Search runs the source end to end and never panics: a panic anywhere
// below is folded into the result. Err is set only when every feed of
// the source failed, or a panic left the source with no records.
// Cancellation is not a failure; it just cuts the result short.
func (o *Orchestrator) Search(ctx context.Context, source config.Source) (result SourceResult) {
	result.Source = source.Name
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"source": source.Name, "panic": r}).Error("source search panicked")
			if len(result.Records) == 0 {
				result.Err = fmt.Errorf("panic: %v", r)
			}
		}
	}()

	seen := make(map[string]struct{})
	var feedErrs []error
	for _, f := range source.Feeds {
		if len(result.Records) >= o.maxPerSource {
			break
		}
		if ctx.Err() != nil {
			break
		}

		entries, err := o.fetcher.Fetch(ctx, f.Label, f.URL)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			feedErrs = append(feedErrs, err)
			log.WithFields(log.Fields{
				"source": source.Name,
				"feed":   f.Label,
			}).WithError(err).Warn("feed fetch failed")
			continue
		}

		candidates := dedupe(feed.MatchEntries(entries, o.keyword), seen)
		if len(candidates) == 0 {
			continue
		}

		records, failures := o.extractBatch(ctx, candidates, o.maxPerSource-len(result.Records))
		result.Records = append(result.Records, records...)
		result.Failures = append(result.Failures, failures...)
	}

	for i := range result.Records {
		result.Records[i].SourceName = source.Name
		result.Records[i].SearchKeyword = o.keyword
	}

	if len(result.Records) == 0 && len(feedErrs) > 0 && len(feedErrs) == len(source.Feeds) {
		result.Err = fmt.Errorf("all feeds failed: %v", errors.Join(feedErrs...))
	}
	return result
}

type outcome struct {
	article   *extract.Article
	err       error
	attempted bool
}

// extractBatch extracts candidates with a bounded pool and returns up
// to budget successful records. Acceptance is by entry order, not
// completion order: the scan below takes the first budget successes by
// index, so results do not depend on goroutine scheduling. Work
// submitted past the point where the budget was met is discarded,
// successes and failures alike.
func (o *Orchestrator) extractBatch(ctx context.Context, candidates []feed.Entry, budget int) ([]extract.Article, []ExtractionFailure) {
	if budget <= 0 || len(candidates) == 0 {
		return nil, nil
	}

	outcomes := make([]outcome, len(candidates))
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup
	var successes atomic.Int64

	for i := range candidates {
		if int(successes.Load()) >= budget || ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		if int(successes.Load()) >= budget {
			<-sem
			break
		}
		outcomes[i].attempted = true
		wg.Add(1)
		go func(i int, entry feed.Entry) {
			defer wg.Done()
			defer func() { <-sem }()
			article, err := o.safeExtract(ctx, entry)
			outcomes[i] = outcome{article: article, err: err, attempted: true}
			if err == nil {
				successes.Add(1)
			}
		}(i, candidates[i])
	}
	wg.Wait()

	var records []extract.Article
	var failures []ExtractionFailure
	for i := range outcomes {
		if !outcomes[i].attempted || len(records) >= budget {
			break
		}
		switch {
		case outcomes[i].err != nil:
			if isCancel(outcomes[i].err) {
				continue
			}
			failures = append(failures, ExtractionFailure{
				URL:    candidates[i].Link,
				Kind:   extract.FailureKind(outcomes[i].err),
				Reason: outcomes[i].err.Error(),
			})
		case outcomes[i].article != nil:
			records = append(records, *outcomes[i].article)
		}
	}
	return records, failures
}

// safeExtract shields the pool from a panicking extractor and stamps
// the record with the feed entry it came from.
func (o *Orchestrator) safeExtract(ctx context.Context, entry feed.Entry) (article *extract.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			article, err = nil, fmt.Errorf("extract panic: %v", r)
		}
	}()
	article, err = o.extractor.Extract(ctx, entry.Link, entry.PublishedRaw)
	if err != nil {
		return nil, err
	}
	article.FeedTitle = entry.Title
	return article, nil
}

// dedupe drops entries whose link was already seen in an earlier feed
// of the same source, preserving order.
func dedupe(entries []feed.Entry, seen map[string]struct{}) []feed.Entry {
	var out []feed.Entry
	for _, e := range entries {
		if _, dup := seen[e.Link]; dup {
			continue
		}
		seen[e.Link] = struct{}{}
		out = append(out, e)
	}
	return out
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
