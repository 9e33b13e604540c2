package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"newshound/internal/config"
)

// Options bound a Coordinator run. Zero values get working defaults.
type Options struct {
	// MaxPerSource caps accepted articles per source.
	MaxPerSource int
	// SourceWorkers bounds how many sources run concurrently.
	SourceWorkers int
	// ExtractWorkers bounds article extraction within one source.
	ExtractWorkers int
}

// Coordinator fans a search out over all configured sources and merges
// the per-source results back into configuration order.
type Coordinator struct {
	fetcher   Fetcher
	extractor Extractor
	opts      Options
}

func NewCoordinator(fetcher Fetcher, extractor Extractor, opts Options) *Coordinator {
	if opts.MaxPerSource <= 0 {
		opts.MaxPerSource = 5
	}
	if opts.SourceWorkers <= 0 {
		opts.SourceWorkers = 4
	}
	if opts.ExtractWorkers <= 0 {
		opts.ExtractWorkers = 6
	}
	return &Coordinator{fetcher: fetcher, extractor: extractor, opts: opts}
}

// Run searches every source for keyword. It validates its inputs
// before touching the network and returns an error only for invalid
// input; network trouble lands in the result's failure fields instead.
// When ctx is cancelled mid-run the partial result is returned with a
// nil error.
func (c *Coordinator) Run(ctx context.Context, sources []config.Source, keyword string) (*RunResult, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, errors.New("search keyword is empty")
	}
	if len(sources) == 0 {
		return nil, errors.New("no sources configured")
	}
	for _, source := range sources {
		if strings.TrimSpace(source.Name) == "" {
			return nil, errors.New("source without a name")
		}
		if len(source.Feeds) == 0 {
			return nil, fmt.Errorf("source %q has no feeds", source.Name)
		}
		for _, f := range source.Feeds {
			if strings.TrimSpace(f.URL) == "" {
				return nil, fmt.Errorf("source %q has a feed without a URL", source.Name)
			}
		}
	}

	result := &RunResult{
		Keyword:        keyword,
		SourceFailures: make(map[string]string),
		StartedAt:      time.Now().UTC(),
	}
	log.WithFields(log.Fields{
		"keyword": keyword,
		"sources": len(sources),
	}).Info("search started")

	slots := make([]SourceResult, len(sources))
	sem := make(chan struct{}, c.opts.SourceWorkers)
	var wg sync.WaitGroup

submit:
	for i, source := range sources {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break submit
		}
		wg.Add(1)
		go func(i int, source config.Source) {
			defer wg.Done()
			defer func() { <-sem }()
			orch := NewOrchestrator(c.fetcher, c.extractor, keyword, c.opts.MaxPerSource, c.opts.ExtractWorkers)
			slots[i] = orch.Search(ctx, source)
		}(i, source)
	}
	wg.Wait()

	for _, sr := range slots {
		if sr.Source == "" {
			continue
		}
		result.Records = append(result.Records, sr.Records...)
		result.ExtractionFailures = append(result.ExtractionFailures, sr.Failures...)
		if sr.Err != nil {
			result.SourceFailures[sr.Source] = sr.Err.Error()
		}
	}
	result.FinishedAt = time.Now().UTC()

	log.WithFields(log.Fields{
		"keyword":  keyword,
		"records":  len(result.Records),
		"failed":   len(result.SourceFailures),
		"duration": result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond),
	}).Info("search finished")
	return result, nil
}
