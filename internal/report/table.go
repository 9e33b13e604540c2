package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"

	"newshound/internal/extract"
	"newshound/internal/ingest"
)

const (
	ruleWidth       = 72
	summaryWidth    = 200
	sourceNameWidth = 18
)

// RenderResults prints a human readable report of the run to w,
// followed by any source and article failures.
func RenderResults(w io.Writer, result *ingest.RunResult) {
	if len(result.Records) == 0 {
		fmt.Fprintln(w, "No articles found.")
		renderFailures(w, result)
		return
	}

	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "SEARCH RESULTS - %d articles for %q\n", len(result.Records), result.Keyword)
	fmt.Fprintln(w, rule)

	for i, rec := range result.Records {
		fmt.Fprintf(w, "\n[%d] %s\n", i+1, rec.Title)
		fmt.Fprintf(w, "    Source:    %s\n", rec.SourceName)
		fmt.Fprintf(w, "    Published: %s\n", publishedLabel(rec))
		if summary := flatten(rec.SummaryText); summary != "" {
			fmt.Fprintf(w, "    Summary:   %s\n", runewidth.Truncate(summary, summaryWidth, "..."))
		}
		fmt.Fprintf(w, "    URL:       %s\n", rec.URL)
	}
	renderFailures(w, result)
}

func renderFailures(w io.Writer, result *ingest.RunResult) {
	if len(result.SourceFailures) > 0 {
		fmt.Fprintf(w, "\nFailed sources (%d):\n", len(result.SourceFailures))
		names := lo.Keys(result.SourceFailures)
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s %s\n", runewidth.FillRight(name, sourceNameWidth), result.SourceFailures[name])
		}
	}
	if len(result.ExtractionFailures) > 0 {
		fmt.Fprintf(w, "\nSkipped articles (%d):\n", len(result.ExtractionFailures))
		for _, f := range result.ExtractionFailures {
			fmt.Fprintf(w, "  [%s] %s\n", f.Kind, f.URL)
		}
	}
}

// publishedLabel prefers the extracted publish date, falling back to
// the feed's raw string when extraction found none.
func publishedLabel(rec extract.Article) string {
	if rec.PublishDate != nil {
		return rec.PublishDate.Format("2006-01-02 15:04")
	}
	if rec.FeedPublishedRaw != "" {
		return rec.FeedPublishedRaw
	}
	return "Unknown"
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
