package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/yuin/goldmark"

	"newshound/internal/extract"
	"newshound/internal/ingest"
)

var markdown = goldmark.New()

// BuildMarkdown renders the run as a markdown digest, grouped by
// source. Records arrive from a run already grouped, so a single pass
// opens a new section whenever the source changes.
func BuildMarkdown(result *ingest.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# News digest: %s\n\n", result.Keyword)
	fmt.Fprintf(&b, "_%d articles, gathered %s_\n", len(result.Records), result.FinishedAt.Format("2006-01-02 15:04 MST"))

	currentSource := ""
	for _, rec := range result.Records {
		if rec.SourceName != currentSource {
			if currentSource != "" {
				b.WriteString("\n---\n")
			}
			currentSource = rec.SourceName
			fmt.Fprintf(&b, "\n## %s\n", currentSource)
		}
		fmt.Fprintf(&b, "\n### [%s](%s)\n\n", rec.Title, rec.URL)
		if meta := recordMeta(rec); meta != "" {
			fmt.Fprintf(&b, "_%s_\n\n", meta)
		}
		if rec.SummaryText != "" {
			b.WriteString(rec.SummaryText + "\n")
		}
	}

	if len(result.SourceFailures) > 0 {
		b.WriteString("\n---\n\n## Unavailable sources\n\n")
		names := lo.Keys(result.SourceFailures)
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %s\n", name, result.SourceFailures[name])
		}
	}
	return b.String()
}

func recordMeta(rec extract.Article) string {
	var parts []string
	if len(rec.Authors) > 0 {
		parts = append(parts, strings.Join(rec.Authors, ", "))
	}
	if label := publishedLabel(rec); label != "Unknown" {
		parts = append(parts, label)
	}
	return strings.Join(parts, " / ")
}

const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: Georgia, serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
h1, h2, h3 { font-family: Helvetica, Arial, sans-serif; }
a { color: #1a5276; text-decoration: none; }
hr { border: none; border-top: 1px solid #ccc; margin: 2rem 0; }
</style>
</head>
<body>
%s</body>
</html>
`

// WriteDigest writes the markdown digest to dir, plus an HTML
// rendering when includeHTML is set, and returns the paths written.
func WriteDigest(result *ingest.RunResult, dir string, includeHTML bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	md := BuildMarkdown(result)
	base := slug(result.Keyword) + "_digest"

	mdPath := filepath.Join(dir, base+".md")
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return nil, fmt.Errorf("writing digest: %w", err)
	}
	paths := []string{mdPath}

	if includeHTML {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(md), &buf); err != nil {
			return paths, fmt.Errorf("rendering digest html: %w", err)
		}
		title := "News digest: " + result.Keyword
		page := fmt.Sprintf(htmlShell, title, buf.String())
		htmlPath := filepath.Join(dir, base+".html")
		if err := os.WriteFile(htmlPath, []byte(page), 0o644); err != nil {
			return paths, fmt.Errorf("writing digest html: %w", err)
		}
		paths = append(paths, htmlPath)
	}
	return paths, nil
}
