// Package report renders and persists search results: a JSON artifact
// named after the keyword, a console summary, and a markdown digest.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"newshound/internal/extract"
	"newshound/internal/ingest"
)

var unsafeFilename = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

func slug(keyword string) string {
	return strings.ToLower(unsafeFilename.Replace(strings.TrimSpace(keyword)))
}

// Filename derives the JSON artifact name from the search keyword.
func Filename(keyword string) string {
	return slug(keyword) + "_articles.json"
}

// WriteJSON writes the run's records to dir as indented JSON and
// returns the path written. An empty run produces an empty array, not
// null, so downstream consumers always see a list.
func WriteJSON(result *ingest.RunResult, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	records := result.Records
	if records == nil {
		records = []extract.Article{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding results: %w", err)
	}

	path := filepath.Join(dir, Filename(result.Keyword))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing results: %w", err)
	}
	return path, nil
}
