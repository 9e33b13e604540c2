package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Sources) != 5 {
		t.Errorf("expected 5 default sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Name != "CNN" {
		t.Errorf("expected first source 'CNN', got %q", cfg.Sources[0].Name)
	}
	if len(cfg.Sources[0].Feeds) != 2 {
		t.Errorf("expected 2 CNN feeds, got %d", len(cfg.Sources[0].Feeds))
	}
	if cfg.Sources[0].Feeds[0].Label != "rss" {
		t.Errorf("expected first CNN feed label 'rss', got %q", cfg.Sources[0].Feeds[0].Label)
	}

	if cfg.Search.MaxArticlesPerSource != 5 {
		t.Errorf("expected max_articles_per_source 5, got %d", cfg.Search.MaxArticlesPerSource)
	}
	if cfg.Scrape.MinBodyChars != 200 {
		t.Errorf("expected min_body_chars 200, got %d", cfg.Scrape.MinBodyChars)
	}
	if cfg.Scrape.Timeout() != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.Scrape.Timeout())
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
sources:
  - name: Example
    feeds:
      - label: rss
        url: https://example.com/rss
search:
  max_articles_per_source: 3
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if len(cfg.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(cfg.Sources))
	}
	if cfg.Search.MaxArticlesPerSource != 3 {
		t.Errorf("expected max 3, got %d", cfg.Search.MaxArticlesPerSource)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Scrape.TimeoutSeconds != 15 {
		t.Errorf("expected default timeout 15, got %d", cfg.Scrape.TimeoutSeconds)
	}
	if cfg.Pools.SourceWorkers != 4 {
		t.Errorf("expected default source_workers 4, got %d", cfg.Pools.SourceWorkers)
	}
	if cfg.Pools.ExtractWorkers != 6 {
		t.Errorf("expected default extract_workers 6, got %d", cfg.Pools.ExtractWorkers)
	}
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no sources", Config{Search: Search{MaxArticlesPerSource: 5}}},
		{"unnamed source", Config{
			Sources: []Source{{Feeds: []Feed{{Label: "rss", URL: "https://example.com/rss"}}}},
			Search:  Search{MaxArticlesPerSource: 5},
		}},
		{"source without feeds", Config{
			Sources: []Source{{Name: "Empty"}},
			Search:  Search{MaxArticlesPerSource: 5},
		}},
		{"feed without url", Config{
			Sources: []Source{{Name: "BadFeed", Feeds: []Feed{{Label: "rss"}}}},
			Search:  Search{MaxArticlesPerSource: 5},
		}},
		{"zero cap", Config{
			Sources: []Source{{Name: "OK", Feeds: []Feed{{Label: "rss", URL: "https://example.com/rss"}}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Error("expected sources to be populated from file")
	}
}

func TestResolveConfigPathExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	got, err := ResolveConfigPath(path)
	if err != nil {
		t.Fatalf("explicit path not resolved: %v", err)
	}
	if got != path {
		t.Errorf("resolved %q, want %q", got, path)
	}

	if _, err := ResolveConfigPath(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing explicit path")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
