package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources []Source `yaml:"sources"`
	Scrape  Scrape   `yaml:"scrape"`
	Search  Search   `yaml:"search"`
	Pools   Pools    `yaml:"pools"`
	Output  Output   `yaml:"output"`
	Logging Logging  `yaml:"logging"`
}

// Source is one named news outlet with its feeds in priority order.
// Feed order matters: earlier feeds are searched first.
type Source struct {
	Name  string `yaml:"name"`
	Feeds []Feed `yaml:"feeds"`
}

type Feed struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type Scrape struct {
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Retries        int    `yaml:"retries"`
	FetchTopImage  bool   `yaml:"fetch_top_image"`
	MinBodyChars   int    `yaml:"min_body_chars"`
}

type Search struct {
	MaxArticlesPerSource int `yaml:"max_articles_per_source"`
}

type Pools struct {
	SourceWorkers  int `yaml:"source_workers"`
	ExtractWorkers int `yaml:"extract_workers"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Timeout returns the per-request timeout as a duration.
func (s Scrape) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ConfigDir returns the XDG config directory for newshound.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newshound")
}

// DataDir returns the XDG data directory for newshound.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newshound")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newshound/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newshound init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Scrape: Scrape{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			TimeoutSeconds: 15,
			Retries:        2,
			MinBodyChars:   200,
		},
		Search: Search{MaxArticlesPerSource: 5},
		Pools: Pools{
			SourceWorkers:  4,
			ExtractWorkers: 6,
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the config describes at least one usable source.
// Called before a search run so a broken config fails before any network work.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}
	for i, s := range c.Sources {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("source %d has no name", i+1)
		}
		if len(s.Feeds) == 0 {
			return fmt.Errorf("source %q has no feeds", s.Name)
		}
		for _, f := range s.Feeds {
			if strings.TrimSpace(f.URL) == "" {
				return fmt.Errorf("source %q has a feed with no URL", s.Name)
			}
		}
	}
	if c.Search.MaxArticlesPerSource <= 0 {
		return fmt.Errorf("max_articles_per_source must be positive, got %d", c.Search.MaxArticlesPerSource)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
