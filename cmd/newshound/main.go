package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/cqroot/prompt"
	"github.com/mattn/go-runewidth"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"newshound/internal/archive"
	"newshound/internal/config"
	"newshound/internal/extract"
	"newshound/internal/feed"
	"newshound/internal/ingest"
	"newshound/internal/report"
)

var version = "dev"

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var (
	flagMaxPerSource int
	flagOut          string
	flagDigest       bool
	flagNoSave       bool
	flagYes          bool
)

var rootCmd = &cobra.Command{
	Use:   "newshound",
	Short: "Keyword search across news sources with full article extraction",
	Long: `newshound searches the RSS feeds of configured news sources for a
keyword, downloads the matching articles, and extracts their readable
text, summary and keywords. Results are printed, archived locally and
optionally written out as JSON or a markdown digest.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}

		// init and version must work without a config file.
		switch cmd.Name() {
		case "init", "version", "help":
			return nil
		}

		path, err := config.ResolveConfigPath(cfgFile)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if !verbose {
			if level, err := log.ParseLevel(cfg.Logging.Level); err == nil {
				log.SetLevel(level)
			}
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := config.ConfigDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Config already exists at %s\n", path)
			return nil
		}
		if err := os.WriteFile(path, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search all sources for a keyword and extract matching articles",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	keyword := strings.TrimSpace(strings.Join(args, " "))
	if keyword == "" {
		answer, err := prompt.New().Ask("Keyword to search for:").Input("")
		if err != nil {
			return err
		}
		keyword = strings.TrimSpace(answer)
	}
	if keyword == "" {
		return errors.New("no keyword given")
	}

	maxPerSource := cfg.Search.MaxArticlesPerSource
	if flagMaxPerSource > 0 {
		maxPerSource = flagMaxPerSource
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client := &http.Client{Timeout: cfg.Scrape.Timeout()}
	fetcher := feed.NewFetcher(client, cfg.Scrape.UserAgent, cfg.Scrape.Retries)
	extractor := extract.New(extract.Options{
		UserAgent:     cfg.Scrape.UserAgent,
		Timeout:       cfg.Scrape.Timeout(),
		Retries:       cfg.Scrape.Retries,
		FetchTopImage: cfg.Scrape.FetchTopImage,
		MinBodyChars:  cfg.Scrape.MinBodyChars,
	})
	coordinator := ingest.NewCoordinator(fetcher, extractor, ingest.Options{
		MaxPerSource:   maxPerSource,
		SourceWorkers:  cfg.Pools.SourceWorkers,
		ExtractWorkers: cfg.Pools.ExtractWorkers,
	})

	result, err := coordinator.Run(ctx, cfg.Sources, keyword)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		fmt.Println("\nInterrupted, showing partial results.")
	}

	report.RenderResults(os.Stdout, result)
	archiveResults(result)

	if len(result.Records) == 0 || flagNoSave {
		return nil
	}
	if !flagYes && !confirmSave() {
		return nil
	}

	outDir := flagOut
	if outDir == "" {
		outDir = filepath.Join(cfg.GetDataDir(), "articles")
	}
	path, err := report.WriteJSON(result, outDir)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d articles to %s\n", len(result.Records), path)

	if flagDigest {
		paths, err := report.WriteDigest(result, outDir, true)
		if err != nil {
			return err
		}
		fmt.Printf("Digest written to %s\n", strings.Join(paths, ", "))
	}
	return nil
}

// archiveResults stores the run in the local archive. Archive trouble
// downgrades to a warning so search output is never lost to a bad disk.
func archiveResults(result *ingest.RunResult) {
	db, err := openDB()
	if err != nil {
		log.WithError(err).Warn("archive unavailable, run not stored")
		return
	}
	defer db.Close()

	newCount := 0
	for i := range result.Records {
		id, err := db.SaveArticle(&result.Records[i])
		if err != nil {
			log.WithError(err).Warn("storing article failed")
			continue
		}
		if id != 0 {
			newCount++
		}
	}
	if _, err := db.RecordRun(result, newCount); err != nil {
		log.WithError(err).Warn("recording run failed")
	}
	if len(result.Records) > 0 {
		fmt.Printf("\nArchived %d new of %d articles.\n", newCount, len(result.Records))
	}
}

func confirmSave() bool {
	answer, err := prompt.New().Ask("Save results to JSON? (y/n)").Input("y")
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured sources and their feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, source := range cfg.Sources {
			fmt.Println(source.Name)
			for _, f := range source.Feeds {
				fmt.Printf("  %s %s\n", runewidth.FillRight(f.Label, 10), f.URL)
			}
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive statistics and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return err
		}
		fmt.Printf("Archive: %s\n\n", db.Path())
		counters := []struct {
			label string
			value int
		}{
			{"Articles", stats.TotalArticles},
			{"Sources", stats.DistinctSources},
			{"Keywords", stats.DistinctKeywords},
			{"Runs", stats.TotalRuns},
		}
		for _, c := range counters {
			fmt.Printf("  %s %d\n", runewidth.FillRight(c.label, 10), c.value)
		}

		runs, err := db.RecentRuns(5)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return nil
		}
		fmt.Println("\nRecent runs:")
		for _, run := range runs {
			line := fmt.Sprintf("  %s %s %d articles, %d new",
				run.FinishedAt.Local().Format("2006-01-02 15:04"),
				runewidth.FillRight(run.Keyword, 20),
				run.RecordCount, run.NewCount)
			if len(run.SourceFailures) > 0 {
				line += fmt.Sprintf(", %d sources failed", len(run.SourceFailures))
			}
			fmt.Println(line)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the newshound version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newshound %s\n", version)
	},
}

func openDB() (*archive.DB, error) {
	return archive.Open(filepath.Join(cfg.GetDataDir(), "newshound.db"))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	searchCmd.Flags().IntVarP(&flagMaxPerSource, "max-per-source", "m", 0, "cap accepted articles per source (overrides config)")
	searchCmd.Flags().StringVarP(&flagOut, "out", "o", "", "directory for the JSON artifact")
	searchCmd.Flags().BoolVar(&flagDigest, "digest", false, "also write a markdown and HTML digest")
	searchCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "never write the JSON artifact")
	searchCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "write the JSON artifact without asking")

	rootCmd.AddCommand(initCmd, searchCmd, sourcesCmd, statusCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
