package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lcscraper/internal/runctx"
	"lcscraper/pkg/catalog"
	"lcscraper/pkg/checkpoint"
	errs "lcscraper/pkg/errors"
	"lcscraper/pkg/fetcher"
	"lcscraper/pkg/logger"
	"lcscraper/pkg/ratelimit"
	"lcscraper/pkg/retry"
	"lcscraper/pkg/scraper"
	"lcscraper/pkg/storage"
	"lcscraper/pkg/ui"
)

var (
	// Scrape command flags
	checkpointPath string
	recordsPath    string
	renderURL      string
	includePaid    bool
	resetRun       bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Record the topic tags of every problem, resuming from the checkpoint",
	Long: `Visit every problem page in ascending problem order and record its name,
number, URL, difficulty and topic tags.

The index of the last stored problem is kept in the checkpoint file, so an
interrupted run continues where it stopped. A failed page load resets the
browsing session and is retried after a cooldown; the run aborts with exit
status 1 when the same problem fails more times in a row than allowed. A run
stopped with Ctrl-C keeps its progress and exits with status 130.`,
	Example: `  # Start or resume a run with default files
  lcscraper scrape

  # Use custom files and fetch pages through a rendering service
  lcscraper scrape --checkpoint run.conf --records out.json --render-url http://localhost:3000/content

  # Start over from the first problem
  lcscraper scrape --reset`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint file (default track.conf)")
	scrapeCmd.Flags().StringVar(&recordsPath, "records", "", "records file (default lc_problems.json)")
	scrapeCmd.Flags().StringVar(&renderURL, "render-url", "", "rendering endpoint used to load pages")
	scrapeCmd.Flags().BoolVar(&includePaid, "include-paid", false, "include paid-only problems")
	scrapeCmd.Flags().BoolVar(&resetRun, "reset", false, "back up the checkpoint and start from the first problem")
}

func runScrape(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"checkpoint": checkpointPath,
		"records":    recordsPath,
		"render-url": renderURL,
	}
	if cmd.Flags().Changed("include-paid") {
		flags["include-paid"] = includePaid
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := runctx.New(context.Background())
	defer stop()
	log := logger.GetLogger().WithField("run_id", runctx.RunID(ctx))

	limiter := ratelimit.NewRequestLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)

	ui.PrintInfo("Checkpoint", cfg.Scraper.CheckpointFile)
	ui.PrintInfo("Records", cfg.Scraper.RecordsFile)

	cp := checkpoint.NewManager(cfg.Scraper.CheckpointFile, log)
	if !cp.Exists() {
		ui.PrintInfo("Checkpoint", "none found, starting from the first problem")
	} else if resetRun {
		if err := cp.Reset(); err != nil {
			return err
		}
		ui.PrintWarning("Checkpoint reset, starting from the first problem")
	}

	items, err := catalog.NewClient(cfg, limiter, log).ListAlgorithms(ctx, cfg.Scraper.IncludePaid)
	if err != nil {
		return fmt.Errorf("failed to fetch problem list: %w", err)
	}

	last, err := cp.Load()
	if err != nil {
		return err
	}
	if scraper.Completed(last, items) {
		ui.PrintSuccess(fmt.Sprintf("All %d problems already recorded", len(items)))
		return nil
	}

	session, err := fetcher.NewHTTPSession(cfg.Scraper, limiter, log)
	if err != nil {
		return err
	}
	defer session.Close()

	tracker := ui.NewStatusTracker(nil, len(items))
	tracker.Resume(last + 1)

	controller := scraper.New(session, cp,
		storage.NewRecordStore(cfg.Scraper.RecordsFile, log),
		ratelimit.NewPacer(cfg.RateLimit, log),
		scraper.Options{
			ProblemBaseURL:         cfg.Scraper.ProblemBaseURL,
			MaxConsecutiveFailures: cfg.Retry.MaxConsecutiveFailures,
			Recovery:               &retry.ConstantBackoff{Delay: cfg.Retry.RecoveryDelay},
			Progress:               tracker,
			Logger:                 log,
		})

	ui.PrintHighlight(fmt.Sprintf("[SCRAPING %d PROBLEMS FROM INDEX %d]", len(items), last+1))

	result, err := controller.Run(ctx, items)
	notifier := ui.NewNotifier(notify)
	switch {
	case err == nil:
		ui.PrintSuccess(fmt.Sprintf("%d problems stored (%.1f per minute)", result.Completed, tracker.GetRate(result.Completed)))
		notifier.SendSuccess("Scrape complete", fmt.Sprintf("%d problems stored in %s", result.Completed, tracker.GetElapsedTime().Round(time.Second)))
		return nil
	case errors.Is(err, context.Canceled):
		ui.PrintWarning("Interrupted, progress saved at index", result.LastIndex)
		return fmt.Errorf("scrape interrupted: %w", err)
	case errs.IsType(err, errs.ErrorTypeHardAbort):
		notifier.SendError("Scrape aborted", err.Error())
		return err
	default:
		return err
	}
}
