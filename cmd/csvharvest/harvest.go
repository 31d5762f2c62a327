package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/csvharvest/internal/config"
	"github.com/nao1215/csvharvest/internal/crawler"
	"github.com/nao1215/csvharvest/internal/database"
	"github.com/nao1215/csvharvest/internal/model"
	"github.com/nao1215/csvharvest/internal/pipeline"
)

// NewHarvestCmd creates the harvest command.
func NewHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Download the CSV reports linked from the listing page",
		Long: `Harvest scrapes report links from the listing page, finds the CSV
download link on every report page not processed before, and downloads the
CSV files into the source directory.

Every request is preceded by a politeness delay (5s by default). A report
page is remembered once it has been fetched, whether or not it linked to a
CSV file; pages that could not be fetched are retried on the next run.

Examples:
  # Harvest with the defaults
  csvharvest harvest

  # Harvest another listing into a local directory
  csvharvest harvest --listing-url https://example.gov/downloads --source-dir ./data/source

  # Write the run summary as Markdown
  csvharvest harvest --markdown -o harvest.md`,
		Args: cobra.NoArgs,
		RunE: runHarvestCmd,
	}

	cmd.Flags().String("listing-url", config.DefaultListingURL,
		"Listing page the report links are scraped from")
	cmd.Flags().String("link-prefix", config.DefaultLinkPrefix,
		"URL prefix identifying report links on the listing page")
	cmd.Flags().StringP("source-dir", "s", "",
		"Directory CSV files are downloaded to (default: <data-dir>/source)")
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Delay before every request")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page request")
	cmd.Flags().Duration("download-timeout", config.DefaultDownloadTimeout,
		"Timeout for each CSV download")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the summary to the specified file path (creates directories if needed)")

	return cmd
}

// runHarvestCmd executes the harvest command.
func runHarvestCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildHarvestConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closeLog, err := setupLogger(cmd, cfg.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	harvestReport, err := runHarvest(ctx, cfg, logger)
	if harvestReport != nil {
		if outErr := outputHarvestReport(cmd.OutOrStdout(), cfg, harvestReport); outErr != nil {
			return outErr
		}
	}
	return err
}

// buildHarvestConfig applies the harvest flags the user set on top of the
// shared configuration.
func buildHarvestConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("listing-url") {
		if cfg.ListingURL, err = flags.GetString("listing-url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("link-prefix") {
		if cfg.LinkPrefix, err = flags.GetString("link-prefix"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay") {
		if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("download-timeout") {
		if cfg.DownloadTimeout, err = flags.GetDuration("download-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runHarvest runs one harvest against the seen store in cfg.DataDir.
//
// The seen set is loaded once before the pipeline and flushed once after it,
// even when the run was cancelled, so pages fetched before an interrupt are
// not fetched again. The report is returned whenever the run started.
func runHarvest(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.HarvestReport, error) {
	store, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	logger.Debug("database opened", "path", store.Path())

	seen, err := store.LoadSeen(ctx)
	if err != nil {
		return nil, err
	}

	runID, err := store.BeginRun(ctx, cfg.ListingURL)
	if err != nil {
		return nil, err
	}

	logger.Info("starting harvest",
		"run", runID,
		"listing", cfg.ListingURL,
		"seen", seen.Len(),
		"source_dir", cfg.SourceDir,
	)

	harvester := crawler.NewHarvester(crawler.NewHTTPClient(),
		crawler.WithLinkPrefix(cfg.LinkPrefix),
		crawler.WithSourceDir(cfg.SourceDir),
		crawler.WithDelay(cfg.Delay),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithDownloadTimeout(cfg.DownloadTimeout),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithLogger(logger),
	)

	harvestReport := model.NewHarvestReport(runID, cfg.ListingURL, seen)
	runErr := pipeline.NewHarvestPipeline(harvester, store, logger).Execute(ctx, harvestReport)

	// The run context may be cancelled; bookkeeping still has to land.
	saveCtx := context.WithoutCancel(ctx)
	saved, err := store.SaveSeen(saveCtx, runID, harvestReport.Seen, pipeline.CSVLinksByReport(harvestReport))
	if err != nil {
		return harvestReport, errors.Join(runErr, fmt.Errorf("failed to save seen links: %w", err))
	}
	if err := store.FinishRun(saveCtx, harvestReport); err != nil {
		logger.Error("failed to finish run", "run", runID, "error", err)
	}

	logger.Info("harvest finished",
		"run", runID,
		"new_seen", saved,
		"downloads", len(harvestReport.Downloads),
	)

	return harvestReport, runErr
}

// outputHarvestReport writes the run summary to cfg.OutputFile or stdout.
func outputHarvestReport(stdout io.Writer, cfg *config.Config, harvestReport *model.HarvestReport) error {
	output := stdout
	if cfg.OutputFile != "" {
		f, err := createOutputFile(cfg.OutputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(output, cfg).WriteHarvest(harvestReport)
	return err
}
