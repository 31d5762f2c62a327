package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/csvharvest/internal/config"
	"github.com/nao1215/csvharvest/internal/normalize"
	"github.com/nao1215/csvharvest/internal/report"
)

// NewNormalizeCmd creates the normalize command.
func NewNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Unify the columns of the downloaded CSV files",
		Long: `Normalize reads every CSV file in the source directory, renames each
header to its canonical column name, and concatenates all files into one table.

All headers are checked before any file is loaded. If a header is not in the
mapping table, nothing is written and the command fails naming every file
that needs attention. Run "csvharvest vocab" to see which headers are missing,
then add them under "columns:" in the configuration file.

Examples:
  # Check the downloaded files and print a summary
  csvharvest normalize

  # Write the unified table
  csvharvest normalize -o parking.csv

  # Normalize a local directory and print a JSON summary
  csvharvest normalize --source-dir ./data/source --json`,
		Args: cobra.NoArgs,
		RunE: runNormalizeCmd,
	}

	cmd.Flags().StringP("source-dir", "s", "",
		"Directory of CSV files to normalize (default: <data-dir>/source)")
	cmd.Flags().StringP("output", "o", "",
		"Write the unified table as CSV to this file (creates directories if needed)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of files read concurrently")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")

	return cmd
}

// runNormalizeCmd executes the normalize command.
func runNormalizeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
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

	n := normalize.New(
		normalize.WithMapping(buildMapping(cfg, logger)),
		normalize.WithWorkers(cfg.Workers),
		normalize.WithLogger(logger),
	)

	result, err := n.Run(ctx, cfg.SourceDir)
	if err != nil {
		return err
	}

	if cfg.OutputFile != "" {
		f, err := createOutputFile(cfg.OutputFile)
		if err != nil {
			return err
		}
		if err := report.WriteCSV(f, result.Table); err != nil {
			_ = f.Close() //nolint:errcheck // Write error takes precedence
			return fmt.Errorf("failed to write %s: %w", cfg.OutputFile, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", cfg.OutputFile, err)
		}
		logger.Info("unified table written", "path", cfg.OutputFile, "rows", result.TotalRows)
	}

	_, err = newReportWriter(cmd.OutOrStdout(), cfg).WriteNormalize(result)
	return err
}

// buildMapping returns the built-in mapping extended with the configured
// aliases. Aliases that try to change a built-in spelling are ignored.
func buildMapping(cfg *config.Config, logger *slog.Logger) *normalize.Mapping {
	mapping, ignored := normalize.DefaultMapping().WithAliases(cfg.ColumnAliases)
	for _, raw := range ignored {
		logger.Warn("column alias ignored: header already mapped", "header", raw)
	}
	logger.Debug("column mapping ready",
		"spellings", mapping.Len(),
		"columns", mapping.CanonicalColumns(),
	)
	return mapping
}
