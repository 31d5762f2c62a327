package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/csvharvest/internal/config"
	"github.com/nao1215/csvharvest/internal/log"
	"github.com/nao1215/csvharvest/internal/report"
)

// NewRootCmd creates the root command for csvharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csvharvest",
		Short: "Harvest and normalize council open-data CSV reports",
		Long: `csvharvest downloads the CSV reports linked from a council open-data
listing page and unifies their inconsistent column headers into one table.

  harvest    scrape new report links and download their CSV files
  normalize  remap every downloaded file to canonical columns and concatenate
  vocab      list every header found in the downloaded files

Report pages already processed are remembered in a small SQLite database,
so each harvest run only fetches what is new.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-file", "", "Append logs to this file instead of stderr")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .csvharvest in current or home directory)")
	cmd.PersistentFlags().String("data-dir", "",
		"Directory holding the seen-link database (default: XDG data directory)")

	cmd.AddCommand(NewHarvestCmd())
	cmd.AddCommand(NewNormalizeCmd())
	cmd.AddCommand(NewVocabCmd())
	cmd.AddCommand(NewSeenCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration of a command: defaults, then the
// config file, then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	flags := cmd.Flags()
	var err error

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use defaults if no file found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("data-dir") {
		dir, err := flags.GetString("data-dir")
		if err != nil {
			return nil, err
		}
		// The source directory follows the data directory unless set apart.
		if cfg.SourceDir == filepath.Join(cfg.DataDir, config.SourceDirName) {
			cfg.SourceDir = filepath.Join(dir, config.SourceDirName)
		}
		cfg.DataDir = dir
	}
	if flags.Changed("source-dir") {
		if cfg.SourceDir, err = flags.GetString("source-dir"); err != nil {
			return nil, err
		}
	}

	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}
	if flags.Lookup("json") != nil {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("markdown") != nil {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// setupLogger creates the logger of a command from the persistent log flags.
// The returned function closes the log file, if any.
func setupLogger(cmd *cobra.Command, verbose bool) (*slog.Logger, func(), error) {
	path, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return nil, nil, err
	}
	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = cmd.ErrOrStderr()
	closeFn := func() {}
	if path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // User-provided path is intentional
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() } //nolint:errcheck // Best effort on exit
	}

	return log.NewLogger(w, log.Options{Verbose: verbose, JSON: jsonLogs}), closeFn, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// newReportWriter returns the summary writer selected by --json and
// --markdown. The text writer lists every link when --verbose is set.
func newReportWriter(output io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewWriter(output, report.FormatJSON)
	case cfg.MarkdownReport:
		return report.NewWriter(output, report.FormatMarkdown)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// createOutputFile creates or truncates path, creating parent directories.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
