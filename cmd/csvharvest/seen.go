package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/csvharvest/internal/database"
)

// NewSeenCmd creates the seen command and its subcommands.
func NewSeenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seen",
		Short: "Inspect or import the set of report pages already processed",
		Long: `Seen manages the set of report pages that harvest will not fetch again.

The set lives in the SQLite database in the data directory. Pages are only
ever added; a page stays seen once it has been fetched.`,
	}

	cmd.AddCommand(newSeenListCmd())
	cmd.AddCommand(newSeenImportCmd())

	return cmd
}

// newSeenListCmd creates the "seen list" command.
func newSeenListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every seen report page, the recent runs, or the download ledger",
		Args:  cobra.NoArgs,
		RunE:  runSeenListCmd,
	}

	cmd.Flags().IntP("runs", "r", 0, "Print the N most recent harvest runs instead of the seen pages")
	cmd.Flags().BoolP("downloads", "d", false, "Print the downloaded files, most recent first, instead of the seen pages")
	cmd.Flags().String("csv-url", "", "With --downloads, only print downloads of this CSV URL")

	return cmd
}

// runSeenListCmd executes the "seen list" command.
func runSeenListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := cmd.Flags().GetInt("runs")
	if err != nil {
		return err
	}
	downloads, err := cmd.Flags().GetBool("downloads")
	if err != nil {
		return err
	}
	csvURL, err := cmd.Flags().GetString("csv-url")
	if err != nil {
		return err
	}

	store, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if runs > 0 {
		list, err := store.ListRuns(cmd.Context(), runs)
		if err != nil {
			return err
		}
		for _, r := range list {
			finished := "running"
			if !r.FinishedAt.IsZero() {
				finished = r.FinishedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(out, "%s  %s  %s  links=%d csv=%d downloads=%d",
				r.ID, r.StartedAt.Format(time.RFC3339), finished, r.ReportLinks, r.CSVLinks, r.Downloads)
			if r.Error != "" {
				fmt.Fprintf(out, "  error=%q", r.Error)
			}
			fmt.Fprintln(out)
		}
		return nil
	}

	if downloads {
		list, err := store.ListDownloads(cmd.Context(), csvURL)
		if err != nil {
			return err
		}
		for _, dl := range list {
			fmt.Fprintf(out, "%s  %s  %d bytes  sha3=%s  %s\n",
				dl.DownloadedAt.Format(time.RFC3339), dl.Path, dl.Size, dl.SHA3, dl.URL)
		}
		return nil
	}

	links, err := store.ListSeen(cmd.Context())
	if err != nil {
		return err
	}
	for _, l := range links {
		fmt.Fprintln(out, l)
	}
	return nil
}

// newSeenImportCmd creates the "seen import" command.
func newSeenImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a plain-text seen file (one URL per line)",
		Long: `Import adds every URL of a plain-text file, one per line, to the seen set.
This migrates the file written by earlier versions of the downloader.
A missing file is reported and leaves the seen set unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: runSeenImportCmd,
	}
}

// runSeenImportCmd executes the "seen import" command.
func runSeenImportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cmd, cfg.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	imported, found, err := store.ImportSeenFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", args[0], err)
	}
	if !found {
		logger.Warn("seen file not found, nothing imported", "path", args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "No seen file at %s; nothing imported\n", args[0])
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new link(s) from %s\n", imported, args[0])
	return nil
}
