package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/csvharvest/internal/model"
	"github.com/nao1215/csvharvest/internal/normalize"
)

// NewVocabCmd creates the vocab command.
func NewVocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "List every column header found in the downloaded files",
		Long: `Vocab reads only the header row of every CSV file in the source directory
and prints each distinct header once, in the order first seen, together with
the canonical column it maps to or <unmapped>.

Use it to find the spellings to add under "columns:" in the configuration
file before running normalize.

Examples:
  csvharvest vocab
  csvharvest vocab --unmapped
  csvharvest vocab --markdown > vocabulary.md`,
		Args: cobra.NoArgs,
		RunE: runVocabCmd,
	}

	cmd.Flags().StringP("source-dir", "s", "",
		"Directory of CSV files to inspect (default: <data-dir>/source)")
	cmd.Flags().BoolP("unmapped", "u", false,
		"Only list headers the mapping does not know")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

// runVocabCmd executes the vocab command.
func runVocabCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	onlyUnmapped, err := cmd.Flags().GetBool("unmapped")
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cmd, cfg.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	paths, err := normalize.DiscoverFiles(cfg.SourceDir)
	if err != nil {
		return err
	}
	headers, err := normalize.CollectHeaderVocabulary(paths)
	if err != nil {
		return err
	}
	logger.Debug("header vocabulary collected", "files", len(paths), "headers", len(headers))

	entries := vocabularyEntries(headers, buildMapping(cfg, logger), onlyUnmapped)
	_, err = newReportWriter(cmd.OutOrStdout(), cfg).WriteVocabulary(entries)
	return err
}

// vocabularyEntries pairs every header with its canonical name.
func vocabularyEntries(headers []string, mapping *normalize.Mapping, onlyUnmapped bool) []model.VocabularyEntry {
	entries := make([]model.VocabularyEntry, 0, len(headers))
	for _, h := range headers {
		canonical, ok := mapping.Lookup(h)
		if ok && onlyUnmapped {
			continue
		}
		entries = append(entries, model.VocabularyEntry{Header: h, Canonical: canonical, Mapped: ok})
	}
	return entries
}
