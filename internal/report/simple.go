package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/csvharvest/internal/model"
)

// timeFormat is used for every timestamp in text and Markdown output.
const timeFormat = "2006-01-02 15:04:05 MST"

// SimpleWriter outputs human-readable text reports.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because the output is usually piped to a file by cron.
type SimpleWriter struct {
	baseWriter

	// verbose lists every link instead of only the counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteHarvest outputs the harvest summary.
func (w *SimpleWriter) WriteHarvest(report *model.HarvestReport) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "HARVEST REPORT")

	fmt.Fprintf(&sb, "Listing:        %s\n", report.ListingURL)
	fmt.Fprintf(&sb, "Run:            %s\n", report.RunID)
	fmt.Fprintf(&sb, "Started:        %s\n", report.StartedAt.Format(timeFormat))
	fmt.Fprintf(&sb, "Status:         %s\n", harvestStatus(report))
	sb.WriteString("\n")

	writeSection(&sb, "SUMMARY")
	fmt.Fprintf(&sb, "  Report links:      %d\n", len(report.ReportLinks))
	fmt.Fprintf(&sb, "  Already seen:      %d\n", len(report.Skipped))
	fmt.Fprintf(&sb, "  Without CSV:       %d\n", len(report.NoCSV))
	fmt.Fprintf(&sb, "  Fetch failures:    %d\n", len(report.Failed))
	fmt.Fprintf(&sb, "  CSV links:         %d\n", len(report.CSVLinks))
	fmt.Fprintf(&sb, "  Downloads:         %d\n", len(report.Downloads))
	fmt.Fprintf(&sb, "  Failed downloads:  %d\n", len(report.FailedDownloads))
	sb.WriteString("\n")

	if len(report.Downloads) > 0 {
		writeSection(&sb, "DOWNLOADS")
		for _, dl := range report.Downloads {
			fmt.Fprintf(&sb, "  [+] %s (%d bytes)\n", dl.Path, dl.Size)
			if w.verbose {
				fmt.Fprintf(&sb, "      from: %s\n", dl.URL)
				fmt.Fprintf(&sb, "      sha3: %s\n", dl.SHA3)
			}
		}
		sb.WriteString("\n")
	}

	if len(report.Failed)+len(report.FailedDownloads) > 0 {
		writeSection(&sb, "RETRIED NEXT RUN")
		for _, l := range report.Failed {
			fmt.Fprintf(&sb, "  [!] %s\n", l)
		}
		for _, l := range report.FailedDownloads {
			fmt.Fprintf(&sb, "  [!] %s\n", l)
		}
		sb.WriteString("\n")
	}

	if w.verbose && len(report.NoCSV) > 0 {
		writeSection(&sb, "PAGES WITHOUT CSV")
		for _, l := range report.NoCSV {
			fmt.Fprintf(&sb, "  [-] %s\n", l)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// WriteNormalize outputs the normalization summary.
func (w *SimpleWriter) WriteNormalize(report *model.NormalizeReport) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "NORMALIZATION REPORT")

	fmt.Fprintf(&sb, "Source:         %s\n", report.SourceDir)
	fmt.Fprintf(&sb, "Files:          %d\n", len(report.Files))
	fmt.Fprintf(&sb, "Rows:           %d\n", report.TotalRows)
	fmt.Fprintf(&sb, "Columns:        %d\n", len(report.Columns))
	sb.WriteString("\n")

	writeSection(&sb, "FILES")
	for _, f := range report.Files {
		fmt.Fprintf(&sb, "  %-40s %8d rows\n", f.Name, f.Rows)
		if w.verbose {
			fmt.Fprintf(&sb, "      columns: %s\n", strings.Join(f.RawColumns, " | "))
		}
	}
	sb.WriteString("\n")

	writeSection(&sb, "COLUMNS")
	for _, c := range report.Columns {
		fmt.Fprintf(&sb, "  %s\n", c)
	}
	sb.WriteString("\n")

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// WriteVocabulary outputs one "header -> canonical" line per entry.
func (w *SimpleWriter) WriteVocabulary(entries []model.VocabularyEntry) (int, error) {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%q -> %s\n", e.Header, canonicalOrUnmapped(e))
	}
	return io.WriteString(w.output, sb.String())
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	pad := max((70-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad) + title + "\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// harvestStatus returns the one-line run status.
func harvestStatus(report *model.HarvestReport) string {
	switch {
	case report.TimedOut:
		return "CANCELLED (partial results)"
	case report.ErrorMessage != "":
		return "ERROR - " + report.ErrorMessage
	default:
		return "Complete"
	}
}

// unmappedLabel marks a header the mapping does not know.
const unmappedLabel = "<unmapped>"

func canonicalOrUnmapped(e model.VocabularyEntry) string {
	if !e.Mapped {
		return unmappedLabel
	}
	return e.Canonical
}
