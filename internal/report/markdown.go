package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/csvharvest/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and mermaid charts
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteHarvest outputs the harvest summary in Markdown format.
func (w *MarkdownWriter) WriteHarvest(report *model.HarvestReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Harvest Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Listing", "`" + report.ListingURL + "`"},
			{"Run", "`" + report.RunID + "`"},
			{"Started", report.StartedAt.Format(timeFormat)},
			{"Status", harvestStatus(report)},
		},
	})
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Report links", strconv.Itoa(len(report.ReportLinks))},
			{"Already seen", strconv.Itoa(len(report.Skipped))},
			{"Without CSV", strconv.Itoa(len(report.NoCSV))},
			{"Fetch failures", strconv.Itoa(len(report.Failed))},
			{"CSV links", strconv.Itoa(len(report.CSVLinks))},
			{"Downloads", strconv.Itoa(len(report.Downloads))},
			{"Failed downloads", strconv.Itoa(len(report.FailedDownloads))},
		},
	})
	md.PlainText("")

	if n := len(report.Failed) + len(report.FailedDownloads); n > 0 {
		md.Warningf("%d link(s) failed and will be retried on the next run.", n)
		md.PlainText("")
	}

	if len(report.Downloads) > 0 {
		md.H2("Downloads")
		md.PlainText("")
		rows := make([][]string, len(report.Downloads))
		for i, dl := range report.Downloads {
			rows[i] = []string{
				"`" + dl.Path + "`",
				strconv.FormatInt(dl.Size, 10),
				"`" + truncateString(dl.SHA3, 16) + "`",
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"File", "Bytes", "SHA3-256"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// WriteNormalize outputs the normalization summary in Markdown format.
func (w *MarkdownWriter) WriteNormalize(report *model.NormalizeReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Normalization Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + report.SourceDir + "`"},
			{"Files", strconv.Itoa(len(report.Files))},
			{"Rows", strconv.Itoa(report.TotalRows)},
			{"Columns", strconv.Itoa(len(report.Columns))},
		},
	})
	md.PlainText("")

	md.H2("Files")
	md.PlainText("")
	rows := make([][]string, len(report.Files))
	for i, f := range report.Files {
		rows[i] = []string{f.Name, strconv.Itoa(f.Rows), truncateString(strings.Join(f.RawColumns, ", "), 60)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Rows", "Raw columns"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.TotalRows > 0 {
		w.writeRowsChart(md, report)
	}

	md.H2("Columns")
	md.PlainText("")
	if len(report.Columns) == 0 {
		md.PlainText("No columns.")
	} else {
		md.BulletList(report.Columns...)
	}
	md.PlainText("")

	return len(md.String()), md.Build()
}

// writeRowsChart writes a mermaid pie chart of rows per file.
func (w *MarkdownWriter) writeRowsChart(md *markdown.Markdown, report *model.NormalizeReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Rows per file"),
		piechart.WithShowData(true),
	)
	for _, f := range report.Files {
		if f.Rows > 0 {
			chart.LabelAndIntValue(f.Name, uint64(f.Rows))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// WriteVocabulary outputs the vocabulary as a Markdown table.
func (w *MarkdownWriter) WriteVocabulary(entries []model.VocabularyEntry) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Header Vocabulary")
	md.PlainText("")

	rows := make([][]string, len(entries))
	unmapped := 0
	for i, e := range entries {
		rows[i] = []string{"`" + e.Header + "`", canonicalOrUnmapped(e)}
		if !e.Mapped {
			unmapped++
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Header", "Canonical"},
		Rows:   rows,
	})
	md.PlainText("")

	if unmapped > 0 {
		md.Cautionf("%d header(s) are not mapped; normalization will refuse these files.", unmapped)
	} else {
		md.Tip("Every header is mapped.")
	}
	md.PlainText("")

	return len(md.String()), md.Build()
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
