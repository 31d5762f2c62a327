package report

import (
	"encoding/csv"
	"io"

	"github.com/nao1215/csvharvest/internal/model"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface so the commands pick a format once
// (from --json / --markdown) and never branch on it again.
type Writer interface {
	// WriteHarvest outputs the summary of a harvest run.
	WriteHarvest(report *model.HarvestReport) (int, error)

	// WriteNormalize outputs the summary of a normalization run.
	WriteNormalize(report *model.NormalizeReport) (int, error)

	// WriteVocabulary outputs the header vocabulary and its mapping.
	WriteVocabulary(entries []model.VocabularyEntry) (int, error)
}

// Format selects a Writer implementation.
type Format int

const (
	// FormatText is the human-readable default.
	FormatText Format = iota
	// FormatMarkdown is Markdown.
	FormatMarkdown
	// FormatJSON is pretty-printed JSON.
	FormatJSON
)

// NewWriter returns the Writer for format.
func NewWriter(output io.Writer, format Format) Writer {
	switch format {
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	default:
		return NewSimpleWriter(output)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// WriteCSV writes table as UTF-8 CSV, header row first.
func WriteCSV(output io.Writer, table *model.Table) error {
	cw := csv.NewWriter(output)
	if err := cw.Write(table.Header); err != nil {
		return err
	}
	// WriteAll flushes.
	return cw.WriteAll(table.Rows)
}
