package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/csvharvest/internal/config"
	"github.com/nao1215/csvharvest/internal/model"
)

// Normalizer turns a directory of CSV reports into one unified table.
type Normalizer struct {
	// mapping folds raw headers onto canonical names.
	mapping *Mapping

	// workers bounds how many files are loaded at once.
	workers int

	// logger receives progress records.
	logger *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMapping sets the header mapping.
func WithMapping(m *Mapping) Option {
	return func(n *Normalizer) {
		n.mapping = m
	}
}

// WithWorkers sets the number of files loaded concurrently.
// Values below 1 are treated as 1.
func WithWorkers(workers int) Option {
	return func(n *Normalizer) {
		n.workers = max(workers, 1)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// New creates a Normalizer using the built-in mapping by default.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		mapping: DefaultMapping(),
		workers: config.DefaultWorkers,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = slog.New(slog.DiscardHandler)
	}
	return n
}

// Mapping returns the mapping in use.
func (n *Normalizer) Mapping() *Mapping {
	return n.mapping
}

// Run discovers the CSV files of dir, validates every header and, only if
// all headers are mapped, remaps and concatenates the files.
//
// A validation failure returns an *UnmappedColumnsError naming every
// offending file and nothing is loaded. A directory without CSV files
// returns ErrNoSourceFiles.
func (n *Normalizer) Run(ctx context.Context, dir string) (*model.NormalizeReport, error) {
	paths, err := DiscoverFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSourceFiles, dir)
	}
	n.logger.Info("CSV files discovered", "dir", dir, "count", len(paths))

	unmapped, err := findUnmapped(paths, n.mapping)
	if err != nil {
		return nil, err
	}
	if !unmapped.empty() {
		for _, f := range unmapped.Entries {
			n.logger.Error("unmapped columns", "file", f.Path, "columns", f.Columns)
		}
		return nil, unmapped
	}
	n.logger.Debug("headers validated", "files", len(paths))

	raw, err := n.load(ctx, paths)
	if err != nil {
		return nil, err
	}

	report := &model.NormalizeReport{
		SourceDir: dir,
		Files:     make([]model.FileSummary, 0, len(raw)),
	}
	remapped := make([]*model.Table, 0, len(raw))
	for _, t := range raw {
		r, err := RemapTable(t, n.mapping)
		if err != nil {
			return nil, err
		}
		remapped = append(remapped, r)
		report.Files = append(report.Files, model.FileSummary{
			Name:       t.Source,
			Rows:       t.RowCount(),
			RawColumns: t.Header,
		})
	}

	unified, err := Concatenate(remapped)
	if err != nil {
		return nil, err
	}
	report.Table = unified
	report.Columns = unified.Header
	report.TotalRows = unified.RowCount()

	n.logger.Info("tables concatenated", "files", len(remapped), "rows", report.TotalRows, "columns", len(report.Columns))
	return report, nil
}

// load reads every file with at most n.workers in flight.
// The result is in the same order as paths.
func (n *Normalizer) load(ctx context.Context, paths []string) ([]*model.Table, error) {
	tables := make([]*model.Table, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)

	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := ReadTable(p)
			if err != nil {
				return err
			}
			n.logger.Debug("file loaded", "file", filepath.Base(p), "rows", t.RowCount())
			tables[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}
