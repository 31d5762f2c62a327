package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/text/encoding/charmap"

	"github.com/nao1215/csvharvest/internal/model"
)

// newCSVReader returns a lenient CSV reader over r decoded as ISO-8859-1.
//
// Design decision: The published files mix encodings and some start with a
// UTF-8 byte order mark. Decoding everything as ISO-8859-1 never fails and
// turns the mark into the "ï»¿" prefix the mapping already knows about.
func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// ReadHeader reads only the header row of a CSV file.
// An empty file has an empty header.
func ReadHeader(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // Paths come from DiscoverFiles or the user
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := newCSVReader(f).Read()
	if errors.Is(err, io.EOF) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", filepath.Base(path), err)
	}
	return header, nil
}

// ReadTable reads a whole CSV file. The first row is the header.
// Rows shorter than the header are padded with empty cells and longer rows
// are truncated, so every row has exactly len(Header) cells.
func ReadTable(path string) (*model.Table, error) {
	f, err := os.Open(path) //nolint:gosec // Paths come from DiscoverFiles or the user
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(path)
	table := &model.Table{
		Source: name,
		Header: []string{},
		Rows:   [][]string{},
	}

	cr := newCSVReader(f)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	table.Header = header

	width := len(header)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		switch {
		case len(record) > width:
			record = record[:width]
		case len(record) < width:
			record = slices.Grow(record, width-len(record))
			for len(record) < width {
				record = append(record, "")
			}
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}
