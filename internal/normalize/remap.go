package normalize

import (
	"fmt"
	"slices"

	"github.com/nao1215/csvharvest/internal/model"
)

// Remap reads the CSV file at path and renames its headers to canonical
// names. Cell values and row count are unchanged.
// An unmapped header yields an *UnmappedColumnsError naming the file.
func Remap(path string, mapping *Mapping) (*model.Table, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return RemapTable(table, mapping)
}

// RemapTable returns a copy of table with canonical headers. Rows are shared.
func RemapTable(table *model.Table, mapping *Mapping) (*model.Table, error) {
	unmapped := &UnmappedColumnsError{}
	checkHeader(unmapped, table.Source, table.Header, mapping)
	if !unmapped.empty() {
		return nil, unmapped
	}

	header := make([]string, len(table.Header))
	for i, h := range table.Header {
		header[i], _ = mapping.Lookup(h)
	}

	return &model.Table{
		Source: table.Source,
		Header: header,
		Rows:   table.Rows,
	}, nil
}

// Concatenate stacks tables vertically. The columns are the union of every
// table's columns in first-seen order; cells of columns a table lacks are
// empty. A table naming the same column twice is rejected with
// ErrDuplicateColumn.
func Concatenate(tables []*model.Table) (*model.Table, error) {
	header := make([]string, 0)
	position := make(map[string]int)
	total := 0

	for _, t := range tables {
		inTable := make(map[string]struct{}, len(t.Header))
		for _, col := range t.Header {
			if _, dup := inTable[col]; dup {
				return nil, fmt.Errorf("%w: %q in %s", ErrDuplicateColumn, col, t.Source)
			}
			inTable[col] = struct{}{}
			if _, ok := position[col]; !ok {
				position[col] = len(header)
				header = append(header, col)
			}
		}
		total += len(t.Rows)
	}

	rows := make([][]string, 0, total)
	for _, t := range tables {
		targets := make([]int, len(t.Header))
		for i, col := range t.Header {
			targets[i] = position[col]
		}
		for _, row := range t.Rows {
			out := make([]string, len(header))
			for i, cell := range row {
				if i < len(targets) {
					out[targets[i]] = cell
				}
			}
			rows = append(rows, out)
		}
	}

	return &model.Table{
		Header: slices.Clip(header),
		Rows:   rows,
	}, nil
}
