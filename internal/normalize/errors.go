package normalize

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ErrUnmappedColumns is matched by every *UnmappedColumnsError.
var ErrUnmappedColumns = errors.New("unmapped columns")

// ErrDuplicateColumn is returned when two columns of one file map to the
// same canonical name.
var ErrDuplicateColumn = errors.New("duplicate canonical column")

// ErrNoSourceFiles is returned when the source directory holds no CSV files.
var ErrNoSourceFiles = errors.New("no CSV files found")

// UnmappedFile is one file with headers the mapping does not know.
type UnmappedFile struct {
	// Path is the file as it was given to the validator.
	Path string

	// Columns are the unmapped headers in header order, each once.
	Columns []string
}

// UnmappedColumnsError names every file with at least one header that the
// mapping does not know. Files are kept apart by path, so two files with the
// same base name in different directories are reported separately.
type UnmappedColumnsError struct {
	// Entries are the offending files in input order.
	Entries []UnmappedFile
}

// Files returns the base names of the offending files in input order.
func (e *UnmappedColumnsError) Files() []string {
	names := make([]string, len(e.Entries))
	for i, f := range e.Entries {
		names[i] = filepath.Base(f.Path)
	}
	return names
}

// Error implements the error interface.
func (e *UnmappedColumnsError) Error() string {
	parts := make([]string, 0, len(e.Entries))
	for _, f := range e.Entries {
		quoted := make([]string, 0, len(f.Columns))
		for _, c := range f.Columns {
			quoted = append(quoted, fmt.Sprintf("%q", c))
		}
		parts = append(parts, fmt.Sprintf("%s [%s]", filepath.Base(f.Path), strings.Join(quoted, ", ")))
	}
	return fmt.Sprintf("%s in %d file(s): %s", ErrUnmappedColumns, len(e.Entries), strings.Join(parts, "; "))
}

// Is reports whether target is ErrUnmappedColumns.
func (e *UnmappedColumnsError) Is(target error) bool {
	return target == ErrUnmappedColumns
}

// add records an unmapped header of the file at path, once.
func (e *UnmappedColumnsError) add(path, column string) {
	for i := range e.Entries {
		f := &e.Entries[i]
		if f.Path != path {
			continue
		}
		if !slices.Contains(f.Columns, column) {
			f.Columns = append(f.Columns, column)
		}
		return
	}
	e.Entries = append(e.Entries, UnmappedFile{Path: path, Columns: []string{column}})
}

// empty reports whether nothing was recorded.
func (e *UnmappedColumnsError) empty() bool {
	return len(e.Entries) == 0
}
