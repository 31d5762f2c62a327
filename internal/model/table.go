package model

// Table is an in-memory CSV table.
//
// A raw table carries the header row exactly as found in the source file.
// A normalized table carries canonical column names. Every row has exactly
// len(Header) cells; readers pad or truncate ragged rows.
type Table struct {
	// Source is the base name of the file the table was read from.
	// Empty for the unified table.
	Source string `json:"source,omitempty"`

	// Header holds the column names.
	Header []string `json:"header"`

	// Rows holds the data rows.
	Rows [][]string `json:"rows"`
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.Header)
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Column returns every value of the named column.
// It returns nil if the column does not exist.
func (t *Table) Column(name string) []string {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values
}
