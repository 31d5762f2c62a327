package normalize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/csvharvest/internal/model"
)

// writeCSV writes content to dir/name and returns the path.
func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// rows returns a CSV body of n data rows with the given number of columns.
func rows(n, cols int) string {
	var sb strings.Builder
	for i := range n {
		cells := make([]string, cols)
		for j := range cols {
			cells[j] = fmt.Sprintf("r%dc%d", i, j)
		}
		sb.WriteString(strings.Join(cells, ",") + "\n")
	}
	return sb.String()
}

// TestMapping tests the built-in mapping table.
func TestMapping(t *testing.T) {
	t.Parallel()

	m := DefaultMapping()

	t.Run("has every built-in spelling", func(t *testing.T) {
		t.Parallel()

		if m.Len() != 31 {
			t.Errorf("expected 31 entries, got %d", m.Len())
		}
	})

	t.Run("lookups", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			raw  string
			want string
			ok   bool
		}{
			{raw: "Issued", want: "issued_at", ok: true},
			{raw: "ï»¿Issued At", want: "issued_at", ok: true},
			{raw: "Location ", want: "location", ok: true},
			{raw: "Ticket Destinatio", want: "ticket_destination", ok: true},
			{raw: "CEO", want: "zone_name_two", ok: true},
			{raw: "O/S Balance", want: "outstanding_balance", ok: true},
			{raw: "Cont.", want: "contravention_code", ok: true},
			{raw: "issued", ok: false},
			{raw: " Location", ok: false},
			{raw: "", ok: false},
		}

		for _, tt := range tests {
			got, ok := m.Lookup(tt.raw)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		}
	})

	t.Run("canonical columns in definition order", func(t *testing.T) {
		t.Parallel()

		want := []string{
			"issued_at", "organisation_name", "paid", "organisation_code", "status",
			"location", "ward", "ticket_destination", "zone_name", "zone_name_two",
			"outstanding_balance", "zone_description", "contravention_code",
			"contravention_description",
		}
		if diff := cmp.Diff(want, m.CanonicalColumns()); diff != "" {
			t.Errorf("canonical columns mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("aliases add keys but never override", func(t *testing.T) {
		t.Parallel()

		ext, ignored := m.WithAliases(map[string]string{
			"Penalty": "paid",
			"Paid":    "amount",
			"Status":  "status",
			"Borough": "ward",
			"Nothing": "",
		})

		if got, _ := ext.Lookup("Penalty"); got != "paid" {
			t.Errorf("expected alias to be added, got %q", got)
		}
		if got, _ := ext.Lookup("Paid"); got != "paid" {
			t.Errorf("expected built-in key to keep its name, got %q", got)
		}
		if _, ok := ext.Lookup("Nothing"); ok {
			t.Error("expected empty canonical name to be ignored")
		}
		if diff := cmp.Diff([]string{"Paid"}, ignored); diff != "" {
			t.Errorf("ignored mismatch (-want +got):\n%s", diff)
		}
		if _, ok := m.Lookup("Penalty"); ok {
			t.Error("expected original mapping to be unchanged")
		}
	})
}

// TestReadTable tests CSV decoding.
func TestReadTable(t *testing.T) {
	t.Parallel()

	t.Run("byte order mark reads as latin-1 prefix", func(t *testing.T) {
		t.Parallel()

		path := writeCSV(t, t.TempDir(), "bom.csv", "\xef\xbb\xbfIssued At,Paid\n2024-01-01,yes\n")
		header, err := ReadHeader(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if header[0] != bom+"Issued At" {
			t.Errorf("expected BOM prefix, got %q", header[0])
		}
		if _, ok := DefaultMapping().Lookup(header[0]); !ok {
			t.Error("expected BOM header to be mapped")
		}
	})

	t.Run("ragged rows are padded and truncated", func(t *testing.T) {
		t.Parallel()

		path := writeCSV(t, t.TempDir(), "ragged.csv", "Ward,Paid,Status\na\nb,c,d,e\n")
		table, err := ReadTable(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := [][]string{{"a", "", ""}, {"b", "c", "d"}}
		if diff := cmp.Diff(want, table.Rows); diff != "" {
			t.Errorf("rows mismatch (-want +got):\n%s", diff)
		}
		if table.Source != "ragged.csv" {
			t.Errorf("expected source ragged.csv, got %q", table.Source)
		}
	})

	t.Run("latin-1 cells are decoded", func(t *testing.T) {
		t.Parallel()

		path := writeCSV(t, t.TempDir(), "latin.csv", "Location\nCaf\xe9 Street\n")
		table, err := ReadTable(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if table.Rows[0][0] != "Café Street" {
			t.Errorf("expected decoded cell, got %q", table.Rows[0][0])
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		path := writeCSV(t, t.TempDir(), "empty.csv", "")
		table, err := ReadTable(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if table.ColumnCount() != 0 || table.RowCount() != 0 {
			t.Errorf("expected empty table, got %+v", table)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := ReadTable(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

// TestDiscoverFiles tests source directory listing.
func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCSV(t, dir, "b.csv", "Paid\n")
	writeCSV(t, dir, "a.CSV", "Paid\n")
	writeCSV(t, dir, "notes.txt", "x")
	writeCSV(t, dir, ".download-123", "Paid\n")
	if err := os.Mkdir(filepath.Join(dir, "old.csv"), 0750); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	got, err := DiscoverFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{filepath.Join(dir, "a.CSV"), filepath.Join(dir, "b.csv")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}

	if _, err := DiscoverFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

// TestCollectHeaderVocabulary tests header collection.
func TestCollectHeaderVocabulary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "Issued,Paid,\n1,2,3\n")
	b := writeCSV(t, dir, "b.csv", "Paid,Ward\n")

	got, err := CollectHeaderVocabulary([]string{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Issued", "Paid", "Ward"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vocabulary mismatch (-want +got):\n%s", diff)
	}
}

// TestValidateHeaders tests header validation.
func TestValidateHeaders(t *testing.T) {
	t.Parallel()

	t.Run("reports file with unmapped header", func(t *testing.T) {
		t.Parallel()

		path := writeCSV(t, t.TempDir(), "a.csv", "Issued,Paid\n")
		mapping := NewMapping(map[string]string{"Issued": "issued_at"})

		got, err := ValidateHeaders([]string{path}, mapping)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"a.csv"}, got); diff != "" {
			t.Errorf("offending files mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty when every header is mapped", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		a := writeCSV(t, dir, "a.csv", "Issued,Paid\n")
		b := writeCSV(t, dir, "b.csv", "Issued At,Location \n")

		got, err := ValidateHeaders([]string{a, b}, DefaultMapping())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no offending files, got %v", got)
		}
	})

	t.Run("each file is reported once in input order", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		z := writeCSV(t, dir, "z.csv", "Foo,Bar\n")
		ok := writeCSV(t, dir, "ok.csv", "Paid\n")
		a := writeCSV(t, dir, "a.csv", "Paid,Baz\n")

		got, err := ValidateHeaders([]string{z, ok, a}, DefaultMapping())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"z.csv", "a.csv"}, got); diff != "" {
			t.Errorf("offending files mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("same base name in two directories is reported twice", func(t *testing.T) {
		t.Parallel()

		first := writeCSV(t, t.TempDir(), "jan.csv", "Foo\n")
		second := writeCSV(t, t.TempDir(), "jan.csv", "Bar\n")

		got, err := ValidateHeaders([]string{first, second}, DefaultMapping())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"jan.csv", "jan.csv"}, got); diff != "" {
			t.Errorf("offending files mismatch (-want +got):\n%s", diff)
		}

		unmapped, err := findUnmapped([]string{first, second}, DefaultMapping())
		if err != nil {
			t.Fatal(err)
		}
		want := []UnmappedFile{
			{Path: first, Columns: []string{"Foo"}},
			{Path: second, Columns: []string{"Bar"}},
		}
		if diff := cmp.Diff(want, unmapped.Entries); diff != "" {
			t.Errorf("entries mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("I/O error is returned", func(t *testing.T) {
		t.Parallel()

		_, err := ValidateHeaders([]string{filepath.Join(t.TempDir(), "nope.csv")}, DefaultMapping())
		if err == nil {
			t.Error("expected error for missing file")
		}
	})
}

// TestRemap tests header renaming.
func TestRemap(t *testing.T) {
	t.Parallel()

	t.Run("renames headers and keeps cells", func(t *testing.T) {
		t.Parallel()

		path := writeCSV(t, t.TempDir(), "a.csv", "Issued At,OS Bal\n2024-01-01,10.00\n2024-01-02,0\n")
		table, err := Remap(path, DefaultMapping())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := &model.Table{
			Source: "a.csv",
			Header: []string{"issued_at", "outstanding_balance"},
			Rows:   [][]string{{"2024-01-01", "10.00"}, {"2024-01-02", "0"}},
		}
		if diff := cmp.Diff(want, table); diff != "" {
			t.Errorf("table mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("fails closed on unmapped header", func(t *testing.T) {
		t.Parallel()

		path := writeCSV(t, t.TempDir(), "a.csv", "Issued,Mystery\n1,2\n")
		_, err := Remap(path, DefaultMapping())

		var unmapped *UnmappedColumnsError
		if !errors.As(err, &unmapped) {
			t.Fatalf("expected UnmappedColumnsError, got %v", err)
		}
		want := []UnmappedFile{{Path: "a.csv", Columns: []string{"Mystery"}}}
		if diff := cmp.Diff(want, unmapped.Entries); diff != "" {
			t.Errorf("columns mismatch (-want +got):\n%s", diff)
		}
		if !errors.Is(err, ErrUnmappedColumns) {
			t.Error("expected errors.Is to match ErrUnmappedColumns")
		}
	})
}

// TestConcatenate tests table stacking.
func TestConcatenate(t *testing.T) {
	t.Parallel()

	t.Run("row count is the sum of inputs", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		a := writeCSV(t, dir, "a.csv", "Issued,Paid\n"+rows(10, 2))
		b := writeCSV(t, dir, "b.csv", "Issued At,Paid\n"+rows(5, 2))

		var tables []*model.Table
		for _, p := range []string{a, b} {
			table, err := Remap(p, DefaultMapping())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tables = append(tables, table)
		}

		unified, err := Concatenate(tables)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if unified.RowCount() != 15 {
			t.Errorf("expected 15 rows, got %d", unified.RowCount())
		}
		if diff := cmp.Diff([]string{"issued_at", "paid"}, unified.Header); diff != "" {
			t.Errorf("header mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing columns are empty", func(t *testing.T) {
		t.Parallel()

		unified, err := Concatenate([]*model.Table{
			{Source: "a.csv", Header: []string{"paid", "ward"}, Rows: [][]string{{"1", "x"}}},
			{Source: "b.csv", Header: []string{"status", "paid"}, Rows: [][]string{{"open", "2"}}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := &model.Table{
			Header: []string{"paid", "ward", "status"},
			Rows:   [][]string{{"1", "x", ""}, {"2", "", "open"}},
		}
		if diff := cmp.Diff(want, unified); diff != "" {
			t.Errorf("table mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("duplicate canonical column is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := Concatenate([]*model.Table{
			{Source: "a.csv", Header: []string{"zone_name", "zone_name"}},
		})
		if !errors.Is(err, ErrDuplicateColumn) {
			t.Errorf("expected ErrDuplicateColumn, got %v", err)
		}
	})

	t.Run("no tables", func(t *testing.T) {
		t.Parallel()

		unified, err := Concatenate(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if unified.RowCount() != 0 || unified.ColumnCount() != 0 {
			t.Errorf("expected empty table, got %+v", unified)
		}
	})
}

// TestNormalizerRun tests the full normalization run.
func TestNormalizerRun(t *testing.T) {
	t.Parallel()

	t.Run("unifies all files in name order", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeCSV(t, dir, "2024-02.csv", "Issued Time/Date,Paid,Ward\n"+rows(3, 3))
		writeCSV(t, dir, "2024-01.csv", "Issued,Paid\n"+rows(2, 2))
		writeCSV(t, dir, "2024-03.csv", "\xef\xbb\xbfIssued At,Status\n"+rows(4, 2))

		report, err := New(WithWorkers(2)).Run(context.Background(), dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.TotalRows != 9 {
			t.Errorf("expected 9 rows, got %d", report.TotalRows)
		}
		if diff := cmp.Diff([]string{"issued_at", "paid", "ward", "status"}, report.Columns); diff != "" {
			t.Errorf("columns mismatch (-want +got):\n%s", diff)
		}

		names := make([]string, 0, len(report.Files))
		for _, f := range report.Files {
			names = append(names, f.Name)
		}
		if diff := cmp.Diff([]string{"2024-01.csv", "2024-02.csv", "2024-03.csv"}, names); diff != "" {
			t.Errorf("file order mismatch (-want +got):\n%s", diff)
		}
		if report.Table.Rows[0][0] != "r0c0" || report.Table.Rows[2][1] != "r0c1" {
			t.Errorf("rows out of order: %v", report.Table.Rows[:3])
		}
	})

	t.Run("unmapped headers abort the batch", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeCSV(t, dir, "a.csv", "Issued,Paid\n")
		writeCSV(t, dir, "b.csv", "Issued,Foo\n")
		writeCSV(t, dir, "c.csv", "Bar\n")

		report, err := New().Run(context.Background(), dir)
		if report != nil {
			t.Error("expected no report")
		}

		var unmapped *UnmappedColumnsError
		if !errors.As(err, &unmapped) {
			t.Fatalf("expected UnmappedColumnsError, got %v", err)
		}
		if diff := cmp.Diff([]string{"b.csv", "c.csv"}, unmapped.Files()); diff != "" {
			t.Errorf("files mismatch (-want +got):\n%s", diff)
		}
		if !strings.Contains(err.Error(), "b.csv") || !strings.Contains(err.Error(), `"Bar"`) {
			t.Errorf("expected error to name files and columns, got %q", err.Error())
		}
	})

	t.Run("extra aliases are honored", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeCSV(t, dir, "a.csv", "Issued,Penalty\n1,2\n")

		mapping, _ := DefaultMapping().WithAliases(map[string]string{"Penalty": "paid"})
		report, err := New(WithMapping(mapping)).Run(context.Background(), dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"issued_at", "paid"}, report.Columns); diff != "" {
			t.Errorf("columns mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()

		_, err := New().Run(context.Background(), t.TempDir())
		if !errors.Is(err, ErrNoSourceFiles) {
			t.Errorf("expected ErrNoSourceFiles, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeCSV(t, dir, "a.csv", "Issued,Paid\n1,2\n")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := New().Run(ctx, dir); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
