package model

import "time"

// HarvestReport is the result of one harvest run.
//
// Design decision: Like the pipeline steps that fill it, the report is a
// single struct passed by pointer through every step. Each step appends to
// its own section so the final summary can be written without re-deriving
// anything.
type HarvestReport struct {
	// RunID identifies the run in the store.
	RunID string `json:"run_id"`

	// ListingURL is the page the report links were harvested from.
	ListingURL string `json:"listing_url"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended. Zero while running.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// ReportLinks are the candidate report links found on the listing page.
	ReportLinks []string `json:"report_links"`

	// Skipped are report links already in the seen set.
	Skipped []string `json:"skipped,omitempty"`

	// NoCSV are report links whose page had no CSV link.
	NoCSV []string `json:"no_csv,omitempty"`

	// Failed are report links whose page could not be fetched.
	// They are not recorded as seen, so the next run retries them.
	Failed []string `json:"failed,omitempty"`

	// CSVLinks are the download links resolved during this run.
	CSVLinks []CSVLink `json:"csv_links,omitempty"`

	// Downloads are the files written during this run.
	Downloads []Download `json:"downloads,omitempty"`

	// FailedDownloads are CSV URLs that could not be downloaded.
	FailedDownloads []string `json:"failed_downloads,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut is true if the run was cancelled before all steps ran.
	TimedOut bool `json:"timed_out"`

	// Error is the last step error, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error.
	ErrorMessage string `json:"error,omitempty"`

	// Seen is the seen set shared by the steps of this run.
	Seen *LinkSet `json:"-"`
}

// NewHarvestReport creates a report for a run against listingURL.
func NewHarvestReport(runID, listingURL string, seen *LinkSet) *HarvestReport {
	if seen == nil {
		seen = NewLinkSet()
	}
	return &HarvestReport{
		RunID:       runID,
		ListingURL:  listingURL,
		StartedAt:   time.Now(),
		ReportLinks: make([]string, 0),
		Seen:        seen,
	}
}

// CSVLink pairs a report landing page with the CSV it links to.
type CSVLink struct {
	// ReportURL is the landing page the link was found on.
	ReportURL string `json:"report_url"`

	// URL is the CSV download URL.
	URL string `json:"url"`
}

// Download describes one CSV file written to local storage.
type Download struct {
	// URL is the CSV download URL.
	URL string `json:"url"`

	// Path is the local file path.
	Path string `json:"path"`

	// Size is the number of bytes written.
	Size int64 `json:"size"`

	// SHA3 is the hex-encoded SHA3-256 digest of the file content.
	SHA3 string `json:"sha3"`

	// DownloadedAt is when the download finished.
	DownloadedAt time.Time `json:"downloaded_at"`
}

// NormalizeReport is the result of one normalization run.
type NormalizeReport struct {
	// SourceDir is the directory the CSV files were discovered in.
	SourceDir string `json:"source_dir"`

	// Files summarizes each source file in processing order.
	Files []FileSummary `json:"files"`

	// Columns is the canonical column set of the unified table.
	Columns []string `json:"columns"`

	// TotalRows is the row count of the unified table.
	TotalRows int `json:"total_rows"`

	// Table is the unified table. Nil when the batch was rejected.
	Table *Table `json:"-"`
}

// FileSummary describes one source file of a normalization run.
type FileSummary struct {
	// Name is the file's base name.
	Name string `json:"name"`

	// Rows is the number of data rows.
	Rows int `json:"rows"`

	// RawColumns is the header row as found in the file.
	RawColumns []string `json:"raw_columns"`
}

// VocabularyEntry is one raw header and the canonical name it maps to.
type VocabularyEntry struct {
	// Header is the raw header as found in a source file.
	Header string `json:"header"`

	// Canonical is the mapped name. Empty when Mapped is false.
	Canonical string `json:"canonical,omitempty"`

	// Mapped reports whether the mapping knows Header.
	Mapped bool `json:"mapped"`
}
