package database

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/csvharvest/internal/model"
)

// FileName is the name of the SQLite database file inside the data directory.
const FileName = "csvharvest.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Store provides SQLite-based storage for the seen set and download ledger.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite: mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Report links that were processed; never updated or deleted
	CREATE TABLE IF NOT EXISTS seen_links (
		url TEXT PRIMARY KEY,
		csv_url TEXT NOT NULL DEFAULT '',
		run_id TEXT NOT NULL DEFAULT '',
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		seq INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_seen_seq ON seen_links(seq);

	-- Files written by the downloader
	CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL DEFAULT '',
		csv_url TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		sha3 TEXT NOT NULL,
		downloaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_downloads_url ON downloads(csv_url);

	-- One row per harvest run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		listing_url TEXT NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		report_links INTEGER NOT NULL DEFAULT 0,
		csv_links INTEGER NOT NULL DEFAULT 0,
		downloads INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// LoadSeen loads the whole seen set in the order links were first recorded.
// An empty store yields an empty set.
func (s *Store) LoadSeen(ctx context.Context) (*model.LinkSet, error) {
	links, err := s.ListSeen(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewLinkSet(links...), nil
}

// ListSeen returns every seen link in the order it was first recorded.
func (s *Store) ListSeen(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM seen_links ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen links: %w", err)
	}
	defer rows.Close()

	links := make([]string, 0)
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("failed to scan seen link: %w", err)
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

// SaveSeen flushes the pending links of seen in a single transaction and
// marks them flushed. csvLinks maps report links to the CSV link found on
// them, if any. Links already stored are left unchanged.
// It returns the number of links newly stored.
func (s *Store) SaveSeen(ctx context.Context, runID string, seen *model.LinkSet, csvLinks map[string]string) (int, error) {
	pending := seen.Pending()
	if len(pending) == 0 {
		return 0, nil
	}

	n, err := s.insertSeen(ctx, runID, pending, csvLinks)
	if err != nil {
		return 0, err
	}

	seen.MarkFlushed()
	return n, nil
}

func (s *Store) insertSeen(ctx context.Context, runID string, links []string, csvLinks map[string]string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // No-op after commit
	}()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM seen_links`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO seen_links (url, csv_url, run_id, seq)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(url) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, link := range links {
		seq++
		result, err := stmt.ExecContext(ctx, link, csvLinks[link], runID, seq)
		if err != nil {
			return 0, fmt.Errorf("failed to insert seen link %s: %w", link, err)
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seen links: %w", err)
	}

	return inserted, nil
}

// ImportSeenFile imports a legacy seen file: plain text, one URL per line.
// A missing file is not an error; found is false and nothing is imported.
func (s *Store) ImportSeenFile(ctx context.Context, path string) (imported int, found bool, err error) {
	links, found, err := ReadSeenFile(path)
	if err != nil || !found {
		return 0, found, err
	}

	imported, err = s.insertSeen(ctx, "import", links, nil)
	if err != nil {
		return 0, true, err
	}
	return imported, true, nil
}

// ReadSeenFile reads a legacy seen file. Blank lines are skipped.
// A missing file yields found=false and no error.
func ReadSeenFile(path string) (links []string, found bool, err error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	set := model.NewLinkSet()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		set.Add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, true, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return set.Links(), true, nil
}

// Run is a stored harvest run.
type Run struct {
	ID          string
	ListingURL  string
	StartedAt   time.Time
	FinishedAt  time.Time
	ReportLinks int
	CSVLinks    int
	Downloads   int
	Error       string
}

// BeginRun records the start of a harvest run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, listingURL string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (id, listing_url) VALUES (?, ?)`, id, listingURL)
	if err != nil {
		return "", fmt.Errorf("failed to begin run: %w", err)
	}
	return id, nil
}

// FinishRun records the totals of a finished harvest run.
func (s *Store) FinishRun(ctx context.Context, report *model.HarvestReport) error {
	result, err := s.db.ExecContext(ctx, `
	UPDATE runs
	SET finished_at = CURRENT_TIMESTAMP, report_links = ?, csv_links = ?, downloads = ?, error = ?
	WHERE id = ?
	`,
		len(report.ReportLinks),
		len(report.CSVLinks),
		len(report.Downloads),
		report.ErrorMessage,
		report.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, report.RunID)
	}
	return nil
}

// ListRuns returns runs, most recent first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, listing_url, started_at, COALESCE(finished_at, ''), report_links, csv_links, downloads, error
	FROM runs
	ORDER BY started_at DESC, rowid DESC
	`
	args := make([]any, 0)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.ListingURL, &started, &finished, &r.ReportLinks, &r.CSVLinks, &r.Downloads, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// RecordDownload adds a download to the ledger.
func (s *Store) RecordDownload(ctx context.Context, runID string, dl *model.Download) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO downloads (run_id, csv_url, path, size, sha3)
	VALUES (?, ?, ?, ?, ?)
	`, runID, dl.URL, dl.Path, dl.Size, dl.SHA3)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// ListDownloads returns the ledger entries for csvURL, most recent first.
// An empty csvURL returns every entry.
func (s *Store) ListDownloads(ctx context.Context, csvURL string) ([]model.Download, error) {
	query := `SELECT csv_url, path, size, sha3, downloaded_at FROM downloads`
	args := make([]any, 0)
	if csvURL != "" {
		query += " WHERE csv_url = ?"
		args = append(args, csvURL)
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var downloads []model.Download
	for rows.Next() {
		var dl model.Download
		var ts string
		if err := rows.Scan(&dl.URL, &dl.Path, &dl.Size, &dl.SHA3, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		dl.DownloadedAt = parseTimestamp(ts)
		downloads = append(downloads, dl)
	}

	return downloads, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
