package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The listing defaults point at the Manchester City Council parking accounts.
const (
	// DefaultListingURL is the page the report links are harvested from.
	DefaultListingURL = "https://www.manchester.gov.uk/open/downloads/91/parking_account"

	// DefaultLinkPrefix selects report landing pages among the listing's anchors.
	DefaultLinkPrefix = "https://www.manchester.gov.uk/open/downloads/file/"

	// DefaultTimeout is the timeout of each HTTP request.
	DefaultTimeout = 10 * time.Second

	// DefaultDownloadTimeout is the timeout of each CSV download.
	// Downloads are streamed and can be much larger than pages.
	DefaultDownloadTimeout = 5 * time.Minute

	// DefaultDelay is waited before every request to the council's site.
	// This is a politeness setting for a small public web server.
	DefaultDelay = 5 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "csvharvest"

	// DefaultUserAgent identifies csvharvest in HTTP requests.
	DefaultUserAgent = "csvharvest/1.0 (+https://github.com/nao1215/csvharvest)"

	// DefaultMaxBodySize limits how much of an HTML page is read.
	// CSV downloads are streamed to disk and are not subject to this limit.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultWorkers is the number of CSV files the normalizer reads at once.
	DefaultWorkers = 4

	// SourceDirName is the name of the download directory under the data directory.
	SourceDirName = "source"
)

// Config holds all configuration options for csvharvest.
// This struct is populated from the config file and CLI flags and passed
// through the application via dependency injection rather than global state.
type Config struct {
	// ListingURL is the page the report links are harvested from.
	ListingURL string

	// LinkPrefix is the URL prefix a listing anchor must have to be treated
	// as a report link.
	LinkPrefix string

	// Timeout is the timeout of each page request.
	Timeout time.Duration

	// DownloadTimeout is the timeout of each CSV download.
	DownloadTimeout time.Duration

	// Delay is waited before every network request.
	Delay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum HTML page size in bytes to read.
	MaxBodySize int64

	// DataDir holds the seen store database.
	// Defaults to the XDG data directory (~/.local/share/csvharvest on Linux).
	DataDir string

	// SourceDir is where CSV files are downloaded to and read from.
	// Defaults to DataDir/source.
	SourceDir string

	// Workers is the number of CSV files the normalizer reads concurrently.
	Workers int

	// ColumnAliases are extra raw header to canonical name mappings
	// added to the built-in mapping table.
	ColumnAliases map[string]string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .csvharvest is searched in the current and home directories.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport selects JSON summary output.
	JSONReport bool

	// MarkdownReport selects Markdown summary output.
	MarkdownReport bool

	// OutputFile is where the unified table is written as CSV.
	// Empty means the table is not persisted.
	OutputFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	dataDir := XDGDataDir()
	return &Config{
		ListingURL:      DefaultListingURL,
		LinkPrefix:      DefaultLinkPrefix,
		Timeout:         DefaultTimeout,
		DownloadTimeout: DefaultDownloadTimeout,
		Delay:           DefaultDelay,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		DataDir:         dataDir,
		SourceDir:       filepath.Join(dataDir, SourceDirName),
		Workers:         DefaultWorkers,
		ColumnAliases:   make(map[string]string),
	}
}

// XDGDataDir returns the XDG data directory for csvharvest.
// On Linux: ~/.local/share/csvharvest
// On macOS: ~/Library/Application Support/csvharvest
// On Windows: %LOCALAPPDATA%\csvharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ApplyFile overlays the non-zero values of a config file onto c.
// Column aliases are merged; file entries win over earlier ones.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.ListingURL != "" {
		c.ListingURL = f.ListingURL
	}
	if f.LinkPrefix != "" {
		c.LinkPrefix = f.LinkPrefix
	}
	if f.Timeout > 0 {
		c.Timeout = f.Timeout
	}
	if f.DownloadTimeout > 0 {
		c.DownloadTimeout = f.DownloadTimeout
	}
	if f.Delay != nil {
		c.Delay = *f.Delay
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.DataDir != "" {
		c.DataDir = f.DataDir
		if f.SourceDir == "" {
			c.SourceDir = filepath.Join(f.DataDir, SourceDirName)
		}
	}
	if f.SourceDir != "" {
		c.SourceDir = f.SourceDir
	}
	if f.Workers > 0 {
		c.Workers = f.Workers
	}
	if len(f.Columns) > 0 {
		if c.ColumnAliases == nil {
			c.ColumnAliases = make(map[string]string, len(f.Columns))
		}
		for raw, canonical := range f.Columns {
			c.ColumnAliases[raw] = canonical
		}
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.ListingURL == "" {
		return ErrNoListingURL
	}
	if c.LinkPrefix == "" {
		return ErrNoLinkPrefix
	}
	if c.Timeout <= 0 || c.DownloadTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.SourceDir == "" || c.DataDir == "" {
		return ErrNoDataDir
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
