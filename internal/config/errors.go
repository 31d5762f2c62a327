package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrNoListingURL is returned when the listing page URL is empty.
	ErrNoListingURL = errors.New("no listing URL: set listingURL or use --listing-url")

	// ErrNoLinkPrefix is returned when the report link prefix is empty.
	// An empty prefix would treat every anchor of the listing as a report.
	ErrNoLinkPrefix = errors.New("no link prefix: set linkPrefix or use --link-prefix")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidWorkers is returned when the normalizer worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrNoDataDir is returned when the data or source directory is empty.
	ErrNoDataDir = errors.New("no data directory configured")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
