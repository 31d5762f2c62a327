package crawler

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/csvharvest/internal/config"
	"github.com/nao1215/csvharvest/internal/model"
)

// csvSuffix identifies a CSV download link on a report page.
const csvSuffix = ".csv"

// ErrUnexpectedStatus is returned when a server answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// ErrNoFileName is returned when a download URL has no usable final path segment.
var ErrNoFileName = errors.New("download URL has no file name")

// Outcome describes what ResolveCSVLink did with a report link.
type Outcome int

const (
	// OutcomeSkipped means the link was already in the seen set.
	OutcomeSkipped Outcome = iota
	// OutcomeFound means the page linked to a CSV file.
	OutcomeFound
	// OutcomeNoCSV means the page was fetched but had no CSV link.
	OutcomeNoCSV
	// OutcomeFailed means the page could not be fetched.
	OutcomeFailed
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFound:
		return "found"
	case OutcomeNoCSV:
		return "no_csv"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Harvester fetches report pages and downloads CSV files.
//
// Design decision: We require an external client because tests point the
// harvester at httptest servers and production needs no special transport.
type Harvester struct {
	// client performs every request.
	client *http.Client

	// linkPrefix selects report links among the listing's hrefs.
	linkPrefix string

	// sourceDir is where downloads are written.
	sourceDir string

	// delay is waited before every report page request and download.
	delay time.Duration

	// timeout bounds each page request.
	timeout time.Duration

	// downloadTimeout bounds each download.
	downloadTimeout time.Duration

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of page bodies to read.
	maxBodySize int64

	// logger receives one record per fetch, skip, and failure.
	logger *slog.Logger
}

// HarvesterOption configures a Harvester.
type HarvesterOption func(*Harvester)

// WithLinkPrefix sets the URL prefix that identifies report links.
func WithLinkPrefix(prefix string) HarvesterOption {
	return func(h *Harvester) {
		h.linkPrefix = prefix
	}
}

// WithSourceDir sets the directory downloads are written to.
func WithSourceDir(dir string) HarvesterOption {
	return func(h *Harvester) {
		h.sourceDir = dir
	}
}

// WithDelay sets the delay waited before each request.
func WithDelay(d time.Duration) HarvesterOption {
	return func(h *Harvester) {
		h.delay = d
	}
}

// WithTimeout sets the timeout of each page request.
func WithTimeout(d time.Duration) HarvesterOption {
	return func(h *Harvester) {
		h.timeout = d
	}
}

// WithDownloadTimeout sets the timeout of each download.
func WithDownloadTimeout(d time.Duration) HarvesterOption {
	return func(h *Harvester) {
		h.downloadTimeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) HarvesterOption {
	return func(h *Harvester) {
		h.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum page body size.
func WithMaxBodySize(size int64) HarvesterOption {
	return func(h *Harvester) {
		h.maxBodySize = size
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HarvesterOption {
	return func(h *Harvester) {
		h.logger = logger
	}
}

// NewHarvester creates a new Harvester with the given HTTP client.
func NewHarvester(client *http.Client, opts ...HarvesterOption) *Harvester {
	h := &Harvester{
		client:          client,
		linkPrefix:      config.DefaultLinkPrefix,
		sourceDir:       filepath.Join(config.XDGDataDir(), config.SourceDirName),
		delay:           config.DefaultDelay,
		timeout:         config.DefaultTimeout,
		downloadTimeout: config.DefaultDownloadTimeout,
		userAgent:       config.DefaultUserAgent,
		maxBodySize:     config.DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}

	return h
}

// NewHTTPClient returns the client used for all harvesting requests.
// It carries no overall timeout; the harvester bounds each request with
// its own context deadline so long downloads are not cut off.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 2
	return &http.Client{Transport: transport}
}

// HarvestListing fetches the listing page and returns every link starting
// with the configured prefix, deduplicated in first-seen order.
// A failed fetch is logged and yields an empty result.
func (h *Harvester) HarvestListing(ctx context.Context, listingURL string) []string {
	page, err := h.FetchPage(ctx, listingURL)
	if err != nil {
		h.logger.Error("failed to fetch listing page", "url", listingURL, "error", err)
		return []string{}
	}

	links := page.AnchorsWithPrefix(h.linkPrefix)
	h.logger.Info("report links scraped", "url", listingURL, "count", len(links), "page_hash", page.Hash)
	return links
}

// ResolveCSVLink finds the CSV download link on a report page.
//
// A link already in seen is skipped without any request. Otherwise the
// politeness delay is waited and the page is fetched. Once the page has been
// fetched the link is added to seen whether or not a CSV link was found, so
// it is processed at most once. A failed fetch leaves seen untouched.
func (h *Harvester) ResolveCSVLink(ctx context.Context, link string, seen *model.LinkSet) (string, Outcome) {
	if seen.Contains(link) {
		h.logger.Info("link previously scraped, skipping", "url", link)
		return "", OutcomeSkipped
	}

	if err := h.wait(ctx); err != nil {
		h.logger.Warn("resolve cancelled", "url", link, "error", err)
		return "", OutcomeFailed
	}

	page, err := h.FetchPage(ctx, link)
	if err != nil {
		h.logger.Error("failed to fetch report page", "url", link, "error", err)
		return "", OutcomeFailed
	}

	seen.Add(link)

	csvURL, ok := page.FirstAnchorWithSuffix(csvSuffix)
	if !ok {
		h.logger.Info("no CSV link found", "url", link)
		return "", OutcomeNoCSV
	}

	h.logger.Info("CSV link scraped", "url", link, "csv", csvURL)
	return csvURL, OutcomeFound
}

// Download streams csvURL to the source directory under the URL's final
// path segment. The file is written to a temporary name and renamed once
// complete, so an interrupted download never leaves a truncated CSV behind.
// A failure is logged and yields nil.
func (h *Harvester) Download(ctx context.Context, csvURL string) *model.Download {
	dl, err := h.download(ctx, csvURL)
	if err != nil {
		h.logger.Error("failed to download CSV", "url", csvURL, "error", err)
		return nil
	}
	h.logger.Info("CSV file downloaded", "url", csvURL, "path", dl.Path, "bytes", dl.Size)
	return dl
}

func (h *Harvester) download(ctx context.Context, csvURL string) (*model.Download, error) {
	name, err := FileNameFromURL(csvURL)
	if err != nil {
		return nil, err
	}

	if err := h.wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.downloadTimeout)
	defer cancel()

	resp, err := h.get(ctx, csvURL, "text/csv,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(h.sourceDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create source directory: %w", err)
	}

	tmp, err := os.CreateTemp(h.sourceDir, ".download-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) //nolint:errcheck // Already renamed on success
	}()

	hash := sha3.New256()
	size, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body)
	if err != nil {
		_ = tmp.Close() //nolint:errcheck // Copy error takes precedence
		return nil, fmt.Errorf("failed to write download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close download: %w", err)
	}

	dest := filepath.Join(h.sourceDir, name)
	if err := os.Rename(tmpName, dest); err != nil {
		return nil, fmt.Errorf("failed to move download into place: %w", err)
	}

	return &model.Download{
		URL:          csvURL,
		Path:         dest,
		Size:         size,
		SHA3:         hex.EncodeToString(hash.Sum(nil)),
		DownloadedAt: time.Now(),
	}, nil
}

// FetchPage fetches a single page and extracts its links.
// Non-2xx responses are returned as errors wrapping ErrUnexpectedStatus.
func (h *Harvester) FetchPage(ctx context.Context, pageURL string) (*model.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp, err := h.get(ctx, pageURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	page := &model.Page{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	page.ComputeHash(body)

	if !page.IsHTML() {
		return page, nil
	}

	// Resolve against the final URL so redirects keep relative links correct.
	base := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL.String()
	}

	parser, err := NewParser(base)
	if err != nil {
		return nil, err
	}
	result, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	page.Anchors = result.Links

	return page, nil
}

// get performs a GET request and checks the status code.
// On success the caller owns the response body.
func (h *Harvester) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close() //nolint:errcheck // Status error takes precedence
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	return resp, nil
}

// wait blocks for the politeness delay or until ctx is done.
func (h *Harvester) wait(ctx context.Context) error {
	if h.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(h.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FileNameFromURL returns the final path segment of rawURL, which is the
// name a download is stored under.
func FileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, rawURL)
	}
	return name, nil
}
