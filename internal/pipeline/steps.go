package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/csvharvest/internal/crawler"
	"github.com/nao1215/csvharvest/internal/model"
)

// ListingHarvester scrapes report links from a listing page.
type ListingHarvester interface {
	HarvestListing(ctx context.Context, listingURL string) []string
}

// LinkResolver finds the CSV download link of a report page.
type LinkResolver interface {
	ResolveCSVLink(ctx context.Context, link string, seen *model.LinkSet) (string, crawler.Outcome)
}

// Downloader downloads one CSV file.
type Downloader interface {
	Download(ctx context.Context, csvURL string) *model.Download
}

// DownloadRecorder stores finished downloads.
type DownloadRecorder interface {
	RecordDownload(ctx context.Context, runID string, dl *model.Download) error
}

// HarvestListingStep scrapes the report links of the run's listing page.
type HarvestListingStep struct {
	harvester ListingHarvester
	logger    *slog.Logger
}

// NewHarvestListingStep creates a new listing step.
func NewHarvestListingStep(h ListingHarvester, logger *slog.Logger) *HarvestListingStep {
	return &HarvestListingStep{harvester: h, logger: orDiscard(logger)}
}

// Name returns the step name.
func (s *HarvestListingStep) Name() string {
	return "harvest_listing"
}

// Do fills report.ReportLinks. An unreachable listing yields no links and
// is not an error; the later steps then have nothing to do.
func (s *HarvestListingStep) Do(ctx context.Context, report *model.HarvestReport) error {
	report.ReportLinks = s.harvester.HarvestListing(ctx, report.ListingURL)
	if len(report.ReportLinks) == 0 {
		s.logger.Warn("no report links found", "url", report.ListingURL)
	}
	return nil
}

// ResolveLinksStep resolves every report link to its CSV download link.
// Links are processed one at a time.
type ResolveLinksStep struct {
	resolver LinkResolver
	logger   *slog.Logger
}

// NewResolveLinksStep creates a new resolve step.
func NewResolveLinksStep(r LinkResolver, logger *slog.Logger) *ResolveLinksStep {
	return &ResolveLinksStep{resolver: r, logger: orDiscard(logger)}
}

// Name returns the step name.
func (s *ResolveLinksStep) Name() string {
	return "resolve_links"
}

// Do sorts every report link into Skipped, NoCSV, Failed or CSVLinks.
// It stops early and returns ctx.Err() if the run is cancelled.
func (s *ResolveLinksStep) Do(ctx context.Context, report *model.HarvestReport) error {
	for _, link := range report.ReportLinks {
		if err := ctx.Err(); err != nil {
			return err
		}

		csvURL, outcome := s.resolver.ResolveCSVLink(ctx, link, report.Seen)
		switch outcome {
		case crawler.OutcomeSkipped:
			report.Skipped = append(report.Skipped, link)
		case crawler.OutcomeNoCSV:
			report.NoCSV = append(report.NoCSV, link)
		case crawler.OutcomeFailed:
			report.Failed = append(report.Failed, link)
		case crawler.OutcomeFound:
			report.CSVLinks = append(report.CSVLinks, model.CSVLink{ReportURL: link, URL: csvURL})
		}
	}

	s.logger.Info("report links resolved",
		"csv_links", len(report.CSVLinks),
		"skipped", len(report.Skipped),
		"no_csv", len(report.NoCSV),
		"failed", len(report.Failed),
	)
	return nil
}

// DownloadStep downloads every CSV link resolved during the run.
type DownloadStep struct {
	downloader Downloader

	// recorder is optional; nil disables the download ledger.
	recorder DownloadRecorder

	logger *slog.Logger
}

// NewDownloadStep creates a new download step. recorder may be nil.
func NewDownloadStep(d Downloader, recorder DownloadRecorder, logger *slog.Logger) *DownloadStep {
	return &DownloadStep{downloader: d, recorder: recorder, logger: orDiscard(logger)}
}

// Name returns the step name.
func (s *DownloadStep) Name() string {
	return "download"
}

// Do downloads each CSV link, in the order the links were resolved.
// A failed download is recorded in report.FailedDownloads and the next
// link is tried. A ledger write failure is logged and does not stop the run.
func (s *DownloadStep) Do(ctx context.Context, report *model.HarvestReport) error {
	for _, link := range report.CSVLinks {
		if err := ctx.Err(); err != nil {
			return err
		}

		dl := s.downloader.Download(ctx, link.URL)
		if dl == nil {
			report.FailedDownloads = append(report.FailedDownloads, link.URL)
			continue
		}
		report.Downloads = append(report.Downloads, *dl)

		if s.recorder == nil {
			continue
		}
		if err := s.recorder.RecordDownload(ctx, report.RunID, dl); err != nil {
			s.logger.Error("failed to record download", "url", dl.URL, "error", err)
		}
	}
	return nil
}

// NewHarvestPipeline builds the standard three-step harvest pipeline around
// one Harvester. recorder may be nil.
func NewHarvestPipeline(h *crawler.Harvester, recorder DownloadRecorder, logger *slog.Logger) *Pipeline {
	p := New(WithLogger(logger))
	p.AddSteps(
		NewHarvestListingStep(h, logger),
		NewResolveLinksStep(h, logger),
		NewDownloadStep(h, recorder, logger),
	)
	return p
}

// CSVLinksByReport maps each report link of the run to its CSV link.
// It is what the store keeps next to every seen link.
func CSVLinksByReport(report *model.HarvestReport) map[string]string {
	m := make(map[string]string, len(report.CSVLinks))
	for _, l := range report.CSVLinks {
		m[l.ReportURL] = l.URL
	}
	return m
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
