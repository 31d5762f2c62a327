// Package crawler fetches the council's open-data pages and downloads the
// CSV files they link to.
//
// # Architecture
//
// The package is built around the Harvester type. A harvest is one level
// deep: the listing page yields report links, each report page may yield one
// CSV link, and each CSV link yields one downloaded file.
//
// Design decision: We implement a small purpose-built harvester rather than a
// generic crawler because:
//  1. The site structure is fixed and only one level deep
//  2. Each report page must be fetched at most once across runs
//  3. Requests must be throttled tightly to be polite to a public service
//
// # Components
//
//   - Harvester: fetches pages, resolves CSV links, downloads files
//   - Parser: HTML parser that extracts href values
//
// # Politeness
//
// A fixed delay is waited before every report page request and every
// download. Requests are strictly sequential.
//
// # Failure handling
//
// Network failures never abort a run. They are logged and reported as "no
// result" so the remaining links are still processed; a link whose page
// could not be fetched is not recorded as seen and is retried next run.
//
// # Usage
//
//	h := crawler.NewHarvester(crawler.NewHTTPClient(), crawler.WithLogger(logger))
//	links := h.HarvestListing(ctx, listingURL)
package crawler
