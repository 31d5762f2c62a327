// Package pipeline provides a framework for executing harvest steps in sequence.
//
// A harvest run has three stages: scrape report links from the listing page,
// resolve each new report link to its CSV download link, and download the
// CSV files. Each stage is implemented as a Step that receives the run's
// HarvestReport and appends its results to it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It provides consistent error handling and logging across steps
// 2. It supports cancellation via context between stages
// 3. A partial run still produces a report of what was done
//
// Steps run strictly one after another; the harvester never issues
// concurrent requests to the council's site.
package pipeline
