// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - MarkdownWriter: Markdown output for sharing run summaries
//   - JSONWriter: Structured JSON output for tool integration
//
// Every writer handles the three things csvharvest prints: the summary of a
// harvest run, the summary of a normalization run, and the header vocabulary.
// The unified table itself is written with WriteCSV.
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) so that adding an output format never
// touches the harvester or the normalizer.
package report
