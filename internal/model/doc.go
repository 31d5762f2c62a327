// Package model defines the core data structures used throughout csvharvest.
//
// This package contains the following main types:
//   - Page: A fetched HTML page with the anchors found on it
//   - LinkSet: The ordered set of report links already processed (the seen set)
//   - HarvestReport: The result of one harvest run
//   - Table: A CSV table, raw or normalized
//   - NormalizeReport: The result of one normalization run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, database, normalize, and report packages all use
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output.
package model
