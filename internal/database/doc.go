// Package database provides SQLite-based storage for csvharvest.
//
// This package implements the Store, which keeps:
//   - The seen set: report links already processed, so later runs skip them
//   - A ledger of downloaded CSV files with their size and SHA3-256 digest
//   - One row per harvest run
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of the
// append-only text file the first version of the tool wrote because:
// 1. The seen set is flushed in one transaction at the end of a run, so a
//    crash never leaves a half-written line behind
// 2. CGO-free implementation allows easy cross-compilation
// 3. Links are a primary key, so duplicates are impossible
//
// The legacy text file can still be imported with ImportSeenFile.
package database
